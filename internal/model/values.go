package model

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// PropertyType classifies the kind of property a user is looking for.
type PropertyType string

const (
	PropertyApartment  PropertyType = "apartment"
	PropertyHouse      PropertyType = "house"
	PropertyVilla      PropertyType = "villa"
	PropertyStudio     PropertyType = "studio"
	PropertyPenthouse  PropertyType = "penthouse"
	PropertyDuplex     PropertyType = "duplex"
	PropertyLand       PropertyType = "land"
	PropertyCommercial PropertyType = "commercial"
)

// AllPropertyTypes returns all defined property types.
func AllPropertyTypes() []PropertyType {
	return []PropertyType{
		PropertyApartment,
		PropertyHouse,
		PropertyVilla,
		PropertyStudio,
		PropertyPenthouse,
		PropertyDuplex,
		PropertyLand,
		PropertyCommercial,
	}
}

// ValidPropertyType reports whether s is a defined property type.
func ValidPropertyType(s string) bool {
	for _, t := range AllPropertyTypes() {
		if string(t) == s {
			return true
		}
	}
	return false
}

// Budget is an immutable amount range, validated on construction.
type Budget struct {
	MinAmount int64  `json:"min_amount"`
	MaxAmount int64  `json:"max_amount"`
	Currency  string `json:"currency"`
}

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency = "TRY"

// NewBudget validates and builds a Budget. The zero currency defaults to TRY.
func NewBudget(minAmount, maxAmount int64, currency string) (Budget, error) {
	if minAmount < 0 {
		return Budget{}, eris.New("budget: minimum amount cannot be negative")
	}
	if maxAmount < 0 {
		return Budget{}, eris.New("budget: maximum amount cannot be negative")
	}
	if minAmount > maxAmount {
		return Budget{}, eris.New("budget: minimum amount cannot exceed maximum")
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return Budget{MinAmount: minAmount, MaxAmount: maxAmount, Currency: currency}, nil
}

func (b Budget) String() string {
	return fmt.Sprintf("%d - %d %s", b.MinAmount, b.MaxAmount, b.Currency)
}

// Location is an immutable geographic preference. City is required.
type Location struct {
	City     string `json:"city"`
	District string `json:"district,omitempty"`
	Country  string `json:"country"`
}

// NewLocation validates and builds a Location. Country defaults to Turkey.
func NewLocation(city, district, country string) (Location, error) {
	if strings.TrimSpace(city) == "" {
		return Location{}, eris.New("location: city cannot be empty")
	}
	if country == "" {
		country = "Turkey"
	}
	return Location{City: strings.TrimSpace(city), District: strings.TrimSpace(district), Country: country}, nil
}

func (l Location) String() string {
	if l.District != "" {
		return fmt.Sprintf("%s, %s, %s", l.District, l.City, l.Country)
	}
	return fmt.Sprintf("%s, %s", l.City, l.Country)
}

// PropertyPreferences is an immutable set of housing requirements.
type PropertyPreferences struct {
	PropertyType PropertyType `json:"property_type"`
	MinRooms     *int         `json:"min_rooms,omitempty"`
	MaxRooms     *int         `json:"max_rooms,omitempty"`
	HasBalcony   *bool        `json:"has_balcony,omitempty"`
	HasParking   *bool        `json:"has_parking,omitempty"`
}

// NewPropertyPreferences validates and builds PropertyPreferences.
func NewPropertyPreferences(propertyType PropertyType, minRooms, maxRooms *int) (PropertyPreferences, error) {
	if !ValidPropertyType(string(propertyType)) {
		return PropertyPreferences{}, eris.Errorf("property preferences: unknown property type %q", propertyType)
	}
	if minRooms != nil && *minRooms < 0 {
		return PropertyPreferences{}, eris.New("property preferences: minimum rooms cannot be negative")
	}
	if maxRooms != nil && *maxRooms < 0 {
		return PropertyPreferences{}, eris.New("property preferences: maximum rooms cannot be negative")
	}
	if minRooms != nil && maxRooms != nil && *minRooms > *maxRooms {
		return PropertyPreferences{}, eris.New("property preferences: minimum rooms cannot exceed maximum")
	}
	return PropertyPreferences{PropertyType: propertyType, MinRooms: minRooms, MaxRooms: maxRooms}, nil
}

// HasRoomRange reports whether a room count was given in either direction.
func (p PropertyPreferences) HasRoomRange() bool {
	return p.MinRooms != nil || p.MaxRooms != nil
}
