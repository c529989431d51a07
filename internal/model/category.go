package model

import "encoding/json"

// QuestionCategory identifies one topic the advisor collects exactly once
// per profile. The string values are wire identifiers and must stay stable
// across versions: they are persisted in answered-category sets and in
// assistant message metadata.
type QuestionCategory string

const (
	CategoryName            QuestionCategory = "name"
	CategorySurname         QuestionCategory = "surname"
	CategoryHometown        QuestionCategory = "hometown"
	CategoryProfession      QuestionCategory = "profession"
	CategoryMaritalStatus   QuestionCategory = "marital_status"
	CategoryChildren        QuestionCategory = "children"
	CategoryHobbies         QuestionCategory = "hobbies"
	CategoryEmail           QuestionCategory = "email"
	CategoryPhoneNumber     QuestionCategory = "phone_number"
	CategoryEstimatedSalary QuestionCategory = "estimated_salary"
	CategoryPriorities      QuestionCategory = "priorities"
	CategoryLocation        QuestionCategory = "location"
	CategoryRooms           QuestionCategory = "rooms"
	CategorySocialAmenities QuestionCategory = "social_amenities"
	CategoryPurchasePurpose QuestionCategory = "purchase_purpose"
)

// AllCategories returns every defined category in stable enumeration order.
func AllCategories() []QuestionCategory {
	return []QuestionCategory{
		CategoryName,
		CategorySurname,
		CategoryHometown,
		CategoryProfession,
		CategoryMaritalStatus,
		CategoryChildren,
		CategoryHobbies,
		CategoryEmail,
		CategoryPhoneNumber,
		CategoryEstimatedSalary,
		CategoryPriorities,
		CategoryLocation,
		CategoryRooms,
		CategorySocialAmenities,
		CategoryPurchasePurpose,
	}
}

// ValidCategory reports whether s is one of the defined category identifiers.
func ValidCategory(s string) bool {
	for _, c := range AllCategories() {
		if string(c) == s {
			return true
		}
	}
	return false
}

// CategorySet tracks which categories have been answered. Membership only;
// iteration order is defined by AllCategories.
type CategorySet map[QuestionCategory]struct{}

// NewCategorySet returns an empty set.
func NewCategorySet() CategorySet {
	return make(CategorySet)
}

// Add inserts a category into the set.
func (s CategorySet) Add(c QuestionCategory) {
	s[c] = struct{}{}
}

// Has reports membership.
func (s CategorySet) Has(c QuestionCategory) bool {
	_, ok := s[c]
	return ok
}

// Slice returns the members in stable enumeration order.
func (s CategorySet) Slice() []QuestionCategory {
	var out []QuestionCategory
	for _, c := range AllCategories() {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// MarshalJSON encodes the set as a sorted JSON array of identifiers.
func (s CategorySet) MarshalJSON() ([]byte, error) {
	members := s.Slice()
	out := []byte{'['}
	for i, c := range members {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '"')
		out = append(out, string(c)...)
		out = append(out, '"')
	}
	return append(out, ']'), nil
}

// UnmarshalJSON decodes a JSON array of identifiers, ignoring unknown ones
// so that older payloads with retired categories still load.
func (s *CategorySet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	set := NewCategorySet()
	for _, v := range raw {
		if ValidCategory(v) {
			set.Add(QuestionCategory(v))
		}
	}
	*s = set
	return nil
}
