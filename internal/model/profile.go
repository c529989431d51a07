package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserProfile is the mutable per-session entity the advisor fills in as the
// conversation progresses. Field updates go through the Set* methods so the
// answered-category bookkeeping and the updated-at timestamp stay consistent.
type UserProfile struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name            string   `json:"name,omitempty"`
	Surname         string   `json:"surname,omitempty"`
	Email           string   `json:"email,omitempty"`
	PhoneNumber     string   `json:"phone_number,omitempty"`
	Hometown        string   `json:"hometown,omitempty"`
	CurrentCity     string   `json:"current_city,omitempty"`
	Profession      string   `json:"profession,omitempty"`
	MaritalStatus   string   `json:"marital_status,omitempty"`
	HasChildren     *bool    `json:"has_children,omitempty"`
	EstimatedSalary string   `json:"estimated_salary,omitempty"`
	FamilySize      int      `json:"family_size,omitempty"`
	PurchasePurpose string   `json:"purchase_purpose,omitempty"`
	LifestyleNotes  string   `json:"lifestyle_notes,omitempty"`
	Hobbies         []string `json:"hobbies,omitempty"`
	SocialAmenities []string `json:"social_amenities,omitempty"`

	Budget              *Budget              `json:"budget,omitempty"`
	Location            *Location            `json:"location,omitempty"`
	PropertyPreferences *PropertyPreferences `json:"property_preferences,omitempty"`

	AnsweredCategories CategorySet `json:"answered_categories"`
}

// NewUserProfile creates an empty profile bound to a session.
func NewUserProfile(sessionID string) *UserProfile {
	now := time.Now().UTC()
	return &UserProfile{
		ID:                 uuid.New(),
		SessionID:          sessionID,
		CreatedAt:          now,
		UpdatedAt:          now,
		AnsweredCategories: NewCategorySet(),
	}
}

func (p *UserProfile) touch(categories ...QuestionCategory) {
	if p.AnsweredCategories == nil {
		p.AnsweredCategories = NewCategorySet()
	}
	for _, c := range categories {
		p.AnsweredCategories.Add(c)
	}
	p.UpdatedAt = time.Now().UTC()
}

// SetName records the given name. Marks the name category.
func (p *UserProfile) SetName(name string) {
	p.Name = strings.TrimSpace(name)
	p.touch(CategoryName)
}

// SetSurname records the family name. Marks the surname category.
func (p *UserProfile) SetSurname(surname string) {
	p.Surname = strings.TrimSpace(surname)
	p.touch(CategorySurname)
}

// SetHometown records the birthplace. Marks the hometown category.
func (p *UserProfile) SetHometown(city string) {
	p.Hometown = strings.TrimSpace(city)
	p.touch(CategoryHometown)
}

// SetProfession marks the profession category.
func (p *UserProfile) SetProfession(profession string) {
	p.Profession = strings.TrimSpace(profession)
	p.touch(CategoryProfession)
}

// SetMaritalStatus marks the marital status category.
func (p *UserProfile) SetMaritalStatus(status string) {
	p.MaritalStatus = strings.TrimSpace(status)
	p.touch(CategoryMaritalStatus)
}

// SetChildren records whether the user has children and, when known, how
// many people the household holds. Marks the children category.
func (p *UserProfile) SetChildren(has bool, familySize int) {
	p.HasChildren = &has
	if familySize > 0 {
		p.FamilySize = familySize
	}
	p.touch(CategoryChildren)
}

// SetEstimatedSalary stores the user's own wording of their income.
// Marks the estimated salary category.
func (p *UserProfile) SetEstimatedSalary(raw string) {
	p.EstimatedSalary = strings.TrimSpace(raw)
	p.touch(CategoryEstimatedSalary)
}

// SetBudget attaches a validated budget range. The budget is derived from
// the salary exchange, so it marks the estimated salary category.
func (p *UserProfile) SetBudget(b Budget) {
	p.Budget = &b
	p.touch(CategoryEstimatedSalary)
}

// SetLocation attaches the target search location. Marks the location category.
func (p *UserProfile) SetLocation(l Location) {
	p.Location = &l
	p.touch(CategoryLocation)
}

// SetPropertyPreferences attaches housing requirements. Marks the rooms
// category only when a room range was actually given.
func (p *UserProfile) SetPropertyPreferences(prefs PropertyPreferences) {
	p.PropertyPreferences = &prefs
	if prefs.HasRoomRange() {
		p.touch(CategoryRooms)
	} else {
		p.touch()
	}
}

// SetContact records whichever contact fields are present, marking the
// matching categories.
func (p *UserProfile) SetContact(email, phone string) {
	if email = strings.TrimSpace(email); email != "" {
		p.Email = email
		p.touch(CategoryEmail)
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		p.PhoneNumber = phone
		p.touch(CategoryPhoneNumber)
	}
}

// SetFamilySize records the household size without touching HasChildren.
func (p *UserProfile) SetFamilySize(size int) {
	if size > 0 {
		p.FamilySize = size
	}
	p.touch(CategoryChildren)
}

// SetHobbies replaces the hobby list. Marks the hobbies category.
func (p *UserProfile) SetHobbies(hobbies []string) {
	p.Hobbies = hobbies
	p.touch(CategoryHobbies)
}

// SetSocialAmenities replaces the amenity wish list. Marks the category.
func (p *UserProfile) SetSocialAmenities(amenities []string) {
	p.SocialAmenities = amenities
	p.touch(CategorySocialAmenities)
}

// SetPriorities stores free-text priorities in the lifestyle notes.
func (p *UserProfile) SetPriorities(notes string) {
	p.LifestyleNotes = strings.TrimSpace(notes)
	p.touch(CategoryPriorities)
}

// SetPurchasePurpose marks the purchase purpose category.
func (p *UserProfile) SetPurchasePurpose(purpose string) {
	p.PurchasePurpose = strings.TrimSpace(purpose)
	p.touch(CategoryPurchasePurpose)
}

// MarkAnswered records a category as answered without a field update, for
// answers that carry no extractable value (e.g. "I'd rather not say").
func (p *UserProfile) MarkAnswered(c QuestionCategory) {
	p.touch(c)
}

// HasAnswered reports whether the category has been collected.
func (p *UserProfile) HasAnswered(c QuestionCategory) bool {
	return p.AnsweredCategories.Has(c)
}

// UnansweredCategories returns the full category set minus the answered
// ones, in stable enumeration order.
func (p *UserProfile) UnansweredCategories() []QuestionCategory {
	var out []QuestionCategory
	for _, c := range AllCategories() {
		if !p.AnsweredCategories.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// IsComplete reports whether the profile carries enough to produce final
// segment guidance: name, surname, profession, an income figure, and a
// target location. Email and current city are deliberately optional.
func (p *UserProfile) IsComplete() bool {
	return p.Name != "" &&
		p.Surname != "" &&
		p.Profession != "" &&
		p.EstimatedSalary != "" &&
		p.Location != nil
}

// CompletionRatio is the fraction of categories already answered.
func (p *UserProfile) CompletionRatio() float64 {
	all := AllCategories()
	if len(all) == 0 {
		return 0
	}
	return float64(len(p.AnsweredCategories.Slice())) / float64(len(all))
}

// FullName joins name and surname, skipping empty parts.
func (p *UserProfile) FullName() string {
	switch {
	case p.Name != "" && p.Surname != "":
		return p.Name + " " + p.Surname
	case p.Name != "":
		return p.Name
	default:
		return p.Surname
	}
}
