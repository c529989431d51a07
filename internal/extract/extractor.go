// Package extract converts free-text chat answers into typed profile fields.
// Parsing is contextual: the rule applied to a message depends on which
// category the assistant asked about on the previous turn.
package extract

import (
	"regexp"
	"strings"

	"github.com/interstellar-mare/advisor/internal/model"
)

// greetings holds the Turkish (and borrowed) salutations that open a chat
// without answering anything.
var greetings = []string{
	"merhaba", "selam", "selamlar", "mrb", "slm", "hey", "hi", "sa",
	"merhabalar", "naber",
}

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d{10,}`)
)

// salaryToBudgetStretch widens a single quoted figure into a range: the
// figure is the floor and 1.2x of it is the reachable ceiling.
const salaryToBudgetStretch = 1.2

// Result reports what one message contributed to the profile.
type Result struct {
	// Answered lists the categories this message newly resolved.
	Answered []model.QuestionCategory
	// Greeting is set when the message was a salutation and nothing was
	// extracted; greetings never consume a pending question.
	Greeting bool
}

// Extractor applies contextual parsing rules to user messages. It is
// stateless; all mutation goes through the profile's own API.
type Extractor struct {
	currency string
}

// New creates an Extractor. Amounts are denominated in the given currency.
func New(currency string) *Extractor {
	if currency == "" {
		currency = model.DefaultCurrency
	}
	return &Extractor{currency: currency}
}

// IsGreeting reports whether the message is a bare salutation: it equals one
// of the known greeting tokens or starts with one followed by a space.
func IsGreeting(message string) bool {
	folded := turkishLower.String(strings.TrimSpace(message))
	for _, g := range greetings {
		if folded == g || strings.HasPrefix(folded, g+" ") {
			return true
		}
	}
	return false
}

// Apply parses the message in the context of the category last asked about
// and writes any extracted fields to the profile. It is deterministic: the
// same message, context, and profile state always produce the same updates.
func (e *Extractor) Apply(profile *model.UserProfile, message string, lastAsked model.QuestionCategory) Result {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return Result{}
	}
	if IsGreeting(trimmed) {
		return Result{Greeting: true}
	}

	if lastAsked == "" {
		// First contact: an unprompted non-greeting message establishes
		// identity. Afterwards, unprompted messages only get an
		// opportunistic email scan.
		if profile.Name == "" {
			return Result{Answered: applyName(profile, trimmed)}
		}
		if email := emailPattern.FindString(trimmed); email != "" && profile.Email == "" {
			profile.SetContact(email, "")
			return Result{Answered: []model.QuestionCategory{model.CategoryEmail}}
		}
		return Result{}
	}

	switch lastAsked {
	case model.CategoryName:
		return Result{Answered: applyName(profile, trimmed)}

	case model.CategorySurname:
		profile.SetSurname(trimmed)
		return answered(model.CategorySurname)

	case model.CategoryEmail:
		if email := emailPattern.FindString(trimmed); email != "" {
			profile.SetContact(email, "")
			return answered(model.CategoryEmail)
		}
		return Result{}

	case model.CategoryPhoneNumber:
		cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(trimmed)
		if phone := phonePattern.FindString(cleaned); phone != "" {
			profile.SetContact("", phone)
			return answered(model.CategoryPhoneNumber)
		}
		return Result{}

	case model.CategoryHometown:
		profile.SetHometown(placeName(trimmed))
		return answered(model.CategoryHometown)

	case model.CategoryLocation:
		loc, err := model.NewLocation(placeName(trimmed), "", "")
		if err != nil {
			return Result{}
		}
		profile.SetLocation(loc)
		return answered(model.CategoryLocation)

	case model.CategoryEstimatedSalary:
		return e.applySalary(profile, trimmed)

	case model.CategoryRooms:
		return applyRooms(profile, trimmed)

	case model.CategoryChildren:
		return applyChildren(profile, trimmed)

	case model.CategoryMaritalStatus:
		profile.SetMaritalStatus(maritalStatus(trimmed))
		return answered(model.CategoryMaritalStatus)

	case model.CategoryHobbies:
		profile.SetHobbies(splitList(trimmed))
		return answered(model.CategoryHobbies)

	case model.CategorySocialAmenities:
		profile.SetSocialAmenities(splitList(trimmed))
		return answered(model.CategorySocialAmenities)

	case model.CategoryPriorities:
		profile.SetPriorities(trimmed)
		return answered(model.CategoryPriorities)

	case model.CategoryProfession:
		profile.SetProfession(trimmed)
		return answered(model.CategoryProfession)

	case model.CategoryPurchasePurpose:
		profile.SetPurchasePurpose(trimmed)
		return answered(model.CategoryPurchasePurpose)
	}

	return Result{}
}

func answered(categories ...model.QuestionCategory) Result {
	return Result{Answered: categories}
}

// applyName splits a two-token answer into name and surname; a single token
// sets only the name, leaving surname to be asked. Best effort: multi-word
// surnames keep every token after the first.
func applyName(profile *model.UserProfile, trimmed string) []model.QuestionCategory {
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return nil
	}
	profile.SetName(fields[0])
	if len(fields) > 1 {
		profile.SetSurname(strings.Join(fields[1:], " "))
		return []model.QuestionCategory{model.CategoryName, model.CategorySurname}
	}
	return []model.QuestionCategory{model.CategoryName}
}

// applySalary stores the user's own wording and derives a budget range from
// any amounts in it. One figure becomes floor=n, ceiling=1.2n; two or more
// become the lowest and highest.
func (e *Extractor) applySalary(profile *model.UserProfile, trimmed string) Result {
	profile.SetEstimatedSalary(trimmed)

	amounts := ExtractAmounts(trimmed)
	switch {
	case len(amounts) == 1:
		n := amounts[0]
		if b, err := model.NewBudget(n, int64(float64(n)*salaryToBudgetStretch), e.currency); err == nil {
			profile.SetBudget(b)
		}
	case len(amounts) >= 2:
		if b, err := model.NewBudget(amounts[0], amounts[len(amounts)-1], e.currency); err == nil {
			profile.SetBudget(b)
		}
	}
	return answered(model.CategoryEstimatedSalary)
}

// applyRooms reads the first integer as a room count and sniffs the property
// type from keywords, defaulting to apartment. Without a number the answer
// is ignored so the question gets asked again.
func applyRooms(profile *model.UserProfile, trimmed string) Result {
	n, ok := FirstInt(trimmed)
	if !ok || n <= 0 {
		return Result{}
	}
	prefs, err := model.NewPropertyPreferences(propertyType(trimmed), &n, nil)
	if err != nil {
		return Result{}
	}
	profile.SetPropertyPreferences(prefs)
	return answered(model.CategoryRooms)
}

func propertyType(message string) model.PropertyType {
	folded := Fold(message)
	switch {
	case strings.Contains(folded, "villa"):
		return model.PropertyVilla
	case strings.Contains(folded, "mustakil"):
		return model.PropertyHouse
	default:
		return model.PropertyApartment
	}
}

// applyChildren parses yes/no plus an optional count. Ambiguous answers are
// ignored and the category stays open.
func applyChildren(profile *model.UserProfile, trimmed string) Result {
	folded := Fold(trimmed)

	if n, ok := FirstInt(trimmed); ok {
		// "4 kişilik bir aileyiz" gives the household size, not a child
		// count; more than a couple implies children.
		if strings.Contains(folded, "kisi") {
			profile.SetFamilySize(n)
			profile.SetChildren(n > 2, 0)
			return answered(model.CategoryChildren)
		}
		profile.SetChildren(n > 0, n)
		return answered(model.CategoryChildren)
	}
	switch {
	case strings.Contains(folded, "yok") || strings.Contains(folded, "hayir"):
		profile.SetChildren(false, 0)
		return answered(model.CategoryChildren)
	case strings.Contains(folded, "var") || strings.Contains(folded, "evet"):
		profile.SetChildren(true, 0)
		return answered(model.CategoryChildren)
	}
	return Result{}
}

func maritalStatus(message string) string {
	folded := Fold(message)
	switch {
	case strings.Contains(folded, "evli"):
		return "evli"
	case strings.Contains(folded, "bekar"):
		return "bekar"
	default:
		return strings.TrimSpace(message)
	}
}

// placeName resolves a message to a city: gazetteer hit in canonical
// spelling, otherwise the whole trimmed message in Turkish title case.
func placeName(trimmed string) string {
	if city, ok := MatchCity(trimmed); ok {
		return city
	}
	return TitleCase(trimmed)
}

// splitList breaks an enumeration answer into ordered items on commas and
// the Turkish conjunction "ve".
func splitList(message string) []string {
	normalized := strings.ReplaceAll(message, " ve ", ",")
	var items []string
	for _, part := range strings.Split(normalized, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
