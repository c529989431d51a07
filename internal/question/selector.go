// Package question decides what the advisor asks next. Selection is a
// deterministic walk over a fixed priority order; only the phrasing of the
// chosen category is randomized.
package question

import (
	_ "embed"
	"fmt"
	"math/rand/v2"

	"gopkg.in/yaml.v3"

	"github.com/interstellar-mare/advisor/internal/model"
)

//go:embed questions.yaml
var catalogYAML []byte

// catalog maps each category to its phrasing templates.
var catalog = func() map[model.QuestionCategory][]string {
	var raw map[string][]string
	if err := yaml.Unmarshal(catalogYAML, &raw); err != nil {
		panic(fmt.Sprintf("question: embedded catalog is malformed: %v", err))
	}
	m := make(map[model.QuestionCategory][]string, len(raw))
	for k, v := range raw {
		m[model.QuestionCategory(k)] = v
	}
	return m
}()

// priority is the fixed ask order over the unanswered categories. Name is
// special-cased ahead of it whenever the profile has no name yet.
var priority = []model.QuestionCategory{
	model.CategorySurname,
	model.CategoryEmail,
	model.CategoryHometown,
	model.CategoryProfession,
	model.CategoryMaritalStatus,
	model.CategoryChildren,
	model.CategoryEstimatedSalary,
	model.CategoryLocation,
	model.CategoryRooms,
	model.CategoryPriorities,
	model.CategorySocialAmenities,
	model.CategoryPurchasePurpose,
	model.CategoryHobbies,
	model.CategoryPhoneNumber,
}

// State is the selector's view of the collection progress.
type State int

const (
	// StateCollecting means unanswered categories remain.
	StateCollecting State = iota
	// StateReady means every category has been answered.
	StateReady
)

// Selection is the outcome of one Next call. When Complete is set, Category
// and Text are empty: there is nothing left to ask.
type Selection struct {
	Category model.QuestionCategory
	Text     string
	Complete bool
}

// Selector picks the next question for a profile. The intn source only
// varies the template wording; inject a constant source for deterministic
// tests.
type Selector struct {
	intn func(n int) int
}

// New creates a Selector with the default randomness source.
func New() *Selector {
	return &Selector{intn: rand.IntN}
}

// NewWithRand creates a Selector with an injected randomness source.
func NewWithRand(intn func(n int) int) *Selector {
	if intn == nil {
		intn = rand.IntN
	}
	return &Selector{intn: intn}
}

// StateOf reports whether collection is still in progress.
func StateOf(p *model.UserProfile) State {
	if len(p.UnansweredCategories()) == 0 {
		return StateReady
	}
	return StateCollecting
}

// Next returns the first unanswered category in priority order and a
// phrasing for it. Exhausting every category yields a complete signal.
func (s *Selector) Next(p *model.UserProfile) Selection {
	if p.Name == "" {
		return s.selection(model.CategoryName)
	}
	for _, c := range priority {
		if !p.HasAnswered(c) {
			return s.selection(c)
		}
	}
	// The priority list skips name; it can stay unanswered only when the
	// profile was loaded with a name set out of band.
	if !p.HasAnswered(model.CategoryName) {
		return s.selection(model.CategoryName)
	}
	return Selection{Complete: true}
}

func (s *Selector) selection(c model.QuestionCategory) Selection {
	return Selection{Category: c, Text: s.template(c)}
}

func (s *Selector) template(c model.QuestionCategory) string {
	templates := catalog[c]
	switch len(templates) {
	case 0:
		return fmt.Sprintf("%s hakkında bilgi verebilir misiniz?", c)
	case 1:
		return templates[0]
	default:
		return templates[s.intn(len(templates))]
	}
}

// Template returns the first (deterministic) phrasing for a category; used
// as the canned fallback when the generation capability is unavailable.
func Template(c model.QuestionCategory) string {
	if templates := catalog[c]; len(templates) > 0 {
		return templates[0]
	}
	return fmt.Sprintf("%s hakkında bilgi verebilir misiniz?", c)
}
