package question

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interstellar-mare/advisor/internal/model"
)

func TestNext_NameAskedFirst(t *testing.T) {
	s := NewWithRand(func(int) int { return 0 })
	p := model.NewUserProfile("s1")

	sel := s.Next(p)
	assert.Equal(t, model.CategoryName, sel.Category)
	assert.NotEmpty(t, sel.Text)
	assert.False(t, sel.Complete)
}

func TestNext_FollowsPriorityOrder(t *testing.T) {
	s := NewWithRand(func(int) int { return 0 })
	p := model.NewUserProfile("s1")
	p.SetName("Ahmet")
	p.SetSurname("Yılmaz")

	want := []model.QuestionCategory{
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
	for _, expected := range want {
		sel := s.Next(p)
		require.Equal(t, expected, sel.Category)
		p.MarkAnswered(sel.Category)
	}

	sel := s.Next(p)
	assert.True(t, sel.Complete)
	assert.Empty(t, sel.Category)
	assert.Empty(t, sel.Text)
}

func TestNext_CategoryIndependentOfTemplateVariant(t *testing.T) {
	p := model.NewUserProfile("s1")
	p.SetName("Ahmet")

	first := NewWithRand(func(int) int { return 0 }).Next(p)
	last := NewWithRand(func(n int) int { return n - 1 }).Next(p)
	assert.Equal(t, first.Category, last.Category)
}

func TestNext_DeterministicForSameProfile(t *testing.T) {
	s := New()
	p := model.NewUserProfile("s1")
	p.SetName("Ahmet")
	p.SetProfession("Mühendis")

	want := s.Next(p).Category
	for i := 0; i < 10; i++ {
		assert.Equal(t, want, s.Next(p).Category)
	}
}

func TestStateOf(t *testing.T) {
	p := model.NewUserProfile("s1")
	assert.Equal(t, StateCollecting, StateOf(p))

	for _, c := range model.AllCategories() {
		p.MarkAnswered(c)
	}
	assert.Equal(t, StateReady, StateOf(p))
}

func TestCatalog_CoversEveryCategory(t *testing.T) {
	for _, c := range model.AllCategories() {
		assert.NotEmpty(t, catalog[c], "category %s has no templates", c)
	}
}

func TestTemplate_Deterministic(t *testing.T) {
	first := Template(model.CategoryEmail)
	assert.NotEmpty(t, first)
	assert.Equal(t, first, Template(model.CategoryEmail))
}
