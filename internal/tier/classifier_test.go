package tier

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interstellar-mare/advisor/internal/llm"
	"github.com/interstellar-mare/advisor/internal/model"
)

func readyProfile(t *testing.T) *model.UserProfile {
	t.Helper()
	p := model.NewUserProfile("s1")
	p.SetName("Ahmet")
	p.SetSurname("Yılmaz")
	p.SetProfession("Öğretmen")
	p.SetEstimatedSalary("100.000 TL")
	loc, err := model.NewLocation("İstanbul", "", "")
	require.NoError(t, err)
	p.SetLocation(loc)
	return p
}

func withBudget(t *testing.T, p *model.UserProfile, maxAmount int64) *model.UserProfile {
	t.Helper()
	b, err := model.NewBudget(0, maxAmount, "")
	require.NoError(t, err)
	p.SetBudget(b)
	return p
}

func TestHeuristic_BudgetBoundaries(t *testing.T) {
	tests := []struct {
		budget      int64
		wantTier    Tier
		wantUpgrade bool
	}{
		{6_999_999, TierA, true},
		{7_000_000, TierA, false},
		{8_999_999, TierA, false},
		{9_000_000, TierB, false},
		{10_999_999, TierB, false},
		{11_000_000, TierC, false},
		{25_000_000, TierC, false},
	}
	for _, tt := range tests {
		p := withBudget(t, readyProfile(t), tt.budget)
		tier, near := Heuristic(p)
		assert.Equal(t, tt.wantTier, tier, "budget=%d", tt.budget)
		assert.Equal(t, tt.wantUpgrade, near, "budget=%d", tt.budget)
	}
}

func TestHeuristic_SalaryFallback(t *testing.T) {
	tests := []struct {
		salary      string
		marital     string
		wantTier    Tier
		wantUpgrade bool
	}{
		{"350.000 TL", "", TierC, false},
		{"300000", "", TierC, false},
		{"200.000 TL", "", TierB, false},
		{"250.000 TL", "", TierB, true},
		{"160.000 TL", "evli", TierB, true},
		{"100.000 TL", "", TierA, false},
		{"130.000 TL", "", TierA, true},
	}
	for _, tt := range tests {
		p := readyProfile(t)
		p.SetEstimatedSalary(tt.salary)
		if tt.marital != "" {
			p.SetMaritalStatus(tt.marital)
		}
		tier, near := Heuristic(p)
		assert.Equal(t, tt.wantTier, tier, "salary=%s", tt.salary)
		assert.Equal(t, tt.wantUpgrade, near, "salary=%s", tt.salary)
	}
}

func TestHeuristic_ProfessionFallback(t *testing.T) {
	tests := []struct {
		profession string
		want       Tier
	}{
		{"Genel Müdür", TierC},
		{"yatırımcı", TierC},
		{"Yazılım Mühendisi", TierB},
		{"Diş Hekimi", TierB},
		{"Öğretmen", TierA},
	}
	for _, tt := range tests {
		p := readyProfile(t)
		p.EstimatedSalary = "belirtmek istemiyorum"
		p.SetProfession(tt.profession)
		tier, near := Heuristic(p)
		assert.Equal(t, tt.want, tier, "profession=%s", tt.profession)
		assert.False(t, near)
	}
}

func TestClassify_IncompleteProfileIsDiscovery(t *testing.T) {
	c := New(nil)
	p := model.NewUserProfile("s1")

	a := c.Classify(context.Background(), p, nil)
	assert.Equal(t, PhaseDiscovery, a.Phase)
	assert.Empty(t, a.Tier)
}

func TestClassify_HeuristicOnly(t *testing.T) {
	c := New(nil)
	p := withBudget(t, readyProfile(t), 9_500_000)

	a := c.Classify(context.Background(), p, nil)
	assert.Equal(t, PhaseFinal, a.Phase)
	assert.Equal(t, TierB, a.Tier)
	assert.Equal(t, "Konfor Paketi", a.Package.Name)
	assert.NotEmpty(t, a.Motivation)
	assert.NotEmpty(t, a.Hooks)
}

// stubGenerator returns a fixed structured payload or an error.
type stubGenerator struct {
	structured map[string]any
	err        error
	calls      int
}

func (s *stubGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	return "", eris.New("not used")
}

func (s *stubGenerator) GenerateStructured(ctx context.Context, req llm.GenerateRequest, out any) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	da := out.(*deepAssessment)
	if v, ok := s.structured["tier"].(string); ok {
		da.Tier = v
	}
	if v, ok := s.structured["evaluation"].(string); ok {
		da.Evaluation = v
	}
	return nil
}

func TestClassify_DeepAssessmentSupersedesHeuristic(t *testing.T) {
	gen := &stubGenerator{structured: map[string]any{"tier": "c", "evaluation": "yüksek potansiyel"}}
	c := New(gen)
	p := withBudget(t, readyProfile(t), 8_000_000)
	conv := model.NewConversation(p.ID)

	a := c.Classify(context.Background(), p, conv)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, TierC, a.Tier)
	assert.Equal(t, "Prestij Paketi", a.Package.Name)
	assert.Equal(t, "yüksek potansiyel", a.Evaluation)
}

func TestClassify_DeepAssessmentFailureFallsBack(t *testing.T) {
	gen := &stubGenerator{err: eris.New("timeout")}
	c := New(gen)
	p := withBudget(t, readyProfile(t), 8_000_000)
	conv := model.NewConversation(p.ID)

	a := c.Classify(context.Background(), p, conv)
	assert.Equal(t, TierA, a.Tier)
	assert.Empty(t, a.Evaluation)
}

func TestClassify_InvalidDeclaredTierFallsBack(t *testing.T) {
	gen := &stubGenerator{structured: map[string]any{"tier": "Z"}}
	c := New(gen)
	p := withBudget(t, readyProfile(t), 12_000_000)
	conv := model.NewConversation(p.ID)

	a := c.Classify(context.Background(), p, conv)
	assert.Equal(t, TierC, a.Tier)
}
