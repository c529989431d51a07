package tier

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/interstellar-mare/advisor/internal/extract"
	"github.com/interstellar-mare/advisor/internal/llm"
	"github.com/interstellar-mare/advisor/internal/model"
)

// Phase tells the caller whether the assessment is final guidance or the
// profile still needs discovery.
type Phase string

const (
	PhaseDiscovery Phase = "discovery"
	PhaseFinal     Phase = "final"
)

// Assessment is the classifier's output for one profile.
type Assessment struct {
	Phase       Phase    `json:"phase"`
	Tier        Tier     `json:"tier,omitempty"`
	NearUpgrade bool     `json:"near_upgrade"`
	Package     Package  `json:"package,omitempty"`
	Motivation  string   `json:"motivation,omitempty"`
	Hooks       []string `json:"hooks,omitempty"`
	Evaluation  string   `json:"evaluation,omitempty"`
	Insights    []string `json:"insights,omitempty"`
}

// assessTemperature keeps the structured deep assessment near-deterministic.
const assessTemperature = 0.2

// Salary thresholds (monthly, configured currency) for the no-budget path.
const (
	salaryTierC     = 300_000
	salaryTierB     = 150_000
	salaryNearTierC = 240_000
	salaryNearTierB = 120_000
)

var executiveProfessions = []string{
	"ceo", "genel mudur", "yonetim kurulu", "ust duzey", "is insani",
	"yatirimci", "cerrah", "pilot",
}

var specialistProfessions = []string{
	"muhendis", "doktor", "avukat", "mimar", "dis hekimi", "eczaci",
	"akademisyen", "yazilim",
}

// Classifier assigns a tier to a completed profile. A nil generator limits
// it to the deterministic heuristic.
type Classifier struct {
	gen llm.Generator
}

// New creates a Classifier. gen may be nil.
func New(gen llm.Generator) *Classifier {
	return &Classifier{gen: gen}
}

// Classify produces an assessment for the profile. An incomplete profile
// yields a discovery-phase result with no tier. When a generator is
// available, a structured deep assessment over the conversation may refine
// the heuristic; any generation failure falls back to the heuristic result.
func (c *Classifier) Classify(ctx context.Context, profile *model.UserProfile, conv *model.Conversation) Assessment {
	if !profile.IsComplete() {
		return Assessment{Phase: PhaseDiscovery}
	}

	t, nearUpgrade := Heuristic(profile)
	a := Assessment{
		Phase:       PhaseFinal,
		Tier:        t,
		NearUpgrade: nearUpgrade,
		Package:     PackageFor(t),
		Motivation:  MotivationFor(t),
		Hooks:       HooksFor(t),
	}

	if c.gen == nil || conv == nil {
		return a
	}
	if deep, err := c.deepAssess(ctx, profile, conv); err != nil {
		zap.L().Warn("tier: deep assessment failed, using heuristic",
			zap.String("session_id", profile.SessionID),
			zap.String("tier", string(t)),
			zap.Error(err),
		)
	} else {
		a.Tier = deep.tier
		a.Package = PackageFor(deep.tier)
		a.Motivation = MotivationFor(deep.tier)
		a.Evaluation = deep.Evaluation
		a.Insights = deep.Insights
		if len(deep.Hooks) > 0 {
			a.Hooks = deep.Hooks
		} else {
			a.Hooks = HooksFor(deep.tier)
		}
	}
	return a
}

// Heuristic returns the deterministic tier and near-upgrade flag. Exported
// so orchestration fallbacks can skip the generation step entirely.
func Heuristic(p *model.UserProfile) (Tier, bool) {
	if p.Budget != nil && p.Budget.MaxAmount > 0 {
		return budgetTier(p.Budget.MaxAmount)
	}
	if salary, ok := parseSalary(p.EstimatedSalary); ok {
		return salaryTier(salary, p.MaritalStatus)
	}
	return professionTier(p.Profession), false
}

func budgetTier(amount int64) (Tier, bool) {
	switch {
	case amount < TierAFloor:
		return TierA, true
	case amount < TierBFloor:
		return TierA, false
	case amount < TierCFloor:
		return TierB, false
	default:
		return TierC, false
	}
}

func salaryTier(salary int64, maritalStatus string) (Tier, bool) {
	switch {
	case salary >= salaryTierC:
		return TierC, false
	case salary >= salaryTierB:
		near := salary >= salaryNearTierC || isMarried(maritalStatus)
		return TierB, near
	default:
		return TierA, salary >= salaryNearTierB
	}
}

func professionTier(profession string) Tier {
	folded := extract.Fold(profession)
	for _, kw := range executiveProfessions {
		if strings.Contains(folded, kw) {
			return TierC
		}
	}
	for _, kw := range specialistProfessions {
		if strings.Contains(folded, kw) {
			return TierB
		}
	}
	return TierA
}

func isMarried(status string) bool {
	return strings.Contains(extract.Fold(status), "evli")
}

var digitsOnly = regexp.MustCompile(`\D`)

// parseSalary strips non-digits from the free-text salary field.
func parseSalary(s string) (int64, bool) {
	cleaned := digitsOnly.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// deepAssessment is the structured shape requested from the generator.
type deepAssessment struct {
	Tier       string   `json:"tier"`
	Evaluation string   `json:"evaluation"`
	Insights   []string `json:"insights"`
	Hooks      []string `json:"hooks"`

	tier Tier
}

const deepAssessSystem = `Sen deneyimli bir gayrimenkul danışmanısın. Sana bir
müşteri profili ve sohbet geçmişi verilecek. Müşteriyi A, B veya C segmentine
yerleştir (A: 9 milyon TL altı, B: 9-11 milyon TL, C: 11 milyon TL üzeri) ve
yalnızca şu alanlarla geçerli bir JSON nesnesi döndür:
{"tier": "A|B|C", "evaluation": "...", "insights": ["..."], "hooks": ["..."]}`

func (c *Classifier) deepAssess(ctx context.Context, profile *model.UserProfile, conv *model.Conversation) (*deepAssessment, error) {
	var b strings.Builder
	b.WriteString("Müşteri profili:\n")
	fmt.Fprintf(&b, "- İsim: %s\n", profile.FullName())
	fmt.Fprintf(&b, "- Meslek: %s\n", profile.Profession)
	fmt.Fprintf(&b, "- Tahmini gelir: %s\n", profile.EstimatedSalary)
	if profile.Budget != nil {
		fmt.Fprintf(&b, "- Bütçe: %d - %d %s\n",
			profile.Budget.MinAmount, profile.Budget.MaxAmount, profile.Budget.Currency)
	}
	if profile.Location != nil {
		fmt.Fprintf(&b, "- Hedef bölge: %s\n", profile.Location.City)
	}
	b.WriteString("\nSohbet geçmişi:\n")
	for _, msg := range conv.Messages {
		fmt.Fprintf(&b, "[%s] %s\n", msg.Role, msg.Content)
	}

	var out deepAssessment
	err := c.gen.GenerateStructured(ctx, llm.GenerateRequest{
		System:      deepAssessSystem,
		Messages:    llm.UserTurn(b.String()),
		Temperature: llm.Float(assessTemperature),
		Phase:       "tier",
	}, &out)
	if err != nil {
		return nil, err
	}

	declared := strings.ToUpper(strings.TrimSpace(out.Tier))
	if !ValidTier(declared) {
		return nil, eris.Errorf("tier: model declared unknown tier %q", out.Tier)
	}
	out.tier = Tier(declared)
	return &out, nil
}
