// Package conversation ties profile extraction, question selection, and
// tier classification together for each inbound message.
package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/interstellar-mare/advisor/internal/extract"
	"github.com/interstellar-mare/advisor/internal/llm"
	"github.com/interstellar-mare/advisor/internal/model"
	"github.com/interstellar-mare/advisor/internal/question"
	"github.com/interstellar-mare/advisor/internal/store"
	"github.com/interstellar-mare/advisor/internal/tier"
)

// ResponseType labels what kind of reply the orchestrator produced.
type ResponseType string

const (
	ResponseQuestion ResponseType = "question"
	ResponseAnalysis ResponseType = "analysis"
	ResponseError    ResponseType = "error"
)

// apologyText is the canned reply when anything inside a turn fails. The
// user always gets a natural sentence back, never an error code.
const apologyText = "Pardon, bir aksaklık oldu. Devam edelim mi?"

// chatTemperature keeps phrased questions and analysis wraps conversational
// without drifting from the template content.
const chatTemperature = 0.7

// Reply is the orchestrator's output contract for one message.
type Reply struct {
	Response   string                 `json:"response"`
	Type       ResponseType           `json:"type"`
	IsComplete bool                   `json:"is_complete"`
	Category   model.QuestionCategory `json:"-"`
}

// MarshalJSON emits the category key as null when no question is pending.
func (r Reply) MarshalJSON() ([]byte, error) {
	type alias Reply
	wire := struct {
		alias
		Category *model.QuestionCategory `json:"category"`
	}{alias: alias(r)}
	if r.Category != "" {
		wire.Category = &r.Category
	}
	return json.Marshal(wire)
}

// HistoryState summarizes the profile alongside the transcript.
type HistoryState struct {
	IsComplete        bool    `json:"is_complete"`
	UserName          string  `json:"user_name,omitempty"`
	ProfileCompletion float64 `json:"profile_completion"`
}

// History is the transcript plus profile state for one session.
type History struct {
	SessionID string          `json:"session_id"`
	Messages  []model.Message `json:"messages"`
	State     HistoryState    `json:"state"`
}

// Options tunes orchestrator behavior.
type Options struct {
	// AssistantName is the persona used in generation prompts.
	AssistantName string
	// HistoryWindow is how many recent messages feed the phrasing prompt.
	HistoryWindow int
	// DisablePhrased skips the generation step and always uses the
	// deterministic templates. Useful for offline operation.
	DisablePhrased bool
}

func (o Options) withDefaults() Options {
	if o.AssistantName == "" {
		o.AssistantName = "Ayşe"
	}
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = 10
	}
	return o
}

// Orchestrator handles one session turn at a time. Turns for the same
// session are serialized; distinct sessions proceed concurrently.
type Orchestrator struct {
	store      store.Store
	extractor  *extract.Extractor
	selector   *question.Selector
	classifier *tier.Classifier
	gen        llm.Generator
	opts       Options
	sessions   *sessionLocks
}

// New creates an Orchestrator. gen may be nil; every generation step then
// falls back to deterministic output.
func New(st store.Store, ex *extract.Extractor, sel *question.Selector, cl *tier.Classifier, gen llm.Generator, opts Options) *Orchestrator {
	return &Orchestrator{
		store:      st,
		extractor:  ex,
		selector:   sel,
		classifier: cl,
		gen:        gen,
		opts:       opts.withDefaults(),
		sessions:   newSessionLocks(),
	}
}

// HandleMessage runs one full turn for a session. It never returns an
// error to the caller: any internal failure is logged and mapped to the
// canned apology reply.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID, message string) Reply {
	release := o.sessions.acquire(sessionID)
	defer release()

	reply, err := o.process(ctx, sessionID, message)
	if err != nil {
		zap.L().Error("turn failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return Reply{Response: apologyText, Type: ResponseError}
	}
	return reply
}

func (o *Orchestrator) process(ctx context.Context, sessionID, message string) (Reply, error) {
	profile, conv, err := o.getOrCreate(ctx, sessionID)
	if err != nil {
		return Reply{}, err
	}

	if err := conv.AddUserMessage(message); err != nil {
		return Reply{}, err
	}

	lastAsked := conv.LastAskedCategory()
	result := o.extractor.Apply(profile, message, lastAsked)
	if len(result.Answered) > 0 {
		zap.L().Debug("message answered categories",
			zap.String("session_id", sessionID),
			zap.Any("categories", result.Answered),
		)
	}

	if err := o.store.SaveProfile(ctx, profile); err != nil {
		return Reply{}, err
	}

	var reply Reply
	if question.StateOf(profile) == question.StateCollecting {
		reply = o.askNext(ctx, profile, conv, result.Greeting)
	} else {
		reply = o.analyze(ctx, profile, conv)
	}

	var metadata map[string]string
	if reply.Category != "" {
		metadata = map[string]string{model.MetadataCategory: string(reply.Category)}
	}
	if err := conv.AddAssistantMessage(reply.Response, metadata); err != nil {
		return Reply{}, err
	}
	if err := o.store.SaveConversation(ctx, conv); err != nil {
		return Reply{}, err
	}

	return reply, nil
}

func (o *Orchestrator) getOrCreate(ctx context.Context, sessionID string) (*model.UserProfile, *model.Conversation, error) {
	profile, err := o.store.GetProfileBySession(ctx, sessionID)
	if eris.Is(err, store.ErrNotFound) {
		profile = model.NewUserProfile(sessionID)
		err = nil
	}
	if err != nil {
		return nil, nil, err
	}

	conv, err := o.store.GetConversationByProfile(ctx, profile.ID)
	if eris.Is(err, store.ErrNotFound) {
		conv = model.NewConversation(profile.ID)
		err = nil
	}
	if err != nil {
		return nil, nil, err
	}
	return profile, conv, nil
}

func (o *Orchestrator) askNext(ctx context.Context, profile *model.UserProfile, conv *model.Conversation, greeted bool) Reply {
	sel := o.selector.Next(profile)
	if sel.Complete {
		// Collecting state with nothing to ask should not happen; treat
		// it as readiness.
		return o.analyze(ctx, profile, conv)
	}

	text := sel.Text
	if phrased, err := o.phraseQuestion(ctx, profile, conv, sel, greeted); err != nil {
		zap.L().Warn("question phrasing failed, using template",
			zap.String("session_id", profile.SessionID),
			zap.String("category", string(sel.Category)),
			zap.Error(err),
		)
	} else if phrased != "" {
		text = phrased
	}

	return Reply{
		Response:   text,
		Type:       ResponseQuestion,
		IsComplete: false,
		Category:   sel.Category,
	}
}

func (o *Orchestrator) phraseQuestion(ctx context.Context, profile *model.UserProfile, conv *model.Conversation, sel question.Selection, greeted bool) (string, error) {
	if o.gen == nil || o.opts.DisablePhrased {
		return "", nil
	}

	var b strings.Builder
	if greeted {
		b.WriteString("Kullanıcı az önce selam verdi; önce kısaca selamına karşılık ver.\n")
	}
	b.WriteString("Son mesajlar:\n")
	for _, msg := range conv.RecentMessages(o.opts.HistoryWindow) {
		fmt.Fprintf(&b, "[%s] %s\n", msg.Role, msg.Content)
	}
	fmt.Fprintf(&b, "\nSıradaki soruyu doğal ve samimi bir cümleyle sor: %q", sel.Text)

	return o.gen.Generate(ctx, llm.GenerateRequest{
		System:      o.personaPrompt(profile),
		Messages:    llm.UserTurn(b.String()),
		Temperature: llm.Float(chatTemperature),
		Phase:       "chat",
	})
}

func (o *Orchestrator) analyze(ctx context.Context, profile *model.UserProfile, conv *model.Conversation) Reply {
	assessment := o.classifier.Classify(ctx, profile, conv)
	if assessment.Phase == tier.PhaseDiscovery {
		// Not enough profile for guidance; fall back to the question flow.
		sel := o.selector.Next(profile)
		if !sel.Complete {
			return Reply{Response: sel.Text, Type: ResponseQuestion, Category: sel.Category}
		}
	}

	text := renderAssessment(profile, assessment)
	if o.gen != nil {
		wrapped, err := o.gen.Generate(ctx, llm.GenerateRequest{
			System: o.personaPrompt(profile),
			Messages: llm.UserTurn(
				"Aşağıdaki değerlendirmeyi kullanıcıya sıcak, akıcı bir dille aktar:\n\n" + text,
			),
			Temperature: llm.Float(chatTemperature),
			Phase:       "analysis",
		})
		if err != nil {
			zap.L().Warn("analysis wrapping failed, using deterministic text",
				zap.String("session_id", profile.SessionID),
				zap.Error(err),
			)
		} else if wrapped != "" {
			text = wrapped
		}
	}

	return Reply{
		Response:   text,
		Type:       ResponseAnalysis,
		IsComplete: true,
	}
}

// renderAssessment builds the deterministic guidance text shown when the
// generation capability is unavailable.
func renderAssessment(profile *model.UserProfile, a tier.Assessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, profiliniz tamamlandı. Size en uygun seçenek: %s (%s).\n",
		profile.FullName(), a.Package.Name, a.Package.BudgetRange)
	fmt.Fprintf(&b, "Odak: %s\n", a.Package.Focus)
	if a.Evaluation != "" {
		b.WriteString(a.Evaluation)
		b.WriteString("\n")
	}
	if a.Motivation != "" {
		b.WriteString(a.Motivation)
		b.WriteString("\n")
	}
	if a.NearUpgrade {
		b.WriteString("Küçük bir bütçe artışıyla bir üst segmentteki projeler de erişiminize girebilir.\n")
	}
	for _, hook := range a.Hooks {
		fmt.Fprintf(&b, "- %s\n", hook)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (o *Orchestrator) personaPrompt(profile *model.UserProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sen %s adında deneyimli ve samimi bir gayrimenkul danışmanısın. ", o.opts.AssistantName)
	b.WriteString("Türkçe konuşuyorsun, kısa ve doğal cümleler kuruyorsun, abartılı övgüden kaçınıyorsun. ")
	b.WriteString("Her seferinde tek bir soru soruyorsun.")
	if profile.Name != "" {
		fmt.Fprintf(&b, " Müşterinin adı %s.", profile.Name)
	}
	return b.String()
}

// GetHistory returns the transcript and profile state for a session.
func (o *Orchestrator) GetHistory(ctx context.Context, sessionID string) (*History, error) {
	profile, err := o.store.GetProfileBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	conv, err := o.store.GetConversationByProfile(ctx, profile.ID)
	if eris.Is(err, store.ErrNotFound) {
		conv = model.NewConversation(profile.ID)
		err = nil
	}
	if err != nil {
		return nil, err
	}

	return &History{
		SessionID: sessionID,
		Messages:  conv.Messages,
		State: HistoryState{
			IsComplete:        profile.IsComplete(),
			UserName:          profile.FullName(),
			ProfileCompletion: profile.CompletionRatio(),
		},
	}, nil
}
