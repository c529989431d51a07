package conversation

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interstellar-mare/advisor/internal/extract"
	"github.com/interstellar-mare/advisor/internal/llm"
	"github.com/interstellar-mare/advisor/internal/model"
	"github.com/interstellar-mare/advisor/internal/question"
	"github.com/interstellar-mare/advisor/internal/store"
	"github.com/interstellar-mare/advisor/internal/tier"
)

// memStore is an in-memory Store for orchestrator tests.
type memStore struct {
	mu            sync.Mutex
	profiles      map[string]*model.UserProfile
	conversations map[uuid.UUID]*model.Conversation
	failSave      bool
}

func newMemStore() *memStore {
	return &memStore{
		profiles:      make(map[string]*model.UserProfile),
		conversations: make(map[uuid.UUID]*model.Conversation),
	}
}

func (m *memStore) GetProfileBySession(ctx context.Context, sessionID string) (*model.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (m *memStore) SaveProfile(ctx context.Context, profile *model.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return eris.New("disk full")
	}
	m.profiles[profile.SessionID] = profile
	return nil
}

func (m *memStore) GetConversationByProfile(ctx context.Context, profileID uuid.UUID) (*model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[profileID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (m *memStore) SaveConversation(ctx context.Context, conv *model.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations[conv.ProfileID] = conv
	return nil
}

func (m *memStore) Migrate(ctx context.Context) error { return nil }
func (m *memStore) Close() error                      { return nil }

// recordingGenerator captures every request and answers with canned text.
type recordingGenerator struct {
	mu       sync.Mutex
	requests []llm.GenerateRequest
	reply    string
}

func (g *recordingGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	return g.reply, nil
}

func (g *recordingGenerator) GenerateStructured(ctx context.Context, req llm.GenerateRequest, out any) error {
	return eris.New("not used")
}

func newTestOrchestrator(st store.Store) *Orchestrator {
	return New(
		st,
		extract.New(""),
		question.NewWithRand(func(int) int { return 0 }),
		tier.New(nil),
		nil,
		Options{},
	)
}

func TestHandleMessage_FirstMessageBecomesName(t *testing.T) {
	st := newMemStore()
	o := newTestOrchestrator(st)
	ctx := context.Background()

	reply := o.HandleMessage(ctx, "s1", "Ahmet Yılmaz")
	assert.Equal(t, ResponseQuestion, reply.Type)
	assert.False(t, reply.IsComplete)
	// Name and surname arrived together, so the next question by priority
	// is the email address.
	assert.Equal(t, model.CategoryEmail, reply.Category)

	p, err := st.GetProfileBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Ahmet", p.Name)
	assert.Equal(t, "Yılmaz", p.Surname)
}

func TestHandleMessage_GreetingDoesNotConsumeQuestion(t *testing.T) {
	st := newMemStore()
	o := newTestOrchestrator(st)
	ctx := context.Background()

	first := o.HandleMessage(ctx, "s1", "merhaba")
	second := o.HandleMessage(ctx, "s1", "merhaba")

	assert.Equal(t, model.CategoryName, first.Category)
	assert.Equal(t, model.CategoryName, second.Category)

	p, err := st.GetProfileBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, p.Name)
}

func TestHandleMessage_AnswersTrackLastAskedCategory(t *testing.T) {
	st := newMemStore()
	o := newTestOrchestrator(st)
	ctx := context.Background()

	o.HandleMessage(ctx, "s1", "Ahmet Yılmaz")
	reply := o.HandleMessage(ctx, "s1", "ahmet@example.com")
	assert.Equal(t, model.CategoryHometown, reply.Category)

	reply = o.HandleMessage(ctx, "s1", "Trabzon")
	assert.Equal(t, model.CategoryProfession, reply.Category)

	p, err := st.GetProfileBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ahmet@example.com", p.Email)
	assert.Equal(t, "Trabzon", p.Hometown)
}

func TestHandleMessage_CompletionYieldsAnalysis(t *testing.T) {
	st := newMemStore()
	o := newTestOrchestrator(st)
	ctx := context.Background()

	answers := []string{
		"Ahmet Yılmaz",            // name + surname
		"ahmet@example.com",       // email
		"Trabzon",                 // hometown
		"Mühendisim",              // profession
		"evliyim",                 // marital status
		"2 çocuğum var",           // children
		"8.000.000 TL bütçem var", // estimated salary + budget
		"İstanbul",                // location
		"3 oda",                   // rooms
		"okullara yakın olsun",    // priorities
		"havuz ve spor salonu",    // social amenities
		"oturmak için",            // purchase purpose
		"yüzme ve koşu",           // hobbies
	}

	var reply Reply
	for _, answer := range answers {
		reply = o.HandleMessage(ctx, "s1", answer)
		require.NotEqual(t, ResponseError, reply.Type, "answer=%q", answer)
	}
	// Everything except the phone number is collected by now.
	assert.Equal(t, model.CategoryPhoneNumber, reply.Category)

	reply = o.HandleMessage(ctx, "s1", "0555 123 45 67")
	assert.Equal(t, ResponseAnalysis, reply.Type)
	assert.True(t, reply.IsComplete)
	assert.Empty(t, reply.Category)
	// A quoted 8M stretches to a 9.6M ceiling, landing in the mid tier.
	assert.Contains(t, reply.Response, "Konfor Paketi")
}

func TestHandleMessage_PhrasedQuestionUsesGenerator(t *testing.T) {
	gen := &recordingGenerator{reply: "Hoş geldiniz! Adınızı alabilir miyim?"}
	o := New(
		newMemStore(),
		extract.New(""),
		question.NewWithRand(func(int) int { return 0 }),
		tier.New(nil),
		gen,
		Options{},
	)

	reply := o.HandleMessage(context.Background(), "s1", "merhaba")
	assert.Equal(t, ResponseQuestion, reply.Type)
	assert.Equal(t, gen.reply, reply.Response)

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Equal(t, "chat", req.Phase)
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, 0.7, *req.Temperature, 1e-9)
}

func TestReply_CategorySerializesAsNullWhenAbsent(t *testing.T) {
	asked, err := json.Marshal(Reply{Type: ResponseQuestion, Category: model.CategoryEmail})
	require.NoError(t, err)
	assert.Contains(t, string(asked), `"category":"email"`)

	done, err := json.Marshal(Reply{Type: ResponseAnalysis, IsComplete: true})
	require.NoError(t, err)
	assert.Contains(t, string(done), `"category":null`)
}

func TestHandleMessage_FailureYieldsApology(t *testing.T) {
	st := newMemStore()
	st.failSave = true
	o := newTestOrchestrator(st)

	reply := o.HandleMessage(context.Background(), "s1", "Ahmet Yılmaz")
	assert.Equal(t, ResponseError, reply.Type)
	assert.False(t, reply.IsComplete)
	assert.Equal(t, apologyText, reply.Response)
}

func TestHandleMessage_ConcurrentSessionsDoNotInterfere(t *testing.T) {
	st := newMemStore()
	o := newTestOrchestrator(st)
	ctx := context.Background()

	var wg sync.WaitGroup
	names := map[string]string{
		"s1": "Ahmet Yılmaz",
		"s2": "Ayşe Demir",
		"s3": "Mehmet Kaya",
	}
	for session, name := range names {
		wg.Add(1)
		go func(session, name string) {
			defer wg.Done()
			o.HandleMessage(ctx, session, name)
		}(session, name)
	}
	wg.Wait()

	for session, name := range names {
		p, err := st.GetProfileBySession(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, name, p.FullName())
	}
}

func TestGetHistory(t *testing.T) {
	st := newMemStore()
	o := newTestOrchestrator(st)
	ctx := context.Background()

	o.HandleMessage(ctx, "s1", "Ahmet Yılmaz")

	h, err := o.GetHistory(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", h.SessionID)
	assert.Len(t, h.Messages, 2) // user turn + assistant question
	assert.Equal(t, "Ahmet Yılmaz", h.State.UserName)
	assert.False(t, h.State.IsComplete)
	assert.Greater(t, h.State.ProfileCompletion, 0.0)
}

func TestGetHistory_UnknownSession(t *testing.T) {
	o := newTestOrchestrator(newMemStore())

	_, err := o.GetHistory(context.Background(), "missing")
	assert.True(t, eris.Is(err, store.ErrNotFound))
}
