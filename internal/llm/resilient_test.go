package llm

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyGenerator fails a fixed number of times before succeeding.
type flakyGenerator struct {
	failures int
	err      error
	calls    int
}

func (f *flakyGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", f.err
	}
	return "tamam", nil
}

func (f *flakyGenerator) GenerateStructured(ctx context.Context, req GenerateRequest, out any) error {
	_, err := f.Generate(ctx, req)
	return err
}

func fastResilient(inner Generator) *ResilientGenerator {
	return NewResilientGenerator(inner, ResilientConfig{
		Timeout:     time.Second,
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
	})
}

func TestResilient_RetriesTimeouts(t *testing.T) {
	inner := &flakyGenerator{failures: 2, err: context.DeadlineExceeded}
	g := fastResilient(inner)

	got, err := g.Generate(context.Background(), GenerateRequest{Phase: "chat"})
	require.NoError(t, err)
	assert.Equal(t, "tamam", got)
	assert.Equal(t, 3, inner.calls)
}

func TestResilient_RetriesMalformedStructuredOutput(t *testing.T) {
	inner := &flakyGenerator{failures: 1, err: eris.New("llm: decode structured response")}
	g := fastResilient(inner)

	var out struct{}
	err := g.GenerateStructured(context.Background(), GenerateRequest{Phase: "tier"}, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestResilient_DoesNotRetryPermanentErrors(t *testing.T) {
	inner := &flakyGenerator{failures: 5, err: eris.New("invalid api key")}
	g := fastResilient(inner)

	_, err := g.Generate(context.Background(), GenerateRequest{Phase: "chat"})
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

// staleWriteGenerator writes a partial result before failing, then succeeds
// with a payload that does not mention the earlier field.
type staleWriteGenerator struct {
	calls int
}

func (s *staleWriteGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	return "", eris.New("not used")
}

func (s *staleWriteGenerator) GenerateStructured(ctx context.Context, req GenerateRequest, out any) error {
	s.calls++
	v := out.(*struct {
		Tier       string `json:"tier"`
		Evaluation string `json:"evaluation"`
	})
	if s.calls == 1 {
		v.Evaluation = "yarım kalan deneme"
		return eris.New("llm: decode structured response")
	}
	v.Tier = "B"
	return nil
}

func TestResilient_StructuredRetryDoesNotKeepStaleFields(t *testing.T) {
	inner := &staleWriteGenerator{}
	g := fastResilient(inner)

	var out struct {
		Tier       string `json:"tier"`
		Evaluation string `json:"evaluation"`
	}
	err := g.GenerateStructured(context.Background(), GenerateRequest{Phase: "tier"}, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, "B", out.Tier)
	assert.Empty(t, out.Evaluation)
}

func TestResilient_StructuredTargetMustBePointer(t *testing.T) {
	g := fastResilient(&flakyGenerator{})

	var out struct{}
	err := g.GenerateStructured(context.Background(), GenerateRequest{Phase: "tier"}, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-nil pointer")
}

func TestResilient_ExhaustedRetriesReturnLastError(t *testing.T) {
	inner := &flakyGenerator{failures: 10, err: context.DeadlineExceeded}
	g := fastResilient(inner)

	_, err := g.Generate(context.Background(), GenerateRequest{Phase: "chat"})
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"tier":"A"}`, `{"tier":"A"}`},
		{"fenced", "```json\n{\"tier\":\"A\"}\n```", `{"tier":"A"}`},
		{"fence no lang", "```\n[1,2]\n```", "[1,2]"},
		{"prose prefix", `İşte sonuç: {"tier":"B"}`, `{"tier":"B"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.in))
		})
	}
}
