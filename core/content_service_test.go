package core

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathway-gateway/core/adapter"
	"pathway-gateway/core/failover"
)

type fakeGenerator struct {
	mu     sync.Mutex
	errs   map[string]error
	text   string
	keys   []string
	params []adapter.GenerateParams
}

func (g *fakeGenerator) GenerateContent(_ context.Context, apiKey string, p adapter.GenerateParams) (*adapter.GenerateResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.keys = append(g.keys, apiKey)
	g.params = append(g.params, p)
	if err := g.errs[apiKey]; err != nil {
		return nil, err
	}
	return &adapter.GenerateResult{Model: p.Model, Text: g.text}, nil
}

func geminiFailover(keys ...string) *failover.Failover {
	pool := failover.NewKeyPool(adapter.ProviderGemini, keys)
	return failover.New(pool, failover.NewShuffleStrategy(rand.New(rand.NewPCG(1, 2))), adapter.ClassifyGemini)
}

func TestContentService_DefaultModel(t *testing.T) {
	gen := &fakeGenerator{text: "hi"}
	svc := NewContentService(gen, geminiFailover("G1"), "", quietLogger())
	assert.Equal(t, adapter.DefaultGeminiModel, svc.DefaultModel())

	res, err := svc.Generate(context.Background(), adapter.GenerateParams{Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Text)
	assert.Equal(t, adapter.DefaultGeminiModel, gen.params[0].Model)

	_, err = svc.Generate(context.Background(), adapter.GenerateParams{Prompt: "hello", Model: "gemini-2.0-pro"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-pro", gen.params[1].Model)
}

func TestContentService_EmptyPrompt(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewContentService(gen, geminiFailover("G1"), "m", quietLogger())

	_, err := svc.Generate(context.Background(), adapter.GenerateParams{Prompt: "  "})
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Empty(t, gen.keys)
}

func TestContentService_TextualMarkerRetries(t *testing.T) {
	gen := &fakeGenerator{
		errs: map[string]error{
			"G1": errors.New("googleapi: Error 429: Resource has been exhausted"),
			"G2": errors.New("upstream said 503 Service Unavailable"),
		},
		text: "ok",
	}
	pool := failover.NewKeyPool(adapter.ProviderGemini, []string{"G1", "G2", "G3"})
	fo := failover.New(pool, &failover.FallbackStrategy{}, adapter.ClassifyGemini)
	svc := NewContentService(gen, fo, "m", quietLogger())

	res, err := svc.Generate(context.Background(), adapter.GenerateParams{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)
	assert.Equal(t, []string{"G1", "G2", "G3"}, gen.keys)
}

func TestContentService_Terminal(t *testing.T) {
	gen := &fakeGenerator{errs: map[string]error{
		"G1": &adapter.ProviderError{Provider: adapter.ProviderGemini, StatusCode: 400, Message: "invalid argument"},
		"G2": &adapter.ProviderError{Provider: adapter.ProviderGemini, StatusCode: 400, Message: "invalid argument"},
	}}
	svc := NewContentService(gen, geminiFailover("G1", "G2"), "m", quietLogger())

	_, err := svc.Generate(context.Background(), adapter.GenerateParams{Prompt: "p"})
	assert.ErrorIs(t, err, failover.ErrTerminal)
	assert.Len(t, gen.keys, 1)
}

func TestContentService_Exhausted(t *testing.T) {
	gen := &fakeGenerator{errs: map[string]error{
		"G1": &adapter.ProviderError{Provider: adapter.ProviderGemini, StatusCode: 429},
		"G2": &adapter.ProviderError{Provider: adapter.ProviderGemini, StatusCode: 503},
	}}
	svc := NewContentService(gen, geminiFailover("G1", "G2"), "m", quietLogger())

	_, err := svc.Generate(context.Background(), adapter.GenerateParams{Prompt: "p"})
	assert.ErrorIs(t, err, failover.ErrPoolExhausted)
	assert.Equal(t, 2, failover.AttemptCount(err))
	assert.ElementsMatch(t, []string{"G1", "G2"}, gen.keys)
}
