package briefing

import (
	"context"
	"errors"
	"strings"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joelkehle/infringement-console/internal/analysis"
)

type mockMessager struct {
	response *anthropic.Message
	err      error
	params   anthropic.MessageNewParams
}

func (m *mockMessager) New(_ context.Context, params anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	m.params = params
	return m.response, m.err
}

func withMockClient(mock *mockMessager) func() {
	old := newClient
	newClient = func(_ string) Messager { return mock }
	return func() { newClient = old }
}

func report() analysis.Report {
	return analysis.Report{
		ID:          "r-1",
		PatentID:    "US-1",
		PatentTitle: "Shopping cart",
		CompanyName: "Acme",
		TopInfringingProducts: []analysis.ProductFinding{
			{ProductName: "Cart+", InfringementScore: 88, InfringementLikelihood: "High", RelevantClaims: []string{"1"}},
		},
		OverallRiskAssessment: "High Risk",
	}
}

func TestNewFromEnvRequiresKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := NewFromEnv(); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestBrief(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	mock := &mockMessager{response: &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: "  Acme's Cart+ carries most of the risk.  "},
		},
	}}
	defer withMockClient(mock)()

	b, err := NewFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	got, err := b.Brief(context.Background(), report())
	if err != nil {
		t.Fatalf("brief: %v", err)
	}
	if got != "Acme's Cart+ carries most of the risk." {
		t.Fatalf("unexpected brief %q", got)
	}
	if len(mock.params.Messages) != 1 {
		t.Fatalf("expected one user message, got %d", len(mock.params.Messages))
	}
}

func TestBriefEmptyAndError(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	mock := &mockMessager{response: &anthropic.Message{Content: []anthropic.ContentBlockUnion{}}}
	defer withMockClient(mock)()

	b, _ := NewFromEnv()
	if _, err := b.Brief(context.Background(), report()); err == nil {
		t.Fatal("expected error for empty response")
	}
	mock.response, mock.err = nil, errors.New("status code: 529 overloaded")
	if _, err := b.Brief(context.Background(), report()); err == nil || !strings.Contains(err.Error(), "529") {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestPrompt(t *testing.T) {
	p := Prompt(report())
	for _, want := range []string{"Patent: US-1", "Title: Shopping cart", "Overall risk: High Risk", "1. Cart+ (score 88, likelihood High)", "claims: 1"} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}
}
