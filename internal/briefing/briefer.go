package briefing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joelkehle/infringement-console/internal/analysis"
)

const systemPrompt = "You are a patent litigation analyst writing for in-house counsel. " +
	"Summarize infringement findings plainly, without legal conclusions, in at most three short paragraphs of Markdown."

var ErrNotConfigured = errors.New("ANTHROPIC_API_KEY not configured")

type Messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type ClientCreator func(apiKey string) Messager

func defaultCreator(apiKey string) Messager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newClient ClientCreator = defaultCreator

// Briefer writes a short executive brief for a saved report.
type Briefer struct {
	messages Messager
	model    anthropic.Model
}

func NewFromEnv() (*Briefer, error) {
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	return &Briefer{messages: newClient(apiKey), model: anthropic.ModelClaudeSonnet4_20250514}, nil
}

func (b *Briefer) Brief(ctx context.Context, r analysis.Report) (string, error) {
	resp, err := b.messages.New(ctx, anthropic.MessageNewParams{
		Model:       b.model,
		MaxTokens:   1024,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(Prompt(r)))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("brief report id=%s: %w", r.ID, err)
	}
	var sb strings.Builder
	for _, blk := range resp.Content {
		if blk.Type == "text" {
			sb.WriteString(blk.Text)
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("brief report id=%s: empty response", r.ID)
	}
	return out, nil
}

// Prompt lays out the report's findings for the model.
func Prompt(r analysis.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Patent: %s\n", r.PatentID)
	if t := strings.TrimSpace(r.PatentTitle); t != "" {
		fmt.Fprintf(&b, "Title: %s\n", t)
	}
	fmt.Fprintf(&b, "Company: %s\n", r.CompanyName)
	fmt.Fprintf(&b, "Overall risk: %s\n\n", r.OverallRiskAssessment)
	b.WriteString("Products, highest ranked first:\n")
	for i, p := range r.TopInfringingProducts {
		fmt.Fprintf(&b, "%d. %s (score %g, likelihood %s)\n", i+1, p.ProductName, p.InfringementScore, p.InfringementLikelihood)
		if len(p.RelevantClaims) > 0 {
			fmt.Fprintf(&b, "   claims: %s\n", strings.Join(p.RelevantClaims, ", "))
		}
		if e := strings.TrimSpace(p.Explanation); e != "" {
			fmt.Fprintf(&b, "   %s\n", e)
		}
	}
	b.WriteString("\nWrite the executive brief.")
	return b.String()
}
