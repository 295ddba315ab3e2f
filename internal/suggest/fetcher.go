package suggest

import (
	"context"
	"log"
	"unicode/utf8"

	"github.com/joelkehle/infringement-console/internal/analysis"
	"github.com/joelkehle/infringement-console/internal/apiclient"
)

// MinQueryLen is the shortest query, in characters, that reaches the backend.
const MinQueryLen = 2

type Kind string

const (
	KindPatent  Kind = "patent"
	KindCompany Kind = "company"
)

// Backend is the subset of the API client the fetcher needs.
type Backend interface {
	SuggestPatents(ctx context.Context, text string) ([]analysis.PatentSuggestion, error)
	SuggestCompanies(ctx context.Context, text string) ([]analysis.CompanySuggestion, error)
}

// Fetcher turns partial input into suggestion lists. Lookups are never
// coalesced, cached or debounced; ordering is the caller's job (see Field).
type Fetcher struct {
	backend Backend
}

func NewFetcher(backend Backend) *Fetcher {
	return &Fetcher{backend: backend}
}

// Patents returns up to apiclient.SuggestLimit patent suggestions. ok is false
// when the lookup failed and the caller should keep its current list.
func (f *Fetcher) Patents(ctx context.Context, text string) ([]analysis.PatentSuggestion, bool) {
	if tooShort(text) {
		return []analysis.PatentSuggestion{}, true
	}
	items, err := f.backend.SuggestPatents(ctx, text)
	if err != nil {
		logFailure(KindPatent, text, err)
		return nil, false
	}
	return capped(items), true
}

// Companies is Patents for company names.
func (f *Fetcher) Companies(ctx context.Context, text string) ([]analysis.CompanySuggestion, bool) {
	if tooShort(text) {
		return []analysis.CompanySuggestion{}, true
	}
	items, err := f.backend.SuggestCompanies(ctx, text)
	if err != nil {
		logFailure(KindCompany, text, err)
		return nil, false
	}
	return capped(items), true
}

func tooShort(text string) bool {
	return utf8.RuneCountInString(text) < MinQueryLen
}

func capped[T any](items []T) []T {
	if len(items) > apiclient.SuggestLimit {
		items = items[:apiclient.SuggestLimit]
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}

func logFailure(kind Kind, text string, err error) {
	log.Printf("suggestion lookup failed kind=%s query=%q err=%v", kind, text, err)
}
