package reportstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/joelkehle/infringement-console/internal/analysis"
	"github.com/joelkehle/infringement-console/internal/apiclient"
)

var (
	ErrSaveFailed     = errors.New("save report failed")
	ErrFetchFailed    = errors.New("fetch reports failed")
	ErrReportNotFound = errors.New("report not found")
)

type Outcome string

const (
	OutcomeSaved        Outcome = "saved"
	OutcomeAlreadySaved Outcome = "already_saved"
	OutcomeFailed       Outcome = "failed"
)

// SavedSet records which (patent, company) pairs a session has saved. It is
// owned by one session and never reconciled with the backend, so a pair saved
// from another session, or before a restart, is not known here.
type SavedSet struct {
	serial sync.Mutex // held for the whole of one Save
	mu     sync.RWMutex
	keys   map[analysis.PairKey]struct{}
}

func NewSavedSet() *SavedSet {
	return &SavedSet{keys: make(map[analysis.PairKey]struct{})}
}

func (s *SavedSet) Has(key analysis.PairKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[key]
	return ok
}

func (s *SavedSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

func (s *SavedSet) mark(key analysis.PairKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = struct{}{}
}

// Backend is the subset of the API client the store needs.
type Backend interface {
	SaveReport(ctx context.Context, report analysis.Report) error
	ListReports(ctx context.Context) ([]analysis.Report, error)
	GetReport(ctx context.Context, id string) (*analysis.Report, error)
}

type Store struct {
	backend Backend
}

func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Save persists report unless its pair is already in saved. The pair is
// marked only after the backend confirms the write.
func (s *Store) Save(ctx context.Context, saved *SavedSet, report analysis.Report) (Outcome, error) {
	saved.serial.Lock()
	defer saved.serial.Unlock()

	key := report.Key()
	if saved.Has(key) {
		return OutcomeAlreadySaved, nil
	}
	if err := s.backend.SaveReport(ctx, report); err != nil {
		log.Printf("save report failed id=%s pair=%q err=%v", report.ID, key.String(), err)
		return OutcomeFailed, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	saved.mark(key)
	log.Printf("report saved id=%s pair=%q", report.ID, key.String())
	return OutcomeSaved, nil
}

// FetchAll returns every saved report, newest first.
func (s *Store) FetchAll(ctx context.Context) ([]analysis.Report, error) {
	reports, err := s.backend.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return analysis.SortByRecency(reports), nil
}

func (s *Store) Get(ctx context.Context, id string) (*analysis.Report, error) {
	report, err := s.backend.GetReport(ctx, id)
	if apiclient.IsStatus(err, http.StatusNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return report, nil
}
