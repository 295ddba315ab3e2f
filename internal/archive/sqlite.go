package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/joelkehle/infringement-console/internal/analysis"
)

var ErrNotFound = errors.New("report not archived")

// Archive is a local SQLite mirror of saved reports. The backend stays the
// system of record; the archive only ever upserts what it is given.
type Archive struct {
	db    *sqlx.DB
	clock func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id                      TEXT PRIMARY KEY,
	created_at              TEXT NOT NULL DEFAULT '',
	patent_id               TEXT NOT NULL,
	patent_title            TEXT NOT NULL DEFAULT '',
	company_name            TEXT NOT NULL,
	overall_risk_assessment TEXT NOT NULL DEFAULT '',
	payload                 TEXT NOT NULL,
	archived_at             TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS reports_pair ON reports (patent_id, company_name);
`

type row struct {
	ID                    string `db:"id"`
	CreatedAt             string `db:"created_at"`
	PatentID              string `db:"patent_id"`
	PatentTitle           string `db:"patent_title"`
	CompanyName           string `db:"company_name"`
	OverallRiskAssessment string `db:"overall_risk_assessment"`
	Payload               string `db:"payload"`
	ArchivedAt            string `db:"archived_at"`
}

func Open(dbPath string, clock func() time.Time) (*Archive, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if clock == nil {
		clock = time.Now
	}
	return &Archive{db: db, clock: clock}, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

// Upsert stores each report, replacing any earlier copy with the same id.
// It returns how many rows were written.
func (a *Archive) Upsert(ctx context.Context, reports []analysis.Report) (int, error) {
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	archivedAt := a.clock().UTC().Format(time.RFC3339Nano)
	n := 0
	for _, r := range reports {
		payload, err := json.Marshal(r)
		if err != nil {
			return 0, fmt.Errorf("marshal report id=%s: %w", r.ID, err)
		}
		_, err = tx.NamedExecContext(ctx, `INSERT OR REPLACE INTO reports
			(id, created_at, patent_id, patent_title, company_name, overall_risk_assessment, payload, archived_at)
			VALUES (:id, :created_at, :patent_id, :patent_title, :company_name, :overall_risk_assessment, :payload, :archived_at)`,
			row{
				ID:                    r.ID,
				CreatedAt:             r.CreatedAt,
				PatentID:              r.PatentID,
				PatentTitle:           r.PatentTitle,
				CompanyName:           r.CompanyName,
				OverallRiskAssessment: r.OverallRiskAssessment,
				Payload:               string(payload),
				ArchivedAt:            archivedAt,
			})
		if err != nil {
			return 0, fmt.Errorf("upsert report id=%s: %w", r.ID, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// List returns every archived report, newest first.
func (a *Archive) List(ctx context.Context) ([]analysis.Report, error) {
	var rows []row
	if err := a.db.SelectContext(ctx, &rows, `SELECT * FROM reports`); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	out := make([]analysis.Report, 0, len(rows))
	for _, r := range rows {
		rep, err := r.report()
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return analysis.SortByRecency(out), nil
}

func (a *Archive) Get(ctx context.Context, id string) (*analysis.Report, error) {
	var r row
	err := a.db.GetContext(ctx, &r, `SELECT * FROM reports WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get report id=%s: %w", id, err)
	}
	rep, err := r.report()
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (a *Archive) Count(ctx context.Context) (int, error) {
	var n int
	if err := a.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM reports`); err != nil {
		return 0, err
	}
	return n, nil
}

func (r row) report() (analysis.Report, error) {
	var rep analysis.Report
	if err := json.Unmarshal([]byte(r.Payload), &rep); err != nil {
		return analysis.Report{}, fmt.Errorf("decode archived report id=%s: %w", r.ID, err)
	}
	return rep, nil
}
