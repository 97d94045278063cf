package internal

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/sensiblebit/certcheck/internal/inventory"
)

// History appends check runs to a SQLite file. It is an export only: nothing
// in a check reads it back, so every run is classified from scratch.
type History struct {
	*sqlx.DB
}

// RunRecord is one check run.
type RunRecord struct {
	ID              int64     `db:"id"`
	CheckedAt       time.Time `db:"checked_at"`
	TargetDir       string    `db:"target_dir"`
	TrustDir        string    `db:"trust_dir"`
	GraceSeconds    int64     `db:"grace_seconds"`
	MatchMode       string    `db:"match_mode"`
	NonCertificates int       `db:"non_certificates"`
	Expired         int       `db:"expired"`
	Trusted         int       `db:"trusted"`
	Untrusted       int       `db:"untrusted"`
	Warnings        int       `db:"warnings"`
}

// EntryRecord is one directory entry of a run.
type EntryRecord struct {
	RunID         int64      `db:"run_id"`
	Name          string     `db:"name"`
	Path          string     `db:"path"`
	Kind          string     `db:"kind"`
	Format        string     `db:"format"`
	IsCertificate bool       `db:"is_certificate"`
	Expired       bool       `db:"expired"`
	Trusted       bool       `db:"trusted"`
	NotAfter      *time.Time `db:"not_after"`
	Fingerprint   string     `db:"fingerprint"`
	Subject       string     `db:"subject"`
}

// WarningRecord is one warning emitted during a run.
type WarningRecord struct {
	RunID   int64  `db:"run_id"`
	Path    string `db:"path"`
	Message string `db:"message"`
}

// OpenHistory opens or creates the history database at path. ":memory:" is
// accepted for tests.
func OpenHistory(path string) (*History, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	h := &History{DB: db}
	if err := h.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	slog.Debug("history database opened", "path", path)
	return h, nil
}

func (h *History) initSchema() error {
	_, err := h.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			checked_at       timestamp NOT NULL,
			target_dir       text NOT NULL,
			trust_dir        text NOT NULL,
			grace_seconds    integer NOT NULL,
			match_mode       text NOT NULL,
			non_certificates integer NOT NULL,
			expired          integer NOT NULL,
			trusted          integer NOT NULL,
			untrusted        integer NOT NULL,
			warnings         integer NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating runs table: %w", err)
	}

	_, err = h.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			run_id         integer NOT NULL REFERENCES runs(id),
			name           text NOT NULL,
			path           text NOT NULL,
			kind           text NOT NULL,
			format         text,
			is_certificate boolean NOT NULL,
			expired        boolean NOT NULL,
			trusted        boolean NOT NULL,
			not_after      timestamp,
			fingerprint    text,
			subject        text
		);
	`)
	if err != nil {
		return fmt.Errorf("creating entries table: %w", err)
	}

	_, err = h.Exec(`CREATE INDEX IF NOT EXISTS idx_entries_run ON entries (run_id);`)
	if err != nil {
		return fmt.Errorf("creating run index on entries table: %w", err)
	}

	_, err = h.Exec(`
		CREATE TABLE IF NOT EXISTS warnings (
			run_id  integer NOT NULL REFERENCES runs(id),
			path    text NOT NULL,
			message text NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating warnings table: %w", err)
	}
	return nil
}

// RecordRun stores a run with its entries and warnings in one transaction and
// returns the run ID.
func (h *History) RecordRun(res *inventory.Result, grace time.Duration, match inventory.MatchMode) (int64, error) {
	tx, err := h.Beginx()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	run := RunRecord{
		CheckedAt:       res.CheckedAt.UTC(),
		TargetDir:       res.TargetDir,
		TrustDir:        res.TrustDir,
		GraceSeconds:    int64(grace / time.Second),
		MatchMode:       string(match),
		NonCertificates: len(res.Report.NonCertificates),
		Expired:         len(res.Report.Expired),
		Trusted:         len(res.Report.Trusted),
		Untrusted:       len(res.Report.Untrusted),
		Warnings:        len(res.Warnings),
	}
	result, err := tx.NamedExec(`
		INSERT INTO runs (checked_at, target_dir, trust_dir, grace_seconds, match_mode, non_certificates, expired, trusted, untrusted, warnings)
		VALUES (:checked_at, :target_dir, :trust_dir, :grace_seconds, :match_mode, :non_certificates, :expired, :trusted, :untrusted, :warnings)
	`, run)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting run id: %w", err)
	}

	trusted := make(map[string]bool, len(res.Report.Trusted))
	for _, name := range res.Report.Trusted {
		trusted[name] = true
	}
	for _, e := range res.Entries {
		rec := EntryRecord{
			RunID:         runID,
			Name:          e.Name,
			Path:          e.Path,
			Kind:          string(e.Kind),
			Format:        e.Format,
			IsCertificate: e.IsCertificate,
			Expired:       e.Expired,
			Trusted:       e.IsCertificate && trusted[e.Name],
			Fingerprint:   e.Fingerprint,
			Subject:       e.Subject,
		}
		if !e.NotAfter.IsZero() {
			na := e.NotAfter.UTC()
			rec.NotAfter = &na
		}
		if _, err := tx.NamedExec(`
			INSERT INTO entries (run_id, name, path, kind, format, is_certificate, expired, trusted, not_after, fingerprint, subject)
			VALUES (:run_id, :name, :path, :kind, :format, :is_certificate, :expired, :trusted, :not_after, :fingerprint, :subject)
		`, rec); err != nil {
			return 0, fmt.Errorf("inserting entry %s: %w", e.Name, err)
		}
	}

	for _, w := range res.Warnings {
		rec := WarningRecord{RunID: runID, Path: w.Path, Message: w.Err.Error()}
		if _, err := tx.NamedExec(`INSERT INTO warnings (run_id, path, message) VALUES (:run_id, :path, :message)`, rec); err != nil {
			return 0, fmt.Errorf("inserting warning: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	slog.Debug("recorded run", "id", runID, "entries", len(res.Entries))
	return runID, nil
}
