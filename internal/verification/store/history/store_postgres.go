package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	// Registers the pgx stdlib driver used by sql.Open("pgx", ...).
	_ "github.com/jackc/pgx/v5/stdlib"

	"pkdconsole/internal/verification/models"
	id "pkdconsole/pkg/domain"
)

// PostgresStore persists history rows in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed history store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open connects to PostgreSQL via the pgx stdlib driver and verifies the
// connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the history table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS verification_history (
			id              UUID PRIMARY KEY,
			submitted_at    TIMESTAMPTZ NOT NULL,
			document_number TEXT NOT NULL DEFAULT '',
			status          TEXT NOT NULL,
			invalid_groups  INT NOT NULL DEFAULT 0,
			stage_statuses  JSONB NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("migrate verification_history: %w", err)
	}
	return nil
}

func (s *PostgresStore) Record(ctx context.Context, entry models.HistoryEntry) error {
	stages, err := json.Marshal(entry.StageStatuses)
	if err != nil {
		return fmt.Errorf("encode stage statuses: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verification_history
			(id, submitted_at, document_number, status, invalid_groups, stage_statuses)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			submitted_at    = EXCLUDED.submitted_at,
			document_number = EXCLUDED.document_number,
			status          = EXCLUDED.status,
			invalid_groups  = EXCLUDED.invalid_groups,
			stage_statuses  = EXCLUDED.stage_statuses`,
		entry.ID.String(), entry.SubmittedAt, entry.DocumentNumber,
		string(entry.Status), entry.InvalidGroups, stages)
	if err != nil {
		return fmt.Errorf("record verification: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, submitted_at, document_number, status, invalid_groups, stage_statuses
		FROM verification_history
		ORDER BY submitted_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var (
			entry   models.HistoryEntry
			rawID   string
			status  string
			stages  []byte
			scanErr error
		)
		if scanErr = rows.Scan(&rawID, &entry.SubmittedAt, &entry.DocumentNumber,
			&status, &entry.InvalidGroups, &stages); scanErr != nil {
			return nil, fmt.Errorf("scan verification row: %w", scanErr)
		}
		sessionID, parseErr := id.ParseSessionID(rawID)
		if parseErr != nil {
			return nil, fmt.Errorf("parse history id: %w", parseErr)
		}
		entry.ID = sessionID
		entry.Status = models.OverallStatus(status)
		if err := json.Unmarshal(stages, &entry.StageStatuses); err != nil {
			return nil, fmt.Errorf("decode stage statuses: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification rows: %w", err)
	}
	return entries, nil
}
