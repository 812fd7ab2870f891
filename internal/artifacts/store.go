package artifacts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dkwon/alphadesk/internal/contracts"
	"github.com/dkwon/alphadesk/internal/training"
	"github.com/dkwon/alphadesk/pkg/logger"
)

// Store persists trained pipelines in PostgreSQL, one current bundle
// per ticker. Artifact reads and writes happen only through this type.
type Store struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewStore creates an artifact store backed by the given pool
func NewStore(pool *pgxpool.Pool, log *logger.Logger) *Store {
	return &Store{pool: pool, logger: log}
}

// Schema is the DDL the store expects. Applied by migrations, kept here
// so the shape of the table lives next to the queries.
const Schema = `
CREATE TABLE IF NOT EXISTS model_artifacts (
	ticker         TEXT PRIMARY KEY,
	schema_version INT NOT NULL,
	confidence     TEXT NOT NULL,
	bundle         JSONB NOT NULL,
	trained_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Save upserts the current pipeline bundle for a ticker
func (s *Store) Save(ctx context.Context, p *training.Pipeline) error {
	bundle, err := Encode(p)
	if err != nil {
		return fmt.Errorf("encode pipeline for %s: %w", p.Ticker, err)
	}

	query := `
		INSERT INTO model_artifacts (ticker, schema_version, confidence, bundle, trained_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (ticker) DO UPDATE SET
			schema_version = EXCLUDED.schema_version,
			confidence = EXCLUDED.confidence,
			bundle = EXCLUDED.bundle,
			trained_at = EXCLUDED.trained_at,
			updated_at = now()
	`

	_, err = s.pool.Exec(ctx, query,
		p.Ticker, p.Schema.Version, string(p.Confidence), bundle, p.TrainedAt,
	)
	if err != nil {
		return fmt.Errorf("save artifact for %s: %w", p.Ticker, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"ticker": p.Ticker,
		"bytes":  len(bundle),
	}).Debug("Saved model artifact")
	return nil
}

// Load fetches and decodes the current bundle for a ticker. A missing
// row maps to contracts.ErrArtifactNotFound; a version drift surfaces
// as contracts.ErrArtifactMismatch from the codec.
func (s *Store) Load(ctx context.Context, ticker string) (*training.Pipeline, error) {
	query := `SELECT bundle FROM model_artifacts WHERE ticker = $1`

	var bundle []byte
	err := s.pool.QueryRow(ctx, query, ticker).Scan(&bundle)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", contracts.ErrArtifactNotFound, ticker)
	}
	if err != nil {
		return nil, fmt.Errorf("load artifact for %s: %w", ticker, err)
	}

	return Decode(bundle)
}

// Delete removes the stored bundle for a ticker
func (s *Store) Delete(ctx context.Context, ticker string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM model_artifacts WHERE ticker = $1`, ticker)
	if err != nil {
		return fmt.Errorf("delete artifact for %s: %w", ticker, err)
	}
	return nil
}

// Entry is one row of the artifact inventory
type Entry struct {
	Ticker        string    `json:"ticker"`
	SchemaVersion int       `json:"schema_version"`
	Confidence    string    `json:"confidence"`
	TrainedAt     time.Time `json:"trained_at"`
}

// List returns the artifact inventory, most recently trained first
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	query := `
		SELECT ticker, schema_version, confidence, trained_at
		FROM model_artifacts
		ORDER BY trained_at DESC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Ticker, &e.SchemaVersion, &e.Confidence, &e.TrainedAt); err != nil {
			return nil, fmt.Errorf("scan artifact row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
