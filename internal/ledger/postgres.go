package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/gallerykeeper/internal/common"
	"github.com/dmitrijs2005/gallerykeeper/internal/dbx"
)

// Postgres error class for foreign-key violations.
const pgFKViolation = "23503"

// PostgresRepository implements the ledger over a dbx.DBTX
// (*sql.DB or *sql.Tx) using the pgx stdlib driver.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindOrCreateContent inserts the digest row, yielding to a concurrent
// creator via ON CONFLICT DO NOTHING. When the insert returns no row the
// digest already exists and its id is read back. The unique constraint on
// digest serializes exactly one winner; the losing side never sees a
// constraint error.
func (r *PostgresRepository) FindOrCreateContent(ctx context.Context, digest, algorithm string) (string, bool, error) {
	query := `
		INSERT INTO content (content_id, digest, algorithm)
		VALUES ($1, $2, $3)
		ON CONFLICT (digest) DO NOTHING
		RETURNING content_id;
	`
	var contentID string
	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), digest, algorithm).Scan(&contentID)
	if err == nil {
		return contentID, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, classifyPg("insert content", err)
	}

	// Lost the race (or the digest was seen long ago); fetch the winner.
	err = r.db.QueryRowContext(ctx,
		`SELECT content_id FROM content WHERE digest = $1;`, digest).Scan(&contentID)
	if errors.Is(err, sql.ErrNoRows) {
		// The conflicting row vanished between the two statements.
		return "", false, fmt.Errorf("%w: content digest %s", common.ErrNotFound, digest)
	}
	if err != nil {
		return "", false, classifyPg("select content", err)
	}
	return contentID, true, nil
}

// CreateReference inserts a reference row. An empty folder is stored as
// NULL. A foreign-key violation means the content row vanished between
// steps and is surfaced as common.ErrReferential.
func (r *PostgresRepository) CreateReference(ctx context.Context, ref *Reference) (string, error) {
	query := `
		INSERT INTO reference (reference_id, content_id, owner_id, filename, folder)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''));
	`
	referenceID := uuid.NewString()
	_, err := r.db.ExecContext(ctx, query,
		referenceID, ref.ContentID, ref.OwnerID, ref.Filename, ref.Folder)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgFKViolation {
			return "", fmt.Errorf("%w: content %s: %v", common.ErrReferential, ref.ContentID, err)
		}
		return "", classifyPg("insert reference", err)
	}
	return referenceID, nil
}

// classifyPg maps database errors to the worker taxonomy. Anything that
// is not a recognized constraint violation is treated as a connectivity
// fault and left to the retry policy.
func classifyPg(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", common.ErrConnectivity, op, err)
}
