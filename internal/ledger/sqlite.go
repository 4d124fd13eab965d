package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gallerykeeper/internal/common"
	"github.com/dmitrijs2005/gallerykeeper/internal/dbx"
)

// SQLiteRepository implements the ledger over an embedded SQLite database
// (modernc driver). Used for single-node and development deployments;
// the find-or-create contract is identical to the Postgres backend.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) FindOrCreateContent(ctx context.Context, digest, algorithm string) (string, bool, error) {
	query := `
		INSERT INTO content (content_id, digest, algorithm)
		VALUES (?, ?, ?)
		ON CONFLICT (digest) DO NOTHING
		RETURNING content_id;
	`
	var contentID string
	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), digest, algorithm).Scan(&contentID)
	if err == nil {
		return contentID, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, fmt.Errorf("%w: insert content: %v", common.ErrConnectivity, err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT content_id FROM content WHERE digest = ?;`, digest).Scan(&contentID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, fmt.Errorf("%w: content digest %s", common.ErrNotFound, digest)
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: select content: %v", common.ErrConnectivity, err)
	}
	return contentID, true, nil
}

func (r *SQLiteRepository) CreateReference(ctx context.Context, ref *Reference) (string, error) {
	query := `
		INSERT INTO reference (reference_id, content_id, owner_id, filename, folder)
		VALUES (?, ?, ?, ?, NULLIF(?, ''));
	`
	referenceID := uuid.NewString()
	_, err := r.db.ExecContext(ctx, query,
		referenceID, ref.ContentID, ref.OwnerID, ref.Filename, ref.Folder)
	if err != nil {
		// modernc/sqlite reports FK failures by message, not a typed error.
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return "", fmt.Errorf("%w: content %s: %v", common.ErrReferential, ref.ContentID, err)
		}
		return "", fmt.Errorf("%w: insert reference: %v", common.ErrConnectivity, err)
	}
	return referenceID, nil
}
