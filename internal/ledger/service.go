package ledger

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gallerykeeper/internal/dbx"
)

// RecordRequest carries everything the Recording step persists for one
// upload event.
type RecordRequest struct {
	Digest    string
	Algorithm string
	OwnerID   string
	Filename  string
	Folder    string
}

// RecordResult reports what the ledger did. Existed is the branch signal:
// false means this traversal is the first observer of the digest and must
// archive the content before evicting the staging copy.
type RecordResult struct {
	ContentID   string
	ReferenceID string
	Existed     bool
}

// Service performs ledger writes for the workflow. Both writes of one
// upload event happen in a single transaction, so the staging object is
// never evicted on the strength of an uncommitted record.
type Service struct {
	db      *sql.DB
	newRepo func(db dbx.DBTX) Repository
}

func NewService(backend *Backend) *Service {
	return &Service{db: backend.DB, newRepo: backend.NewRepository}
}

// Record resolves the digest to a content row (creating it on first
// observation) and appends a reference row, atomically. Safe to call
// again on a re-driven traversal: the content side is idempotent by
// constraint, and the extra reference correctly records the retried
// upload event only once per successful commit.
func (s *Service) Record(ctx context.Context, req RecordRequest) (RecordResult, error) {
	var res RecordResult

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.newRepo(tx)

		contentID, existed, err := repo.FindOrCreateContent(ctx, req.Digest, req.Algorithm)
		if err != nil {
			return err
		}

		referenceID, err := repo.CreateReference(ctx, &Reference{
			ContentID: contentID,
			OwnerID:   req.OwnerID,
			Filename:  req.Filename,
			Folder:    req.Folder,
		})
		if err != nil {
			return err
		}

		res = RecordResult{ContentID: contentID, ReferenceID: referenceID, Existed: existed}
		return nil
	})
	if err != nil {
		return RecordResult{}, err
	}
	return res, nil
}
