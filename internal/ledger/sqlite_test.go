package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gallerykeeper/internal/common"
)

// openTestBackend opens a named in-memory ledger, migrated and FK-enabled.
func openTestBackend(t *testing.T, name string) *Backend {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	b, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.DB.Close() })
	return b
}

func TestSQLite_FindOrCreateContent_RoundTrip(t *testing.T) {
	b := openTestBackend(t, "roundtrip")
	repo := b.NewRepository(b.DB)
	ctx := context.Background()

	id1, existed, err := repo.FindOrCreateContent(ctx, "d1", "SHA-256")
	require.NoError(t, err)
	assert.False(t, existed)
	assert.NotEmpty(t, id1)

	id2, existed, err := repo.FindOrCreateContent(ctx, "d1", "SHA-256")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, id1, id2)

	// A distinct digest gets its own row.
	id3, existed, err := repo.FindOrCreateContent(ctx, "d2", "SHA-256")
	require.NoError(t, err)
	assert.False(t, existed)
	assert.NotEqual(t, id1, id3)
}

func TestSQLite_FindOrCreateContent_ConcurrentSameDigest(t *testing.T) {
	b := openTestBackend(t, "race")
	ctx := context.Background()

	const workers = 16

	var wg sync.WaitGroup
	ids := make([]string, workers)
	existedFlags := make([]bool, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			repo := b.NewRepository(b.DB)
			ids[i], existedFlags[i], errs[i] = repo.FindOrCreateContent(ctx, "shared-digest", "SHA-256")
		}(i)
	}
	wg.Wait()

	creators := 0
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i], "every caller must get the same content id")
		if !existedFlags[i] {
			creators++
		}
	}
	assert.Equal(t, 1, creators, "exactly one caller observes existed=false")

	var rows int
	require.NoError(t, b.DB.QueryRow(
		`SELECT COUNT(*) FROM content WHERE digest = 'shared-digest'`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestSQLite_CreateReference_MissingContent(t *testing.T) {
	b := openTestBackend(t, "fk")
	repo := b.NewRepository(b.DB)

	_, err := repo.CreateReference(context.Background(), &Reference{
		ContentID: "no-such-content",
		OwnerID:   "owner-1",
		Filename:  "photo.jpg",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrReferential))
}

func TestSQLite_CreateReference_EmptyFolderStoredAsNull(t *testing.T) {
	b := openTestBackend(t, "folder")
	repo := b.NewRepository(b.DB)
	ctx := context.Background()

	contentID, _, err := repo.FindOrCreateContent(ctx, "d1", "SHA-256")
	require.NoError(t, err)

	refID, err := repo.CreateReference(ctx, &Reference{
		ContentID: contentID,
		OwnerID:   "owner-1",
		Filename:  "photo.jpg",
	})
	require.NoError(t, err)

	var folderIsNull bool
	require.NoError(t, b.DB.QueryRow(
		`SELECT folder IS NULL FROM reference WHERE reference_id = ?`, refID).Scan(&folderIsNull))
	assert.True(t, folderIsNull)
}
