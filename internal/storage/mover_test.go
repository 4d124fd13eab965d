package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gallerykeeper/internal/common"
)

// fakeStore records copies and deletes against in-memory buckets keyed
// by "bucket/key".
type fakeStore struct {
	objects map[string]string // bucket/key -> content marker

	copyErr   error
	deleteErr error

	copyCalls   int
	deleteCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]string{}}
}

func (f *fakeStore) CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	f.copyCalls++
	if f.copyErr != nil {
		return nil, f.copyErr
	}
	f.objects[*params.Bucket+"/"+*params.Key] = *params.CopySource
	return &s3.CopyObjectOutput{}, nil
}

func (f *fakeStore) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleteCalls++
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	delete(f.objects, *params.Bucket+"/"+*params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type apiError struct{ code string }

func (e *apiError) Error() string                 { return e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

func TestArchive_CopiesUnderDigestKey(t *testing.T) {
	store := newFakeStore()
	m := NewMover(store, "gallery")

	err := m.Archive(context.Background(), ObjectRef{Bucket: "staging", Key: "u1/photo.jpg"}, "d1")
	require.NoError(t, err)

	_, ok := store.objects["gallery/d1"]
	assert.True(t, ok, "object must land in the gallery under the digest key")
}

func TestArchive_Idempotent(t *testing.T) {
	store := newFakeStore()
	m := NewMover(store, "gallery")
	src := ObjectRef{Bucket: "staging", Key: "u1/photo.jpg"}

	require.NoError(t, m.Archive(context.Background(), src, "d1"))
	before := len(store.objects)
	require.NoError(t, m.Archive(context.Background(), src, "d1"))

	assert.Equal(t, before, len(store.objects), "re-archiving the same key must not change observable state")
	assert.Equal(t, 2, store.copyCalls)
}

func TestArchive_SourceMissing_Retrieval(t *testing.T) {
	store := newFakeStore()
	store.copyErr = &apiError{code: "NoSuchKey"}
	m := NewMover(store, "gallery")

	err := m.Archive(context.Background(), ObjectRef{Bucket: "staging", Key: "gone.jpg"}, "d1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrRetrieval))
}

func TestArchive_TransportError_Connectivity(t *testing.T) {
	store := newFakeStore()
	store.copyErr = errors.New("connection reset")
	m := NewMover(store, "gallery")

	err := m.Archive(context.Background(), ObjectRef{Bucket: "staging", Key: "a.jpg"}, "d1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConnectivity))
}

func TestEvict_DeletesObject(t *testing.T) {
	store := newFakeStore()
	store.objects["staging/u1/photo.jpg"] = "x"
	m := NewMover(store, "gallery")

	require.NoError(t, m.Evict(context.Background(), ObjectRef{Bucket: "staging", Key: "u1/photo.jpg"}))
	assert.Empty(t, store.objects)
}

func TestEvict_AlreadyAbsent_Succeeds(t *testing.T) {
	store := newFakeStore()
	store.deleteErr = &apiError{code: "NoSuchKey"}
	m := NewMover(store, "gallery")

	// Twice, to mirror a retry after an unacknowledged earlier delete.
	require.NoError(t, m.Evict(context.Background(), ObjectRef{Bucket: "staging", Key: "gone.jpg"}))
	require.NoError(t, m.Evict(context.Background(), ObjectRef{Bucket: "staging", Key: "gone.jpg"}))
	assert.Equal(t, 2, store.deleteCalls)
}

func TestEvict_TransportError_Connectivity(t *testing.T) {
	store := newFakeStore()
	store.deleteErr = errors.New("i/o timeout")
	m := NewMover(store, "gallery")

	err := m.Evict(context.Background(), ObjectRef{Bucket: "staging", Key: "a.jpg"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConnectivity))
}
