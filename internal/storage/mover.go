package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/dmitrijs2005/gallerykeeper/internal/common"
)

// ObjectRef names one object in one bucket.
type ObjectRef struct {
	Bucket string
	Key    string
}

func (r ObjectRef) String() string {
	return "s3://" + r.Bucket + "/" + r.Key
}

// ObjectStore is the slice of the S3 client the mover needs.
type ObjectStore interface {
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Mover performs the two storage side-effects of a traversal: copying the
// staging object into the gallery bucket and deleting it from staging.
// Both operations are idempotent, so a re-driven traversal can repeat
// them safely.
type Mover struct {
	api           ObjectStore
	galleryBucket string
}

func NewMover(api ObjectStore, galleryBucket string) *Mover {
	return &Mover{api: api, galleryBucket: galleryBucket}
}

// Archive copies src into the gallery bucket under archiveKey. The
// archive key is the content digest, so repeating the copy overwrites
// the object with identical bytes — a no-op in observable state.
func (m *Mover) Archive(ctx context.Context, src ObjectRef, archiveKey string) error {
	_, err := m.api.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(m.galleryBucket),
		Key:        aws.String(archiveKey),
		CopySource: aws.String(url.PathEscape(src.Bucket + "/" + src.Key)),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: copy %s: %v", common.ErrRetrieval, src, err)
		}
		return fmt.Errorf("%w: copy %s: %v", common.ErrConnectivity, src, err)
	}
	return nil
}

// Evict deletes the staging object. An already-absent key is success:
// a retry after a partial failure must not error on an object removed
// by an earlier, unacknowledged attempt.
func (m *Mover) Evict(ctx context.Context, ref ObjectRef) error {
	_, err := m.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("%w: delete %s: %v", common.ErrConnectivity, ref, err)
	}
	return nil
}

// isNotFound matches the missing-object error shapes S3-compatible
// backends return.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
