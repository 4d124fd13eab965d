package digest

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/gallerykeeper/internal/common"
)

// ObjectGetter is the slice of the S3 client the hasher needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ObjectHasher resolves (bucket, key) references into byte streams and
// digests them. The object body is hashed as it is downloaded; the whole
// object is never held in memory.
type ObjectHasher struct {
	api    ObjectGetter
	engine *Engine
}

func NewObjectHasher(api ObjectGetter, engine *Engine) *ObjectHasher {
	return &ObjectHasher{api: api, engine: engine}
}

// HashObject reads the object once and returns its digest. Every failure
// here, from a missing key to a broken read, is classified as a retrieval
// error: the source was unreadable and the caller may retry.
func (h *ObjectHasher) HashObject(ctx context.Context, bucket, key string) (Result, error) {
	out, err := h.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: get s3://%s/%s: %v", common.ErrRetrieval, bucket, key, err)
	}
	defer out.Body.Close()

	res, err := h.engine.Sum(out.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: read s3://%s/%s: %v", common.ErrRetrieval, bucket, key, err)
	}
	return res, nil
}
