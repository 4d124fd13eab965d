// Package storage wraps the blob-store side of the dedup workflow: client
// construction for the S3-compatible backend and the idempotent
// archive/evict operations of the mover.
package storage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ClientConfig holds the settings for the S3-compatible backend
// (MinIO in development, S3 proper in production).
type ClientConfig struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

// NewClient builds an S3 client with static credentials and an optional
// custom endpoint.
func NewClient(ctx context.Context, cc ClientConfig) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cc.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cc.AccessKey,
			cc.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if cc.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cc.BaseEndpoint)
		}
	})

	return client, nil
}
