package report

import (
	"bytes"
	"context"
	"fmt"
	"path"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gopkg.in/yaml.v3"
)

// S3Sink uploads the report to an S3 bucket, keyed by run ID so
// successive runs never overwrite each other.
type S3Sink struct {
	Bucket string
	Prefix string
	Region string

	client *s3.Client
}

func (s *S3Sink) ensureClient(ctx context.Context) error {
	if s.client != nil {
		return nil
	}
	var opts []func(*awsconfig.LoadOptions) error
	if s.Region != "" {
		opts = append(opts, awsconfig.WithRegion(s.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to load AWS config for report sink: %w", err)
	}
	s.client = s3.NewFromConfig(cfg)
	return nil
}

func (s *S3Sink) Write(ctx context.Context, r *Report) (string, error) {
	if err := s.ensureClient(ctx); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	key := path.Join(s.Prefix, r.RunID, FileName)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.Bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report to s3://%s/%s: %w", s.Bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.Bucket, key), nil
}
