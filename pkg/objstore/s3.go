package objstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Options configures an S3Store.
type S3Options struct {
	Bucket  string
	Region  string
	Profile string
}

// S3Store reads a single S3 bucket. The bucket is modeled as one root
// container with an empty name, so fully-qualified keys are the bare
// object keys. That keeps S3 inventories comparable with stores whose
// keys carry a container segment.
type S3Store struct {
	bucket     string
	client     *s3.Client
	downloader *manager.Downloader
}

// NewS3Store builds an S3 client from the default credential chain with
// optional profile and region overrides.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, &ConnectionError{Store: "s3", Op: "configure", Err: errors.New("bucket name is required")}
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, &ConnectionError{Store: opts.Bucket, Op: "load AWS config", Err: err}
	}

	client := s3.NewFromConfig(cfg)
	return &S3Store{
		bucket:     opts.Bucket,
		client:     client,
		downloader: manager.NewDownloader(client),
	}, nil
}

func (s *S3Store) Name() string {
	return s.bucket
}

// ListContainers verifies the bucket is reachable and exposes it as a
// single eligible root container. Reconciliation and mirroring target the
// bucket explicitly, so there is no per-bucket access policy to filter on.
func (s *S3Store) ListContainers(ctx context.Context) ([]Container, error) {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}

	return []Container{
		{Name: "", PublicAccess: PublicAccessContainer},
	}, nil
}

func (s *S3Store) ListObjects(ctx context.Context, _ string, prefix string, fn ObjectFunc) error {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list objects in %s: %w", s.bucket, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			if err := fn(ObjectRef{Key: *obj.Key}); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *S3Store) FetchBytes(ctx context.Context, _ string, key string) ([]byte, error) {
	buf := manager.NewWriteAtBuffer(nil)
	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s3FetchError("get object", s.bucket, key, err)
	}
	return buf.Bytes(), nil
}

func (s *S3Store) FetchContentType(ctx context.Context, _ string, key string) (string, error) {
	resp, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", s3FetchError("head object", s.bucket, key, err)
	}
	return aws.ToString(resp.ContentType), nil
}

func s3FetchError(op, bucket, key string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%s s3://%s/%s: %w", op, bucket, key, ErrNotFound)
		}
	}
	return fmt.Errorf("%s s3://%s/%s: %w", op, bucket, key, err)
}
