package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config configures an S3-compatible disk. Leave Endpoint empty for AWS.
type S3Config struct {
	Bucket   string
	Region   string
	Key      string
	Secret   string
	Endpoint string
}

// S3Disk stores files as objects in a bucket.
// Works with AWS S3, MinIO, DigitalOcean Spaces, Cloudflare R2.
type S3Disk struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewS3Disk(ctx context.Context, cfg S3Config) (*S3Disk, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage/s3: S3_BUCKET is not configured")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Region),
	}

	// Static credentials (required for MinIO / R2 / Spaces)
	if cfg.Key != "" && cfg.Secret != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Key, cfg.Secret, ""),
		))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage/s3: load config: %w", err)
	}

	baseURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // required for MinIO
		}
	})
	if cfg.Endpoint != "" {
		baseURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}

	return &S3Disk{client: client, bucket: cfg.Bucket, baseURL: baseURL}, nil
}

// Put buffers r so the SDK can sign a seekable body.
func (d *S3Disk) Put(ctx context.Context, path string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("storage/s3: read: %w", err)
	}
	_, err = d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(path),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("storage/s3: put %s: %w", path, err)
	}
	return nil
}

func (d *S3Disk) Get(ctx context.Context, path string) ([]byte, error) {
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("storage/s3: get %s: %w", path, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (d *S3Disk) Exists(ctx context.Context, path string) (bool, error) {
	_, err := d.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(path),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("storage/s3: head %s: %w", path, err)
}

func (d *S3Disk) Files(ctx context.Context, directory string) ([]string, error) {
	pfx := strings.TrimLeft(directory, "/")
	if pfx != "" && !strings.HasSuffix(pfx, "/") {
		pfx += "/"
	}

	keys := []string{}
	paginator := s3.NewListObjectsV2Paginator(d.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(d.bucket),
		Prefix: aws.String(pfx),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("storage/s3: list %s: %w", directory, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (d *S3Disk) Delete(ctx context.Context, path string) error {
	_, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("storage/s3: delete %s: %w", path, err)
	}
	return nil
}

func (d *S3Disk) URL(path string) string {
	return d.baseURL + "/" + strings.TrimLeft(path, "/")
}
