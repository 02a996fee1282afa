package sources

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// FolderSourceConfig holds configuration for FolderSource
type FolderSourceConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Prefix          string
	UsePathStyle    bool
}

// FolderSource polls a folder in S3-compatible storage (e.g., RustFS) for
// newly dropped regulatory documents.
type FolderSource struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewFolderSource creates a new FolderSource with the given configuration
func NewFolderSource(ctx context.Context, cfg FolderSourceConfig) (*FolderSource, error) {
	// Create custom resolver for S3-compatible endpoints
	customResolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if cfg.Endpoint != "" {
				return aws.Endpoint{
					URL:               cfg.Endpoint,
					HostnameImmutable: true,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		},
	)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		config.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Path-style addressing for S3-compatible services
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &FolderSource{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Name identifies the source in logs and ledger records.
func (f *FolderSource) Name() string {
	return "folder:" + f.bucket + "/" + f.prefix
}

// ListNew returns PDF objects under the prefix last modified after since.
func (f *FolderSource) ListNew(ctx context.Context, since time.Time) ([]Candidate, error) {
	var candidates []Candidate

	paginator := s3.NewListObjectsV2Paginator(f.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(f.bucket),
		Prefix: aws.String(f.prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(strings.ToLower(key), ".pdf") {
				continue
			}
			modified := aws.ToTime(obj.LastModified)
			if !modified.After(since) {
				continue
			}
			candidates = append(candidates, Candidate{
				ID:        key,
				Name:      filepath.Base(key),
				CreatedAt: modified,
			})
		}
	}

	return candidates, nil
}

// Download fetches one object into destDir.
func (f *FolderSource) Download(ctx context.Context, candidate Candidate, destDir string) (string, error) {
	output, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(candidate.ID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get object %s: %w", candidate.ID, err)
	}
	defer output.Body.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}

	dest := filepath.Join(destDir, candidate.Name)
	file, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(file, output.Body); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return dest, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (f *FolderSource) EnsureBucket(ctx context.Context) error {
	_, err := f.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(f.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = f.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(f.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}
