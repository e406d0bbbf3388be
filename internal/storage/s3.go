package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const UploadURLExpiry = 5 * time.Minute

type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
	UsePathStyle    bool
}

// PresignedUpload is what a client needs to PUT a file directly to the bucket.
type PresignedUpload struct {
	UploadURL string    `json:"uploadUrl"`
	FileURL   string    `json:"fileUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// S3Presigner issues time-limited upload URLs for user media.
type S3Presigner struct {
	presignClient *s3.PresignClient
	bucket        string
	fileBaseURL   string
	now           func() time.Time
}

func NewS3Presigner(ctx context.Context, cfg S3Config) (*S3Presigner, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Presigner{
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		fileBaseURL:   fileBaseURL(cfg),
		now:           time.Now,
	}, nil
}

// fileBaseURL is where uploaded objects are read from: the CDN when
// configured, otherwise the bucket itself.
func fileBaseURL(cfg S3Config) string {
	switch {
	case cfg.PublicURL != "":
		return strings.TrimRight(cfg.PublicURL, "/")
	case cfg.Endpoint != "" && cfg.UsePathStyle:
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/")
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

// PresignUpload validates the file type and returns a PUT URL valid for
// UploadURLExpiry.
func (p *S3Presigner) PresignUpload(ctx context.Context, userID uint, fileName, contentType string, kind MediaKind) (*PresignedUpload, error) {
	if err := ValidateUpload(kind, contentType); err != nil {
		return nil, err
	}

	now := p.now()
	key := ObjectKey(kind, userID, fileName, now)

	req, err := p.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(UploadURLExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &PresignedUpload{
		UploadURL: req.URL,
		FileURL:   p.fileBaseURL + "/" + key,
		Key:       key,
		ExpiresAt: now.Add(UploadURLExpiry),
	}, nil
}
