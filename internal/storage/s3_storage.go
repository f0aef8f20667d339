package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appconfig "github.com/carelink/carelink-backend/config"
	"github.com/carelink/carelink-backend/internal/app/model"
	"github.com/carelink/carelink-backend/pkg/logger"
	"github.com/google/uuid"
)

var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// PresignedUpload is handed to the client so it can PUT the file
// directly to object storage
type PresignedUpload struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
	ContentID string `json:"content_id"`
	ExpiresIn int64  `json:"expires_in"`
}

// S3Storage issues presigned upload URLs for verification evidence
type S3Storage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	baseURL   string
}

// NewS3Storage builds the client from static credentials when
// provided, falling back to the default chain
func NewS3Storage(ctx context.Context, cfg *appconfig.S3Config) (*S3Storage, error) {
	options := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		options = append(options, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &S3Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}, nil
}

// PresignVerificationUpload validates the descriptor and returns a
// presigned PUT URL under verifications/<subject>/
func (s *S3Storage) PresignVerificationUpload(ctx context.Context, subjectID string, item model.VerificationItem, fileType string, sizeBytes int64) (*PresignedUpload, error) {
	fileType = strings.ToLower(fileType)
	resourceKind := "image"
	if fileType == "pdf" {
		resourceKind = "raw"
	}
	if err := model.ValidateUpload(resourceKind, fileType, sizeBytes); err != nil {
		return nil, err
	}

	contentID := uuid.New().String()
	key := fmt.Sprintf("verifications/%s/%s/%s.%s", subjectID, item, contentID, fileType)
	expiry := 15 * time.Minute

	contentType := contentTypes[fileType]
	request, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		ContentType:   &contentType,
		ContentLength: &sizeBytes,
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		logger.Error("Failed to presign upload", err, map[string]interface{}{
			"subject": subjectID,
			"item":    string(item),
		})
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &PresignedUpload{
		UploadURL: request.URL,
		FileURL:   fmt.Sprintf("%s/%s", s.baseURL, key),
		ContentID: contentID,
		ExpiresIn: int64(expiry.Seconds()),
	}, nil
}

// ObjectKey maps a public file URL back to its bucket key
func (s *S3Storage) ObjectKey(fileURL string) (string, bool) {
	key, found := strings.CutPrefix(fileURL, s.baseURL+"/")
	if !found || key == "" {
		return "", false
	}
	return key, true
}

// DeleteObject removes an uploaded file, used when an item is retracted
func (s *S3Storage) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		logger.Error("Failed to delete object", err, map[string]interface{}{
			"key": key,
		})
	}
	return err
}
