// Package auditarchive mirrors payment audit entries to S3 compatible storage.
package auditarchive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"

	"github.com/mxi-labs/presale/app/models"
)

const uploadTimeout = 10 * time.Second

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client uploads audit entries as JSON objects
type Client struct {
	s3     objectPutter
	bucket string
}

// NewClient creates an archive client for an enabled configuration
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("audit archive is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	log.Infof("[AuditArchive] Archiving audit entries to bucket: %s", cfg.BucketName)
	return &Client{s3: s3Client, bucket: cfg.BucketName}, nil
}

// Archive uploads one audit entry. The upload has its own timeout so a slow
// bucket cannot stall the payment request.
func (c *Client) Archive(ctx context.Context, entry *models.AuditLog) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode audit entry: %w", err)
	}

	at := entry.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	key := ObjectKey(entry.PaymentID, entry.Action, at)

	uploadCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	_, err = c.s3.PutObject(uploadCtx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
		Metadata: map[string]string{
			"payment-id":   entry.PaymentID,
			"audit-status": entry.Status,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", c.bucket, key, err)
	}

	log.Debugf("[AuditArchive] Uploaded s3://%s/%s", c.bucket, key)
	return nil
}
