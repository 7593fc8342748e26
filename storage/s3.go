package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"research-hand/config"
	"research-hand/extraction"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// NewS3Client erstellt einen S3-Client für das Ergebnis-Archiv
// (S3-kompatibler Endpoint, z.B. Strato HiDrive oder MinIO).
func NewS3Client(cfg *config.Config) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.ArchiveS3URL,
				SigningRegion:     cfg.ArchiveS3Region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.ArchiveS3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.ArchiveS3Key, cfg.ArchiveS3Secret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

// S3Archive spiegelt fertige Extraction-Dokumente als JSON in einen Bucket.
type S3Archive struct {
	client *s3.Client
	bucket string
	base   string
	logger *zap.Logger
}

// NewS3Archive erstellt das Ergebnis-Archiv.
func NewS3Archive(client *s3.Client, cfg *config.Config, logger *zap.Logger) *S3Archive {
	return &S3Archive{
		client: client,
		bucket: cfg.ArchiveS3Bucket,
		base:   cfg.ArchiveS3URL,
		logger: logger,
	}
}

// ArchiveResult lädt das Dokument unter einem Owner/Query-Schlüssel hoch und
// gibt den Ablageort zurück.
func (a *S3Archive) ArchiveResult(ctx context.Context, ownerID string, queryID uint, doc *extraction.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("research/%s/query-%d.json", ownerID, queryID)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", err
	}

	location := fmt.Sprintf("%s/%s/%s", a.base, a.bucket, key)
	a.logger.Info("Ergebnis archiviert", zap.String("location", location))
	return location, nil
}
