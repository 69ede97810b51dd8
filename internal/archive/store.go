// Package archive copies finalized reports to S3 for records retention.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/wolfman30/incident-report-ai/pkg/logging"
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store writes report documents and per-org manifests to a bucket.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
	now      func() time.Time
}

// NewStore creates an archive Store. If bucket is empty, all operations are no-ops.
func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		bucket:   bucket,
		s3Client: s3Client,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Enabled returns true if archival is configured (bucket is set).
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// ReportKey is the object key for a report document.
func ReportKey(orgID, reportID string) string {
	return fmt.Sprintf("reports/%s/%s.json", orgID, reportID)
}

func manifestKey(orgID string, at time.Time) string {
	return fmt.Sprintf("reports/%s/manifests/%d-%02d.jsonl", orgID, at.Year(), at.Month())
}

// ArchiveReport uploads the document and appends it to the org's manifest.
// A manifest failure is logged; the report object is already stored.
func (s *Store) ArchiveReport(ctx context.Context, doc Document) error {
	if !s.Enabled() {
		return nil
	}

	data, err := json.Marshal(doc.Payload)
	if err != nil {
		return fmt.Errorf("archive: marshal report: %w", err)
	}

	key := ReportKey(doc.OrgID, doc.ReportID)
	if _, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return fmt.Errorf("archive: s3 put %s: %w", key, err)
	}

	now := s.now()
	s.logger.Info("archived report to s3", "report_id", doc.ReportID, "org_id", doc.OrgID, "s3_key", key)

	entry := ManifestEntry{
		ReportID:      doc.ReportID,
		OffenseID:     doc.OffenseID,
		S3Key:         key,
		Complete:      doc.MissingFields == 0,
		MissingFields: doc.MissingFields,
		ArchivedAt:    now.Format(time.RFC3339),
	}
	if err := s.appendManifest(ctx, doc.OrgID, now, entry); err != nil {
		s.logger.Warn("failed to append manifest", "error", err, "report_id", doc.ReportID)
	}
	return nil
}

// appendManifest rewrites the monthly JSONL object with one more line.
// S3 has no append, so concurrent writers may drop lines.
func (s *Store) appendManifest(ctx context.Context, orgID string, at time.Time, entry ManifestEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}
	key := manifestKey(orgID, at)

	var existing []byte
	getResp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		existing, err = io.ReadAll(getResp.Body)
		getResp.Body.Close()
		if err != nil {
			return fmt.Errorf("archive: read manifest: %w", err)
		}
	case isNoSuchKey(err):
		s.logger.Debug("manifest not found, creating new", "key", key)
	default:
		return fmt.Errorf("archive: s3 get manifest: %w", err)
	}

	var buf bytes.Buffer
	if len(existing) > 0 {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.Write(line)
	buf.WriteByte('\n')

	if _, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	}); err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	var nsk *s3types.NoSuchKey
	return errors.As(err, &nsk)
}
