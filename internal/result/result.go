// Package result writes ranked evaluations to a local file or S3.
package result

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/drpaneas/resonance/internal/evaluate"
)

// Sink stores a run's evaluations and reports where they went.
type Sink interface {
	Write(ctx context.Context, evals []evaluate.MessageEvaluation) (string, error)
}

// Encode writes evals as a JSON array with two-space indentation.
func Encode(w io.Writer, evals []evaluate.MessageEvaluation) error {
	if evals == nil {
		evals = []evaluate.MessageEvaluation{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(evals); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return nil
}

// Decode reads evaluations written by Encode.
func Decode(r io.Reader) ([]evaluate.MessageEvaluation, error) {
	var evals []evaluate.MessageEvaluation
	if err := json.NewDecoder(r).Decode(&evals); err != nil {
		return nil, fmt.Errorf("decoding results: %w", err)
	}
	return evals, nil
}

// FileSink writes to a local path, creating parent directories.
type FileSink struct {
	Path string
}

func (s *FileSink) Write(_ context.Context, evals []evaluate.MessageEvaluation) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, evals); err != nil {
		return "", err
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(s.Path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing results: %w", err)
	}
	return s.Path, nil
}

// ObjectPutter is the subset of the S3 client S3Sink uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads results as a single JSON object.
type S3Sink struct {
	Client ObjectPutter
	Bucket string
	Key    string
}

func (s *S3Sink) Write(ctx context.Context, evals []evaluate.MessageEvaluation) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, evals); err != nil {
		return "", err
	}
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(s.Key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(buf.Len())),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}
	return "s3://" + s.Bucket + "/" + s.Key, nil
}

// ParseS3URL splits s3://bucket/key. A key that is empty or ends in "/"
// is completed with runID + ".json".
func ParseS3URL(dest, runID string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(dest, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 url: %q", dest)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("s3 url %q has no bucket", dest)
	}
	if key == "" || strings.HasSuffix(key, "/") {
		key += runID + ".json"
	}
	return bucket, key, nil
}

// Open returns the sink for dest. s3:// destinations use the default AWS
// credential chain in region.
func Open(ctx context.Context, dest, runID, region string) (Sink, error) {
	if !strings.HasPrefix(dest, "s3://") {
		return &FileSink{Path: dest}, nil
	}
	bucket, key, err := ParseS3URL(dest, runID)
	if err != nil {
		return nil, err
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return &S3Sink{Client: s3.NewFromConfig(awsCfg), Bucket: bucket, Key: key}, nil
}
