// Package source fetches exit message files from wherever an operator keeps
// them. A location is either a local directory path or an object store URL of
// the form s3://bucket/prefix or gs://bucket/prefix.
package source

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Location URL schemes understood by ForLocation.
const (
	S3Scheme  = "s3://"
	GCSScheme = "gs://"
)

// downloadWorkers bounds concurrent object downloads per folder read.
const downloadWorkers = 8

// File is one fetched message file.
type File struct {
	Name    string
	Content []byte
}

// Reader lists and downloads every message file under a location.
type Reader interface {
	ReadFolder(ctx context.Context, location string) ([]File, error)
}

// ForLocation returns the reader matching the location's scheme. Object store
// credentials come from the standard environment: the AWS credential chain
// for s3:// locations and application default credentials for gs://.
func ForLocation(ctx context.Context, location string) (Reader, error) {
	switch {
	case strings.HasPrefix(location, S3Scheme):
		return NewS3Reader(ctx, &S3Config{
			Region:    os.Getenv("AWS_REGION"),
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		})
	case strings.HasPrefix(location, GCSScheme):
		return NewGCSReader(ctx)
	default:
		return &DirReader{}, nil
	}
}

// splitObjectURL breaks s3://bucket/a/b into ("bucket", "a/b").
func splitObjectURL(location, scheme string) (bucket, prefix string, err error) {
	rest := strings.TrimPrefix(location, scheme)
	parts := strings.SplitN(rest, "/", 2)
	if parts[0] == "" {
		return "", "", errors.Errorf("no bucket in location %s", location)
	}
	if len(parts) == 2 {
		prefix = parts[1]
	}
	return parts[0], prefix, nil
}
