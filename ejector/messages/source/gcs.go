package source

import (
	"context"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSReader reads message files from a gs://bucket/prefix location.
type GCSReader struct {
	client *storage.Client
}

// NewGCSReader builds a reader for Google Cloud Storage locations. The client
// is scoped to read-only object access; extra options are appended, so a
// caller can supply option.WithCredentialsJSON.
func NewGCSReader(ctx context.Context, opts ...option.ClientOption) (*GCSReader, error) {
	opts = append([]option.ClientOption{option.WithScopes(storage.ScopeReadOnly)}, opts...)
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "could not create cloud storage client")
	}
	return &GCSReader{client: client}, nil
}

// ReadFolder implements Reader.
func (r *GCSReader) ReadFolder(ctx context.Context, location string) ([]File, error) {
	bucket, prefix, err := splitObjectURL(location, GCSScheme)
	if err != nil {
		return nil, err
	}
	var names []string
	it := r.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "could not list gs://%s/%s", bucket, prefix)
		}
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		names = append(names, attrs.Name)
	}

	files := make([]File, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(downloadWorkers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			rc, err := r.client.Bucket(bucket).Object(name).NewReader(gctx)
			if err != nil {
				return errors.Wrapf(err, "could not open gs://%s/%s", bucket, name)
			}
			content, readErr := io.ReadAll(rc)
			if err := rc.Close(); err != nil && readErr == nil {
				readErr = err
			}
			if readErr != nil {
				return errors.Wrapf(readErr, "could not read gs://%s/%s", bucket, name)
			}
			files[i] = File{Name: path.Base(name), Content: content}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}
