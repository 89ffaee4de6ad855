package source

import (
	"context"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// S3Config carries explicit credentials for the s3 reader. When AccessKey is
// empty the SDK default credential chain is used instead.
type S3Config struct {
	Region    string
	AccessKey string
	SecretKey string
}

// S3Reader reads message files from an s3://bucket/prefix location.
type S3Reader struct {
	client     *s3.Client
	downloader *manager.Downloader
}

// NewS3Reader builds a reader for S3 locations.
func NewS3Reader(ctx context.Context, cfg *S3Config) (*S3Reader, error) {
	if cfg == nil {
		cfg = &S3Config{}
	}
	var client *s3.Client
	if cfg.AccessKey != "" {
		client = s3.New(s3.Options{
			Region:      cfg.Region,
			Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "could not load AWS configuration")
		}
		if cfg.Region != "" {
			awsCfg.Region = cfg.Region
		}
		client = s3.NewFromConfig(awsCfg)
	}
	return &S3Reader{client: client, downloader: manager.NewDownloader(client)}, nil
}

// ReadFolder implements Reader. Objects are listed in the order S3 returns
// them, which is lexicographic by key.
func (r *S3Reader) ReadFolder(ctx context.Context, location string) ([]File, error) {
	bucket, prefix, err := splitObjectURL(location, S3Scheme)
	if err != nil {
		return nil, err
	}
	var keys []string
	var token *string
	for {
		out, err := r.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "could not list s3://%s/%s", bucket, prefix)
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			keys = append(keys, key)
		}
		if out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}

	files := make([]File, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(downloadWorkers)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			buf := manager.NewWriteAtBuffer([]byte{})
			if _, err := r.downloader.Download(gctx, buf, &s3.GetObjectInput{
				Bucket: aws.String(bucket),
				Key:    aws.String(key),
			}); err != nil {
				return errors.Wrapf(err, "could not download s3://%s/%s", bucket, key)
			}
			files[i] = File{Name: path.Base(key), Content: buf.Bytes()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}
