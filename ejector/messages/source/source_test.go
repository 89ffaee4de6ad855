package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lidofinance/validator-ejector/testing/assert"
	"github.com/lidofinance/validator-ejector/testing/require"
)

func TestForLocation_Dispatch(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	// Keeps the storage client from looking up application default
	// credentials during construction.
	t.Setenv("STORAGE_EMULATOR_HOST", "localhost:0")
	ctx := context.Background()

	r, err := ForLocation(ctx, "s3://bucket/messages")
	require.NoError(t, err)
	_, ok := r.(*S3Reader)
	assert.Equal(t, true, ok, "expected an S3 reader for s3:// location")

	r, err = ForLocation(ctx, "gs://bucket/messages")
	require.NoError(t, err)
	_, ok = r.(*GCSReader)
	assert.Equal(t, true, ok, "expected a GCS reader for gs:// location")

	r, err = ForLocation(ctx, "/var/lib/ejector/messages")
	require.NoError(t, err)
	_, ok = r.(*DirReader)
	assert.Equal(t, true, ok, "expected a directory reader for local path")
}

func TestDirReader_ReadFolder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(`{"b":1}`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{"a":1}`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("skip"), 0600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0700))

	files, err := (&DirReader{}).ReadFolder(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 2, len(files))
	assert.Equal(t, "a.json", files[0].Name)
	assert.DeepEqual(t, []byte(`{"a":1}`), files[0].Content)
	assert.Equal(t, "b.json", files[1].Name)
	assert.DeepEqual(t, []byte(`{"b":1}`), files[1].Content)
}

func TestDirReader_MissingDirectory(t *testing.T) {
	_, err := (&DirReader{}).ReadFolder(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.ErrorContains(t, "could not read directory", err)
}

func TestSplitObjectURL(t *testing.T) {
	bucket, prefix, err := splitObjectURL("s3://exit-messages/operator-1", S3Scheme)
	require.NoError(t, err)
	assert.Equal(t, "exit-messages", bucket)
	assert.Equal(t, "operator-1", prefix)

	bucket, prefix, err = splitObjectURL("gs://exit-messages", GCSScheme)
	require.NoError(t, err)
	assert.Equal(t, "exit-messages", bucket)
	assert.Equal(t, "", prefix)

	_, _, err = splitObjectURL("s3://", S3Scheme)
	require.ErrorContains(t, "no bucket", err)
}
