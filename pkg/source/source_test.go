package source

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const diseases = "id,name,type\n1,Influenza,viral\n"

func TestDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "diseases.csv"), []byte(diseases), 0644))

	src, err := Open(context.Background(), dir, S3Options{})
	require.NoError(t, err)
	assert.Equal(t, dir, src.Location())

	f, err := src.Open(context.Background(), "diseases.csv")
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, diseases, string(data))
	assert.Equal(t, int64(len(diseases)), f.Size())

	want := xxhash.Sum64String(diseases)
	assert.Equal(t, want, mustParseHex(t, f.Digest()))

	_, err = src.Open(context.Background(), "missing.csv")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestDirRejectsEscapingNames(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "data")
	require.NoError(t, os.Mkdir(root, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.csv"), []byte(diseases), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "diseases.csv"), []byte(diseases), 0644))

	src, err := NewDir(root)
	require.NoError(t, err)

	for _, name := range []string{"../secret.csv", "a/../../secret.csv", filepath.Join(parent, "secret.csv"), ""} {
		_, err := src.Open(context.Background(), name)
		assert.ErrorContains(t, err, "outside", name)
	}

	f, err := src.Open(context.Background(), "./diseases.csv")
	require.NoError(t, err)
	f.Close()
}

func TestNewDirRejectsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "x.csv")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err := NewDir(file)
	assert.Error(t, err)

	_, err = NewDir(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri, bucket, prefix string
		wantErr             bool
	}{
		{"s3://medical/data/", "medical", "data", false},
		{"s3://medical", "medical", "", false},
		{"s3://medical/a/b", "medical", "a/b", false},
		{"s3:///data", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, prefix, err := parseS3URI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.prefix, prefix)
		})
	}
}

type fakeS3 struct {
	objects map[string]string
	keys    []string
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.keys = append(f.keys, key)
	body, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"medical/v1/diseases.csv": diseases}}
	src := &S3{client: client, bucket: "medical", prefix: "v1"}
	assert.Equal(t, "s3://medical/v1", src.Location())

	f, err := src.Open(context.Background(), "diseases.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, diseases, string(data))
	assert.Equal(t, xxhash.Sum64String(diseases), mustParseHex(t, f.Digest()))

	_, err = src.Open(context.Background(), "symptoms.csv")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, []string{"medical/v1/diseases.csv", "medical/v1/symptoms.csv"}, client.keys)
}

func mustParseHex(t *testing.T, s string) uint64 {
	t.Helper()
	require.Len(t, s, 16)
	v, err := strconv.ParseUint(s, 16, 64)
	require.NoError(t, err)
	return v
}
