package repository

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domrepo "FinForecast/internal/domain/repository"
)

func exerciseArtifactStore(t *testing.T, s domrepo.ArtifactStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "models/IBM.json")
	assert.ErrorIs(t, err, domrepo.ErrArtifactNotFound)

	ok, err := s.Exists(ctx, "models/IBM.json")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "models/IBM.json", []byte(`{"a":1}`)))
	require.NoError(t, s.Put(ctx, "models/IBM.json", []byte(`{"a":2}`)))

	got, err := s.Get(ctx, "models/IBM.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(got))

	ok, err = s.Exists(ctx, "models/IBM.json")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "models/IBM.json"))
	ok, err = s.Exists(ctx, "models/IBM.json")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileArtifactStore(t *testing.T) {
	s, err := NewFileArtifactStore(t.TempDir())
	require.NoError(t, err)
	exerciseArtifactStore(t, s)
}

func TestFileArtifactStoreRejectsEscapes(t *testing.T) {
	s, err := NewFileArtifactStore(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, s.Put(context.Background(), "../outside.json", []byte("x")))
	assert.Error(t, s.Put(context.Background(), "/etc/passwd", []byte("x")))
}

func TestMemoryArtifactStore(t *testing.T) {
	exerciseArtifactStore(t, NewMemoryArtifactStore())
}

// fakeS3 keeps objects in a map and answers like the real service.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3ArtifactStore(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	s, err := NewS3ArtifactStore(fake, "artifacts", "forecast")
	require.NoError(t, err)
	exerciseArtifactStore(t, s)

	require.NoError(t, s.Put(context.Background(), "scalers/IBM.json", []byte("{}")))
	assert.Contains(t, fake.objects, "artifacts/forecast/scalers/IBM.json")
}

func TestS3ArtifactStoreRequiresBucket(t *testing.T) {
	_, err := NewS3ArtifactStore(&fakeS3{}, "", "")
	assert.Error(t, err)
}

func TestNormalizeTicker(t *testing.T) {
	got, err := NormalizeTicker(" ibm ")
	require.NoError(t, err)
	assert.Equal(t, "IBM", got)

	got, err = NormalizeTicker("brk.b")
	require.NoError(t, err)
	assert.Equal(t, "BRK.B", got)

	for _, bad := range []string{"", "../x", "A/B", "TOOLONGTICKERSYMBOL1"} {
		_, err := NormalizeTicker(bad)
		assert.Error(t, err, bad)
	}
}
