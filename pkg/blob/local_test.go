package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	t.Run("put then get round-trips", func(t *testing.T) {
		uri, err := s.Put(ctx, "contracts/nda.pdf", []byte("pdf bytes"), "application/pdf")
		require.NoError(t, err)
		assert.Equal(t, "local://contracts/nda.pdf", uri)

		data, err := s.Get(ctx, uri)
		require.NoError(t, err)
		assert.Equal(t, []byte("pdf bytes"), data)
	})

	t.Run("get missing object returns not found", func(t *testing.T) {
		_, err := s.Get(ctx, "local://contracts/missing.pdf")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		uri, err := s.Put(ctx, "documents/memo.docx", []byte("doc"), "")
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, uri))
		require.NoError(t, s.Delete(ctx, uri))

		_, err = s.Get(ctx, uri)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("traversal keys are rejected", func(t *testing.T) {
		_, err := s.Put(ctx, "../outside.txt", []byte("x"), "")
		assert.Error(t, err)
	})

	t.Run("foreign uri scheme is rejected", func(t *testing.T) {
		_, err := s.Get(ctx, "s3://bucket/key")
		assert.Error(t, err)
	})
}

func TestParseS3URI(t *testing.T) {
	bucket, key, err := parseS3URI("s3://lexmind-blobs/contracts/c1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "lexmind-blobs", bucket)
	assert.Equal(t, "contracts/c1.pdf", key)

	_, _, err = parseS3URI("local://x")
	assert.Error(t, err)
	_, _, err = parseS3URI("s3://bucketonly")
	assert.Error(t, err)
}
