package storage

import (
	"testing"

	infraconfig "github.com/edibridge/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validStorageConfig() *infraconfig.StorageConfig {
	return &infraconfig.StorageConfig{
		Enabled:        true,
		Endpoint:       "localhost:9000",
		Region:         "us-east-1",
		Bucket:         "edibridge-documents",
		AccessKey:      "test-access",
		SecretKey:      "test-secret",
		Prefix:         "documents",
		ForcePathStyle: true,
	}
}

func TestNewS3DocumentStore(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		store, err := NewS3DocumentStore(validStorageConfig())
		require.NoError(t, err)
		assert.Equal(t, "edibridge-documents", store.Bucket())
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3DocumentStore(nil)
		assert.Error(t, err)
	})

	t.Run("missing bucket", func(t *testing.T) {
		cfg := validStorageConfig()
		cfg.Bucket = ""
		_, err := NewS3DocumentStore(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket")
	})

	t.Run("missing credentials", func(t *testing.T) {
		cfg := validStorageConfig()
		cfg.AccessKey = ""
		_, err := NewS3DocumentStore(cfg)
		assert.Error(t, err)

		cfg = validStorageConfig()
		cfg.SecretKey = ""
		_, err = NewS3DocumentStore(cfg)
		assert.Error(t, err)
	})
}

func TestS3DocumentStore_ObjectKey(t *testing.T) {
	store, err := NewS3DocumentStore(validStorageConfig())
	require.NoError(t, err)

	assert.Equal(t, "documents/inbox/msg-1.xml", store.objectKey("inbox/msg-1.xml"))
	assert.Equal(t, "documents/inbox/msg-1.xml", store.objectKey("/inbox/msg-1.xml"))

	cfg := validStorageConfig()
	cfg.Prefix = ""
	bare, err := NewS3DocumentStore(cfg)
	require.NoError(t, err)
	assert.Equal(t, "inbox/msg-1.xml", bare.objectKey("inbox/msg-1.xml"))
}
