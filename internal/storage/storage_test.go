package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/locallens/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.UploadObject(ctx, "models/demand_model_product_1.json", []byte(`{"a":1}`)))
	require.NoError(t, s.UploadObject(ctx, "models/demand_model_product_2.json", []byte(`{}`)))
	require.NoError(t, s.UploadObject(ctx, "other.txt", []byte("x")))

	data, err := s.GetObject(ctx, "models/demand_model_product_1.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	objects, err := s.ListObjects(ctx, "models/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "models/demand_model_product_1.json", objects[0].Key)
	assert.Equal(t, int64(7), objects[0].Size)

	dest := filepath.Join(t.TempDir(), "copy", "model.json")
	require.NoError(t, s.DownloadObject(ctx, "models/demand_model_product_2.json", dest))
	copied, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(copied))
}

func TestLocalStorageMissingObject(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.GetObject(context.Background(), "nope.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorageKeysStayInsideRoot(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root)
	require.NoError(t, err)

	require.NoError(t, s.UploadObject(context.Background(), "../escape.json", []byte("{}")))
	_, err = os.Stat(filepath.Join(root, "escape.json"))
	assert.NoError(t, err)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(config.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)

	_, err = New(config.StorageConfig{Backend: "s3"})
	assert.Error(t, err)
}
