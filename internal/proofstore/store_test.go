package proofstore

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\x0D\x0A\x1A\x0A")

func png(size int) []byte {
	return append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, size-len(pngHeader))...)
}

func newStore(t *testing.T, maxSize int64) *Store {
	store, err := New(filepath.Join(t.TempDir(), "proofs"), maxSize)
	require.NoError(t, err)
	return store
}

func TestStore_Save(t *testing.T) {
	tests := []struct {
		name        string
		content     []byte
		expectedErr error
		expectedExt string
	}{
		{name: "PNG proof", content: png(1024), expectedExt: ".png"},
		{name: "JPEG proof", content: append([]byte("\xFF\xD8\xFF"), make([]byte, 100)...), expectedExt: ".jpg"},
		{name: "At size limit", content: png(2048), expectedExt: ".png"},
		{name: "Too large", content: png(2049), expectedErr: ErrTooLarge},
		{name: "Not an image", content: []byte("%PDF-1.4 not an image"), expectedErr: ErrUnsupportedType},
		{name: "Empty", content: nil, expectedErr: ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t, 2048)

			ref, err := store.Save(bytes.NewReader(tt.content))
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Empty(t, ref)
				entries, _ := os.ReadDir(store.dir)
				assert.Empty(t, entries, "rejected proofs must not stay on disk")
				return
			}

			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(ref, tt.expectedExt))

			rc, contentType, err := store.Open(ref)
			require.NoError(t, err)
			defer rc.Close()
			stored, _ := io.ReadAll(rc)
			assert.Equal(t, tt.content, stored)
			assert.True(t, strings.HasPrefix(contentType, "image/"))
		})
	}
}

func TestStore_OpenAndRemove(t *testing.T) {
	store := newStore(t, 4096)

	ref, err := store.Save(bytes.NewReader(png(100)))
	require.NoError(t, err)

	_, _, err = store.Open("../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = store.Open("missing.png")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Remove(ref))
	require.NoError(t, store.Remove(ref))
	_, _, err = store.Open(ref)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(4096), store.MaxSize())
}
