package utils

import (
	"bytes"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["image"][0]
}

func TestMediaDirSaveAndRemove(t *testing.T) {
	root := t.TempDir()
	m := NewMediaDir(root, 1)

	name, err := m.Save(fileHeader(t, "Photo.PNG", pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "post_images/"))
	assert.True(t, strings.HasSuffix(name, ".png"))

	stored, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, stored)

	require.NoError(t, m.Remove(name))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(name)))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.NoError(t, m.Remove(name), "removing twice is fine")
}

func TestMediaDirRejectsNonImages(t *testing.T) {
	m := NewMediaDir(t.TempDir(), 1)
	_, err := m.Save(fileHeader(t, "notes.png", []byte("just some text")))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestMediaDirExtensionFollowsContent(t *testing.T) {
	root := t.TempDir()
	m := NewMediaDir(root, 1)

	disguised := append(append([]byte{}, pngHeader...), []byte("<script>alert(1)</script>")...)
	name, err := m.Save(fileHeader(t, "x.html", disguised))
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(name))

	gif := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00")
	name, err = m.Save(fileHeader(t, "anim.svg", gif))
	require.NoError(t, err)
	assert.Equal(t, ".gif", filepath.Ext(name))

	entries, err := os.ReadDir(filepath.Join(root, "post_images"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.Contains(t, []string{".png", ".gif"}, filepath.Ext(e.Name()))
	}
}

func TestMediaDirRejectsUnlistedImageTypes(t *testing.T) {
	m := NewMediaDir(t.TempDir(), 1)
	// image/bmp sniffs as an image but is not accepted.
	_, err := m.Save(fileHeader(t, "old.bmp", []byte("BM\x00\x00\x00\x00\x00\x00\x00\x00")))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestMediaDirRejectsLargeFiles(t *testing.T) {
	m := NewMediaDir(t.TempDir(), 1)
	big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 1024*1024)...)
	_, err := m.Save(fileHeader(t, "big.png", big))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestMediaDirRemoveIgnoresPathsOutsideImages(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(root, "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	m := NewMediaDir(root, 1)
	assert.NoError(t, m.Remove("../keep.txt"))
	assert.NoError(t, m.Remove("post_images/../keep.txt"))
	_, err := os.Stat(outside)
	assert.NoError(t, err)
}
