package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidImage is wrapped by MediaDir.Save when the upload is rejected.
var ErrInvalidImage = errors.New("invalid image")

const postImagesDir = "post_images"

// imageExtensions maps accepted sniffed content types to the stored extension.
// The client's file name never decides how the file is served.
var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// MediaDir stores uploaded post images below a root directory.
type MediaDir struct {
	root     string
	maxBytes int64
}

// NewMediaDir returns a store rooted at root accepting files up to maxSizeMB.
func NewMediaDir(root string, maxSizeMB int) *MediaDir {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &MediaDir{root: root, maxBytes: int64(maxSizeMB) * 1024 * 1024}
}

// Root is the directory served as media.
func (m *MediaDir) Root() string { return m.root }

// Save writes the upload under post_images/ with a random name and returns
// the slash-separated name relative to the root.
func (m *MediaDir) Save(fh *multipart.FileHeader) (string, error) {
	if fh.Size > m.maxBytes {
		return "", fmt.Errorf("%w: file exceeds %d MB", ErrInvalidImage, m.maxBytes/1024/1024)
	}
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	ext, ok := imageExtensions[http.DetectContentType(head)]
	if !ok {
		return "", fmt.Errorf("%w: upload a valid image", ErrInvalidImage)
	}

	dir := filepath.Join(m.root, postImagesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}
	name := path.Join(postImagesDir, uuid.NewString()+ext)
	dst := filepath.Join(m.root, filepath.FromSlash(name))

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	lr := &io.LimitedReader{R: io.MultiReader(strings.NewReader(string(head)), src), N: m.maxBytes + 1}
	written, err := io.Copy(out, lr)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("write image file: %w", err)
	}
	if written > m.maxBytes {
		_ = os.Remove(dst)
		return "", fmt.Errorf("%w: file exceeds %d MB", ErrInvalidImage, m.maxBytes/1024/1024)
	}
	return name, nil
}

// Remove deletes a stored image. Names outside the root are ignored.
func (m *MediaDir) Remove(name string) error {
	clean := path.Clean("/" + name)
	if !strings.HasPrefix(clean, "/"+postImagesDir+"/") {
		return nil
	}
	err := os.Remove(filepath.Join(m.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
