// Package upload stores user images (receipts, avatars) on local disk.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"expense-tracker/internal/util"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrTooLarge = errors.New("file too large")
	ErrNotImage = errors.New("only image files are allowed")
)

// Store writes uploads into Dir and exposes them under URLPrefix.
type Store struct {
	Dir       string
	URLPrefix string
	MaxBytes  int64

	now func() time.Time
}

func NewStore(dir, urlPrefix string, maxBytes int64) *Store {
	return &Store{Dir: dir, URLPrefix: urlPrefix, MaxBytes: maxBytes, now: time.Now}
}

// Save validates and stores one multipart file. field is the form field name,
// used as the file name prefix. It returns the public URL of the stored file.
func (s *Store) Save(fh *multipart.FileHeader, field string) (string, error) {
	if fh.Size > s.MaxBytes {
		return "", ErrTooLarge
	}
	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		return "", ErrNotImage
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	// 声明的类型不可信，再按内容检测一次
	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect type: %w", err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", ErrNotImage
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	name, err := s.fileName(field, fh.Filename, mtype.Extension())
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	dst, err := os.OpenFile(filepath.Join(s.Dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	// 多读一个字节，用来发现实际内容超过声明大小的情况
	n, err := io.Copy(dst, io.LimitReader(src, s.MaxBytes+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil || n > s.MaxBytes {
		_ = os.Remove(filepath.Join(s.Dir, name))
		if err != nil {
			return "", fmt.Errorf("write file: %w", err)
		}
		return "", ErrTooLarge
	}

	return path.Join(s.URLPrefix, name), nil
}

// Remove deletes a previously stored file by its public URL. Unknown URLs are ignored.
func (s *Store) Remove(url string) error {
	if url == "" || !strings.HasPrefix(url, s.URLPrefix+"/") {
		return nil
	}
	name := path.Base(url)
	err := os.Remove(filepath.Join(s.Dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// fileName builds "<field>-<unix millis>-<random><ext>".
func (s *Store) fileName(field, original, detectedExt string) (string, error) {
	suffix, err := util.RandomString(9)
	if err != nil {
		return "", err
	}
	ext := detectedExt
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(original))
	}
	return fmt.Sprintf("%s-%d-%s%s", field, s.now().UnixMilli(), suffix, ext), nil
}
