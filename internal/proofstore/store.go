package proofstore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrTooLarge        = errors.New("proof file is too large")
	ErrUnsupportedType = errors.New("proof must be a PNG, JPEG, GIF or WebP image")
	ErrNotFound        = errors.New("proof not found")
)

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store keeps payment proof images on local disk. A reference is the
// stored file name.
type Store struct {
	dir     string
	maxSize int64
}

func New(dir string, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("can't create proof dir: %w", err)
	}
	return &Store{dir: dir, maxSize: maxSize}, nil
}

func (s *Store) MaxSize() int64 {
	return s.maxSize
}

func (s *Store) Save(r io.Reader) (string, error) {
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", err
	}
	ext, ok := extensions[http.DetectContentType(head)]
	if !ok {
		return "", ErrUnsupportedType
	}

	ref := uuid.NewString() + ext
	path := filepath.Join(s.dir, ref)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", fmt.Errorf("can't create proof file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(br, s.maxSize+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && n > s.maxSize {
		err = ErrTooLarge
	}
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			zap.L().Error("can't remove rejected proof", zap.String("ref", ref), zap.Error(rmErr))
		}
		return "", err
	}

	zap.L().Info("proof stored", zap.String("ref", ref), zap.Int64("bytes", n))
	return ref, nil
}

func (s *Store) path(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return "", ErrNotFound
	}
	return filepath.Join(s.dir, ref), nil
}

// Open returns the proof content and its content type.
func (s *Store) Open(ref string) (io.ReadCloser, string, error) {
	path, err := s.path(ref)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	contentType := "application/octet-stream"
	for ct, ext := range extensions {
		if strings.HasSuffix(ref, ext) {
			contentType = ct
			break
		}
	}
	return f, contentType, nil
}

func (s *Store) Remove(ref string) error {
	path, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
