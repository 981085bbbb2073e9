package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalBackend keeps payloads as plain files directly under a base
// directory, one file per physical key.
type LocalBackend struct {
	basePath string
}

func NewLocalBackend(basePath string) (*LocalBackend, error) {
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalBackend{basePath: basePath}, nil
}

// resolve maps a key to an absolute path and rejects keys that would escape
// the base directory.
func (lb *LocalBackend) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty storage key")
	}

	absBase, err := filepath.Abs(lb.basePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}

	fullPath, err := filepath.Abs(filepath.Join(lb.basePath, key))
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}

	if !strings.HasPrefix(fullPath, absBase+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid storage key: path traversal detected")
	}

	return fullPath, nil
}

// ctxReader aborts a copy once the context is done, so a deadline also
// bounds writes fed from a slow source.
type ctxReader struct {
	ctx     context.Context
	content io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.content.Read(p)
}

// Put creates the blob. Physical keys are never reused, so an existing
// file under the same key is a collision and is reported as ErrBlobExists
// rather than overwritten.
func (lb *LocalBackend) Put(ctx context.Context, key string, content io.Reader) error {
	fullPath, err := lb.resolve(key)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		if os.IsExist(err) {
			return ErrBlobExists
		}
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, &ctxReader{ctx: ctx, content: content}); err != nil {
		os.Remove(fullPath)
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func (lb *LocalBackend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := lb.resolve(key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (lb *LocalBackend) Delete(ctx context.Context, key string) error {
	fullPath, err := lb.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (lb *LocalBackend) Exists(ctx context.Context, key string) (bool, error) {
	fullPath, err := lb.resolve(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
