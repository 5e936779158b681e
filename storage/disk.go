package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DiskStore keeps files in a single local directory.
type DiskStore struct {
	dir    string
	limits Limits
	now    func() time.Time
	logger zerolog.Logger
}

// NewDiskStore creates dir if needed.
func NewDiskStore(dir string, limits Limits) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory %s: %w", dir, err)
	}
	return &DiskStore{
		dir:    dir,
		limits: limits,
		now:    time.Now,
		logger: log.With().Str("component", "diskStore").Logger(),
	}, nil
}

func (s *DiskStore) Save(ctx context.Context, upload Upload) (FileRef, error) {
	detected, err := s.limits.Check(upload)
	if err != nil {
		return FileRef{}, err
	}
	if err := ctx.Err(); err != nil {
		return FileRef{}, err
	}

	name := NewFileName(upload.Role, detected.Extension, s.now())
	target := filepath.Join(s.dir, name)

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return FileRef{}, fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := f.Write(upload.Data); err != nil {
		f.Close()
		os.Remove(target)
		return FileRef{}, fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(target)
		return FileRef{}, fmt.Errorf("close %s: %w", name, err)
	}

	s.logger.Debug().Str("name", name).Str("role", string(upload.Role)).Int("bytes", len(upload.Data)).Msg("stored upload")
	return FileRef{Name: name, URL: URLFor(name)}, nil
}

func (s *DiskStore) Open(ctx context.Context, name string) (*File, error) {
	if !ValidName(name) {
		return nil, ErrFileNotFound
	}

	target := filepath.Join(s.dir, name)
	f, err := os.Open(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrFileNotFound
	}

	// the bytes were checked on save; anything else is served as a download
	contentType := octetStream
	if mtype, err := mimetype.DetectFile(target); err == nil {
		contentType = ServedType(name, mtype.String())
	}

	return &File{
		Name:        name,
		ContentType: contentType,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		Body:        f,
	}, nil
}
