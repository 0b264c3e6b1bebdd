// Package storage is the local-filesystem object store backing the
// event-images bucket. Objects are written under <root>/<bucket>/<path> and a
// JPEG thumbnail is kept beside them under <root>/<bucket>/thumbs/.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventix/internal/config"
)

// EventImages is the only bucket the application uses.
const EventImages = "event-images"

const thumbDir = "thumbs"

var (
	ErrNotFound    = errors.New("object not found")
	ErrExists      = errors.New("the resource already exists")
	ErrNotImage    = errors.New("only image files are allowed")
	ErrTooLarge    = errors.New("image must be smaller than 5 MB")
	ErrInvalidPath = errors.New("invalid object path")
)

// Bucket stores objects for one bucket.
type Bucket struct {
	name       string
	dir        string
	publicBase string
	maxBytes   int64
	thumbWidth int
	log        logrus.FieldLogger
	openFile   func(name string, flag int, perm os.FileMode) (io.WriteCloser, error)
}

func openFile(name string, flag int, perm os.FileMode) (io.WriteCloser, error) {
	return os.OpenFile(name, flag, perm)
}

// New creates the bucket directory if needed.
func New(cfg config.StorageConfig, name string, log logrus.FieldLogger) (*Bucket, error) {
	dir := filepath.Join(cfg.Root, name)
	if err := os.MkdirAll(filepath.Join(dir, thumbDir), 0o755); err != nil {
		return nil, fmt.Errorf("create bucket %s: %w", name, err)
	}
	maxBytes := cfg.MaxImageBytes
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &Bucket{
		name:       name,
		dir:        dir,
		publicBase: strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxBytes:   maxBytes,
		thumbWidth: cfg.ThumbWidth,
		log:        log.WithField("bucket", name),
		openFile:   openFile,
	}, nil
}

// Name returns the bucket name.
func (b *Bucket) Name() string { return b.name }

// ObjectPath builds the storage key for a user's upload:
// <user>/<unix-ms>.<ext>.
func ObjectPath(userID, filename string, now time.Time) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		ext = "img"
	}
	return userID + "/" + strconv.FormatInt(now.UnixMilli(), 10) + "." + ext
}

// ThumbnailPath returns the key of the thumbnail generated for p.
func ThumbnailPath(p string) string {
	return thumbDir + "/" + strings.TrimSuffix(p, path.Ext(p)) + ".jpg"
}

func (b *Bucket) resolve(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", ErrInvalidPath
	}
	clean := path.Clean(p)
	if clean != p || clean == "." || strings.HasPrefix(clean, "../") || clean == ".." {
		return "", ErrInvalidPath
	}
	return filepath.Join(b.dir, filepath.FromSlash(clean)), nil
}

// Upload stores an image at p. The content must sniff as image/* and be no
// larger than the configured limit. Without upsert an existing object is
// never overwritten.
func (b *Bucket) Upload(ctx context.Context, p string, r io.Reader, upsert bool) error {
	if strings.HasPrefix(p, thumbDir+"/") {
		return ErrInvalidPath
	}
	full, err := b.resolve(p)
	if err != nil {
		return err
	}

	data, err := io.ReadAll(io.LimitReader(r, b.maxBytes+1))
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > b.maxBytes {
		return ErrTooLarge
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return ErrNotImage
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_EXCL
	if upsert {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := b.openFile(full, flags, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrExists
		}
		return fmt.Errorf("open object: %w", err)
	}
	// A partial object must not stay behind to be served.
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(full)
		return fmt.Errorf("write object: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return fmt.Errorf("close object: %w", err)
	}

	// A missing thumbnail is not fatal: formats imaging cannot decode are
	// still stored and served as-is.
	if err := b.writeThumbnail(p, data); err != nil {
		b.log.WithError(err).WithField("path", p).Warn("thumbnail not generated")
	}
	return nil
}

func (b *Bucket) writeThumbnail(p string, data []byte) error {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	if b.thumbWidth > 0 && img.Bounds().Dx() > b.thumbWidth {
		img = imaging.Resize(img, b.thumbWidth, 0, imaging.Lanczos)
	}
	full, err := b.resolve(ThumbnailPath(p))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create thumbnail dir: %w", err)
	}
	return imaging.Save(img, full, imaging.JPEGQuality(80))
}

// Open returns the stored object.
func (b *Bucket) Open(p string) (*os.File, error) {
	full, err := b.resolve(p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open object: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat object: %w", err)
	}
	// Directories are key prefixes, not objects.
	if info.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}
	return f, nil
}

// Remove deletes an object and its thumbnail. Removing a missing object is
// not an error.
func (b *Bucket) Remove(p string) error {
	full, err := b.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove object: %w", err)
	}
	if thumb, err := b.resolve(ThumbnailPath(p)); err == nil {
		_ = os.Remove(thumb)
	}
	return nil
}

// PublicURL returns the public URL of p. No existence check is made.
func (b *Bucket) PublicURL(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return b.publicBase + "/" + b.name + "/" + strings.Join(segments, "/")
}
