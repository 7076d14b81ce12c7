// Package storage stores product images in a gocloud.dev bucket and resolves their public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"

	"github.com/Abhijit5011/Electromart/pkg/config"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
)

// ProductsPrefix is the folder product images live under, both in the bucket and in public URLs.
const ProductsPrefix = "products"

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Uploader is the surface product handlers depend on.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	PublicURL(p string) string
}

// Bucket wraps an opened blob bucket.
type Bucket struct {
	bucket     *blob.Bucket
	publicBase string
	maxBytes   int64
}

// Open dials the configured bucket URL (gs://, file://, mem://).
func Open(ctx context.Context, cfg config.StorageConfig, logg *logger.Logger) (*Bucket, error) {
	if cfg.BucketURL == "" {
		return nil, errors.New("storage bucket url is required")
	}
	b, err := blob.OpenBucket(ctx, cfg.BucketURL)
	if err != nil {
		return nil, fmt.Errorf("opening bucket %q: %w", cfg.BucketURL, err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket_url", cfg.BucketURL), "storage bucket opened")
	}
	return New(b, cfg.PublicBaseURL, int64(cfg.MaxUploadMB)<<20), nil
}

// New wraps an already opened bucket. maxBytes <= 0 disables the size limit.
func New(b *blob.Bucket, publicBase string, maxBytes int64) *Bucket {
	return &Bucket{
		bucket:     b,
		publicBase: strings.TrimRight(publicBase, "/"),
		maxBytes:   maxBytes,
	}
}

// Upload writes an image under products/ and returns the stored path relative to that folder.
// An empty key gets a generated name.
func (b *Bucket) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unsupported image content type")
	}
	name := sanitizeKey(key)
	if name == "" {
		name = uuid.NewString() + ext
	}
	objectKey := path.Join(ProductsPrefix, name)

	// cancelling wctx before Close discards the object
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := b.bucket.NewWriter(wctx, objectKey, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open storage writer")
	}

	src := r
	if b.maxBytes > 0 {
		src = io.LimitReader(r, b.maxBytes+1)
	}
	n, err := io.Copy(w, src)
	if err != nil {
		cancel()
		_ = w.Close()
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write object")
	}
	if b.maxBytes > 0 && n > b.maxBytes {
		cancel()
		_ = w.Close()
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image exceeds upload limit")
	}
	if err := w.Close(); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commit object")
	}
	return name, nil
}

func sanitizeKey(key string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(key), "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}

// PublicURL resolves a stored image path. Values that already carry a URL scheme pass through.
func (b *Bucket) PublicURL(p string) string {
	return PublicURL(b.publicBase, p)
}

// PublicURL joins p onto base/products unless p is already absolute.
func PublicURL(base, p string) string {
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	p = strings.TrimPrefix(strings.TrimPrefix(p, "/"), ProductsPrefix+"/")
	return strings.TrimRight(base, "/") + "/" + ProductsPrefix + "/" + p
}

// ObjectName maps a stored image reference back to its name under products/.
// Absolute URLs resolve to whatever follows their last products/ segment.
func ObjectName(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		i := strings.LastIndex(ref, "/"+ProductsPrefix+"/")
		if i < 0 {
			return ""
		}
		return ref[i+len(ProductsPrefix)+2:]
	}
	return strings.TrimPrefix(strings.TrimPrefix(ref, "/"), ProductsPrefix+"/")
}

// Exists reports whether an object is present under products/.
func (b *Bucket) Exists(ctx context.Context, name string) (bool, error) {
	return b.bucket.Exists(ctx, path.Join(ProductsPrefix, name))
}

// Object is one stored product image.
type Object struct {
	Name    string
	ModTime time.Time
}

// ListModifiedBefore returns product images last written before cutoff. Names are relative to products/.
func (b *Bucket) ListModifiedBefore(ctx context.Context, cutoff time.Time) ([]Object, error) {
	iter := b.bucket.List(&blob.ListOptions{Prefix: ProductsPrefix + "/"})
	var out []Object
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list objects")
		}
		if obj.IsDir || !obj.ModTime.Before(cutoff) {
			continue
		}
		out = append(out, Object{
			Name:    strings.TrimPrefix(obj.Key, ProductsPrefix+"/"),
			ModTime: obj.ModTime,
		})
	}
}

// Delete removes a product image. Missing objects are not an error.
func (b *Bucket) Delete(ctx context.Context, name string) error {
	err := b.bucket.Delete(ctx, path.Join(ProductsPrefix, name))
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete object")
	}
	return nil
}

// Ping checks the bucket is reachable.
func (b *Bucket) Ping(ctx context.Context) error {
	ok, err := b.bucket.IsAccessible(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("storage bucket not accessible")
	}
	return nil
}

// Close releases the bucket.
func (b *Bucket) Close() error {
	return b.bucket.Close()
}
