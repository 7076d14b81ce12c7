package storage

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
)

func newTestBucket(t *testing.T, maxBytes int64) *Bucket {
	t.Helper()
	b := New(memblob.OpenBucket(nil), "https://cdn.example.com/storage/", maxBytes)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestUploadStoresUnderProducts(t *testing.T) {
	ctx := context.Background()
	b := newTestBucket(t, 1024)

	name, err := b.Upload(ctx, "../led bulb.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "led-bulb.png", name)

	ok, err := b.Exists(ctx, name)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, "https://cdn.example.com/storage/products/"+name, b.PublicURL(name))
}

func TestUploadGeneratesNameWhenKeyEmpty(t *testing.T) {
	b := newTestBucket(t, 0)
	name, err := b.Upload(context.Background(), "", "image/webp", strings.NewReader("webp"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".webp"))
	assert.NotContains(t, name, "/")
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	b := newTestBucket(t, 0)
	_, err := b.Upload(context.Background(), "notes.txt", "text/plain", strings.NewReader("hi"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUploadRejectsOversizedImage(t *testing.T) {
	b := newTestBucket(t, 4)
	_, err := b.Upload(context.Background(), "big.jpg", "image/jpeg", bytes.NewReader([]byte("0123456789")))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestPublicURL(t *testing.T) {
	cases := map[string]string{
		"https://images.example.com/a.png": "https://images.example.com/a.png",
		"http://images.example.com/a.png":  "http://images.example.com/a.png",
		"a.png":                            "https://cdn.example.com/products/a.png",
		"/a.png":                           "https://cdn.example.com/products/a.png",
		"products/a.png":                   "https://cdn.example.com/products/a.png",
		"":                                 "",
	}
	for in, want := range cases {
		assert.Equal(t, want, PublicURL("https://cdn.example.com/", in), in)
	}
}

func TestPing(t *testing.T) {
	b := newTestBucket(t, 0)
	require.NoError(t, b.Ping(context.Background()))
}

func TestListModifiedBeforeAndDelete(t *testing.T) {
	ctx := context.Background()
	b := newTestBucket(t, 0)

	_, err := b.Upload(ctx, "fan.png", "image/png", strings.NewReader("fan"))
	require.NoError(t, err)
	_, err = b.Upload(ctx, "lamp.jpg", "image/jpeg", strings.NewReader("lamp"))
	require.NoError(t, err)

	none, err := b.ListModifiedBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := b.ListModifiedBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	names := []string{}
	for _, obj := range all {
		names = append(names, obj.Name)
	}
	assert.ElementsMatch(t, []string{"fan.png", "lamp.jpg"}, names)

	require.NoError(t, b.Delete(ctx, "fan.png"))
	require.NoError(t, b.Delete(ctx, "fan.png"), "deleting a missing object is not an error")
	ok, err := b.Exists(ctx, "fan.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "fan.png", ObjectName("fan.png"))
	assert.Equal(t, "fan.png", ObjectName("/products/fan.png"))
	assert.Equal(t, "fan.png", ObjectName("https://cdn.example.com/storage/products/fan.png"))
	assert.Equal(t, "", ObjectName("https://img.example.com/fan.png"))
}
