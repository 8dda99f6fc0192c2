package preload

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"github.com/Snider/Preloader/pkg/asset"
	"github.com/Snider/Preloader/pkg/blob"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Loader loads one asset. Loaders that keep data in memory return the
// handle; loaders that only warm a cache return an empty handle.
type Loader interface {
	Load(ctx context.Context, d asset.Descriptor) (blob.Handle, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, d asset.Descriptor) (blob.Handle, error)

// Load calls f(ctx, d).
func (f LoaderFunc) Load(ctx context.Context, d asset.Descriptor) (blob.Handle, error) {
	return f(ctx, d)
}

// imageLoader fetches and decodes an image. Nothing is retained; decoding
// only proves the asset is usable.
type imageLoader struct {
	client *http.Client
}

func (l *imageLoader) Load(ctx context.Context, d asset.Descriptor) (blob.Handle, error) {
	resp, err := get(ctx, l.client, d.URL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if _, _, err := image.Decode(resp.Body); err != nil {
		return "", classify(ctx, ErrDecode, err)
	}
	return "", nil
}

// mediaLoader fetches video or audio bytes into the handle store.
type mediaLoader struct {
	client *http.Client
	store  *blob.Store
}

func (l *mediaLoader) Load(ctx context.Context, d asset.Descriptor) (blob.Handle, error) {
	resp, err := get(ctx, l.client, d.URL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(ctx, ErrNetwork, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return l.store.Create(data, contentType), nil
}

// get issues a GET bound to ctx and rejects non-2xx responses.
func get(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, classify(ctx, ErrNetwork, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, classify(ctx, ErrNetwork, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}
	return resp, nil
}
