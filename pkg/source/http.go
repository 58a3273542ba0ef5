package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"time"

	"k8s.io/klog/v2"
)

// HTTPSource lists photos from a slideshow server. The server responds to
// GET <base>/photos with {"count": N, "photos": [{file, width, height,
// orientation}, ...]}.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
}

type photoListing struct {
	Count  int     `json:"count"`
	Photos []Entry `json:"photos"`
}

func (h *HTTPSource) List(ctx context.Context) ([]Entry, error) {
	body, err := h.get(ctx, h.BaseURL+"/photos")
	if err != nil {
		return nil, err
	}

	var listing photoListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("malformed listing: %w", err)
	}

	if listing.Count != len(listing.Photos) {
		klog.Warningf("listing count %d disagrees with %d entries", listing.Count, len(listing.Photos))
	}

	return listing.Photos, nil
}

// HTTPFetcher streams sized image variants from a slideshow server via
// GET <base>/photo?file=<ref>&size=<label>.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
}

func (h *HTTPFetcher) Fetch(ctx context.Context, ref string, size string) (*Asset, error) {
	q := url.Values{}
	q.Set("file", ref)
	q.Set("size", size)

	data, err := get(ctx, h.Client, h.Timeout, h.BaseURL+"/photo?"+q.Encode())
	if err != nil {
		return nil, err
	}

	ic, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref, err)
	}

	return &Asset{Path: ref, Data: data, Width: ic.Width, Height: ic.Height}, nil
}

func (h *HTTPSource) get(ctx context.Context, u string) ([]byte, error) {
	return get(ctx, h.Client, h.Timeout, u)
}

// get performs one bounded GET. A timeout is an ordinary failure for the
// item being fetched, never fatal to the caller's pipeline.
func get(ctx context.Context, client *http.Client, timeout time.Duration, u string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", u, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}
	return body, nil
}
