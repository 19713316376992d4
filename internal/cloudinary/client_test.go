package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"upscaler/internal/domain"
)

func testStrategy() domain.UpscalingStrategy {
	return domain.UpscalingStrategy{
		CanUpscale:     true,
		ProductType:    domain.CategoryApparel,
		Transformation: "e_upscale,w_2500,h_2500,c_fit,q_100,f_png",
		Target:         domain.Dimensions{Width: 2500, Height: 2500},
		QualityLevel:   "upscaled_4x",
	}
}

func newTestClient(baseURL string) *Client {
	c := New(Options{
		CloudName: "demo",
		APIKey:    "key123",
		APISecret: "secret456",
		BaseURL:   baseURL,
	})
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	return c
}

func TestUploadSendsSignedForm(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1_1/demo/image/upload" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		got = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"asset_id":"a1","public_id":"req-1_production","width":2500,"height":2500,"format":"png","bytes":1048576,"secure_url":"https://res.cloudinary.com/demo/req-1_production.png"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	result, err := client.Upload(context.Background(), "https://cdn.example.com/src.png", "req-1", testStrategy())
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if got.Get("public_id") != "req-1_production" {
		t.Errorf("public_id = %q", got.Get("public_id"))
	}
	if got.Get("folder") != "portreo_artworks_production" {
		t.Errorf("folder = %q", got.Get("folder"))
	}
	if got.Get("transformation") != "e_upscale,w_2500,h_2500,c_fit,q_100,f_png" {
		t.Errorf("transformation = %q", got.Get("transformation"))
	}
	if got.Get("tags") != "production,upscaled_4x,apparel" {
		t.Errorf("tags = %q", got.Get("tags"))
	}
	if got.Get("overwrite") != "true" {
		t.Errorf("overwrite = %q", got.Get("overwrite"))
	}
	if got.Get("file") != "https://cdn.example.com/src.png" {
		t.Errorf("file = %q", got.Get("file"))
	}
	if got.Get("api_key") != "key123" {
		t.Errorf("api_key = %q", got.Get("api_key"))
	}

	// Recompute the signature over the signed subset.
	signed := url.Values{}
	for _, key := range []string{"public_id", "folder", "transformation", "tags", "overwrite", "timestamp"} {
		signed.Set(key, got.Get(key))
	}
	raw := "folder=" + signed.Get("folder") +
		"&overwrite=" + signed.Get("overwrite") +
		"&public_id=" + signed.Get("public_id") +
		"&tags=" + signed.Get("tags") +
		"&timestamp=" + signed.Get("timestamp") +
		"&transformation=" + signed.Get("transformation") +
		"secret456"
	sum := sha1.Sum([]byte(raw))
	if got.Get("signature") != hex.EncodeToString(sum[:]) {
		t.Errorf("signature mismatch: %q", got.Get("signature"))
	}

	if result.SecureURL != "https://res.cloudinary.com/demo/req-1_production.png" {
		t.Errorf("secure_url = %q", result.SecureURL)
	}
	if result.Width != 2500 || result.Height != 2500 || result.Bytes != 1048576 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestUploadProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid transformation"}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Upload(context.Background(), "https://cdn.example.com/src.png", "req-1", testStrategy())
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("expected provider failure, got %v", err)
	}
}

func TestUploadMissingSecureURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"asset_id":"a1"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Upload(context.Background(), "https://cdn.example.com/src.png", "req-1", testStrategy())
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("expected provider failure, got %v", err)
	}
}

func TestUploadMissingCredentials(t *testing.T) {
	client := New(Options{CloudName: "demo"})
	_, err := client.Upload(context.Background(), "https://cdn.example.com/src.png", "req-1", testStrategy())
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("expected provider failure, got %v", err)
	}
}

func TestResourceAppliesDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1_1/demo/resources/image/upload/req-1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key123" || pass != "secret456" {
			t.Error("expected basic auth with api credentials")
		}
		w.Write([]byte(`{"bytes":2048}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	info, err := client.Resource(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("resource lookup failed: %v", err)
	}
	if info.Width != 1024 || info.Height != 1024 || info.Format != "png" {
		t.Fatalf("expected defaults, got %+v", info)
	}
	if info.Bytes != 2048 {
		t.Fatalf("bytes = %d", info.Bytes)
	}
}

func TestResourceNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Resource(context.Background(), "missing")
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("expected provider failure, got %v", err)
	}
}
