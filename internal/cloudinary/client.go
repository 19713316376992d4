package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"upscaler/internal/domain"
)

const (
	defaultBaseURL      = "https://api.cloudinary.com"
	defaultUploadFolder = "portreo_artworks_production"
	productionIDSuffix  = "_production"
)

type Options struct {
	CloudName    string
	APIKey       string
	APISecret    string
	BaseURL      string
	UploadFolder string
	HTTPClient   *http.Client
	Timeout      time.Duration
}

// Client talks to the Cloudinary upload and admin APIs. It issues single
// requests and leaves retries to the caller.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	cloudName    string
	apiKey       string
	apiSecret    string
	uploadFolder string
	now          func() time.Time
}

func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	folder := opts.UploadFolder
	if folder == "" {
		folder = defaultUploadFolder
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient:   client,
		baseURL:      base,
		cloudName:    strings.TrimSpace(opts.CloudName),
		apiKey:       strings.TrimSpace(opts.APIKey),
		apiSecret:    strings.TrimSpace(opts.APISecret),
		uploadFolder: folder,
		now:          time.Now,
	}
}

type uploadResponse struct {
	AssetID   string `json:"asset_id"`
	PublicID  string `json:"public_id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	Bytes     int64  `json:"bytes"`
	SecureURL string `json:"secure_url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload asks Cloudinary to ingest the source URL with the strategy's
// transformation applied. The produced asset is tagged for auditing and keyed
// by a deterministic public id derived from the request id, so a repeated call
// overwrites rather than duplicates.
func (c *Client) Upload(ctx context.Context, sourceURL, requestID string, strategy domain.UpscalingStrategy) (domain.TransformationResult, error) {
	if c.cloudName == "" || c.apiKey == "" || c.apiSecret == "" {
		return domain.TransformationResult{}, fmt.Errorf("%w: cloudinary credentials are missing", domain.ErrProviderFailure)
	}

	params := url.Values{}
	params.Set("public_id", requestID+productionIDSuffix)
	params.Set("folder", c.uploadFolder)
	params.Set("transformation", strategy.Transformation)
	params.Set("tags", strings.Join([]string{"production", strategy.QualityLevel, string(strategy.ProductType)}, ","))
	params.Set("overwrite", "true")
	params.Set("timestamp", strconv.FormatInt(c.now().UTC().Unix(), 10))
	params.Set("signature", c.sign(params))
	params.Set("api_key", c.apiKey)
	params.Set("file", sourceURL)

	endpoint := fmt.Sprintf("%s/v1_1/%s/image/upload", c.baseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return domain.TransformationResult{}, fmt.Errorf("%w: build upload request: %v", domain.ErrProviderFailure, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.TransformationResult{}, fmt.Errorf("%w: upload request: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.TransformationResult{}, fmt.Errorf("%w: decode upload response (http %d): %v", domain.ErrProviderFailure, resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if out.Error.Message != "" {
			return domain.TransformationResult{}, fmt.Errorf("%w: %s (http %d)", domain.ErrProviderFailure, out.Error.Message, resp.StatusCode)
		}
		return domain.TransformationResult{}, fmt.Errorf("%w: http %d", domain.ErrProviderFailure, resp.StatusCode)
	}
	if out.SecureURL == "" {
		return domain.TransformationResult{}, fmt.Errorf("%w: upload response missing secure_url", domain.ErrProviderFailure)
	}

	return domain.TransformationResult{
		Width:     out.Width,
		Height:    out.Height,
		Bytes:     out.Bytes,
		Format:    out.Format,
		AssetID:   out.AssetID,
		SecureURL: out.SecureURL,
	}, nil
}

type resourceResponse struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Bytes  int64  `json:"bytes"`
}

// Resource fetches the current pixel dimensions and encoding of an asset from
// the admin API. Missing fields take documented defaults so a sparse response
// is never a runtime surprise.
func (c *Client) Resource(ctx context.Context, publicID string) (domain.ImageInfo, error) {
	endpoint := fmt.Sprintf("%s/v1_1/%s/resources/image/upload/%s", c.baseURL, c.cloudName, url.PathEscape(publicID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.ImageInfo{}, fmt.Errorf("%w: build resource request: %v", domain.ErrProviderFailure, err)
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ImageInfo{}, fmt.Errorf("%w: resource request: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.ImageInfo{}, fmt.Errorf("%w: resource lookup http %d", domain.ErrProviderFailure, resp.StatusCode)
	}

	var out resourceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.ImageInfo{}, fmt.Errorf("%w: decode resource response: %v", domain.ErrProviderFailure, err)
	}

	info := domain.ImageInfo{Width: out.Width, Height: out.Height, Format: out.Format, Bytes: out.Bytes}
	if info.Width == 0 {
		info.Width = 1024
	}
	if info.Height == 0 {
		info.Height = 1024
	}
	if info.Format == "" {
		info.Format = "png"
	}
	return info, nil
}

// sign produces the Cloudinary request signature: the alphabetically sorted
// parameter string (excluding file, api_key and signature itself) with the
// API secret appended, hashed with SHA-1.
func (c *Client) sign(params url.Values) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		if key == "file" || key == "api_key" || key == "signature" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params.Get(key))
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.apiSecret))
	return hex.EncodeToString(sum[:])
}
