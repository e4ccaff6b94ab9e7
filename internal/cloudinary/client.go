// Package cloudinary stores profile photos through the Cloudinary REST API.
package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.cloudinary.com/v1_1"

// Client signs requests with the account's API secret.
type Client struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	BaseURL   string
	HTTP      *http.Client
	now       func() time.Time
}

// New creates a Cloudinary client uploading into folder.
func New(cloudName, apiKey, apiSecret, folder string) *Client {
	return &Client{
		CloudName: cloudName,
		APIKey:    apiKey,
		APISecret: apiSecret,
		Folder:    folder,
		BaseURL:   defaultBaseURL,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		now:       time.Now,
	}
}

// UploadResult is the subset of the upload response we keep.
type UploadResult struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Bytes     int    `json:"bytes"`
}

type destroyResult struct {
	Result string `json:"result"`
}

// UploadPhoto uploads an image and returns its HTTPS URL and public id.
func (c *Client) UploadPhoto(ctx context.Context, data []byte, filename string) (string, string, error) {
	params := c.signed(map[string]string{"folder": c.Folder})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range params {
		_ = w.WriteField(k, v)
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", "", fmt.Errorf("cloudinary: create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", "", fmt.Errorf("cloudinary: write file: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", "", fmt.Errorf("cloudinary: close form: %w", err)
	}

	var res UploadResult
	if err := c.post(ctx, "upload", w.FormDataContentType(), &buf, &res); err != nil {
		return "", "", err
	}
	if res.SecureURL == "" || res.PublicID == "" {
		return "", "", fmt.Errorf("cloudinary: upload response missing url or public_id")
	}
	return res.SecureURL, res.PublicID, nil
}

// DeletePhoto removes a previously uploaded image. A missing image is not an error.
func (c *Client) DeletePhoto(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	params := c.signed(map[string]string{"public_id": publicID})

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range params {
		_ = w.WriteField(k, v)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("cloudinary: close form: %w", err)
	}

	var res destroyResult
	if err := c.post(ctx, "destroy", w.FormDataContentType(), &buf, &res); err != nil {
		return err
	}
	switch res.Result {
	case "ok", "not found":
		return nil
	default:
		return fmt.Errorf("cloudinary: destroy %s: %q", publicID, res.Result)
	}
}

func (c *Client) post(ctx context.Context, action, contentType string, body io.Reader, out any) error {
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	url := fmt.Sprintf("%s/%s/image/%s", strings.TrimRight(base, "/"), c.CloudName, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("cloudinary: create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("cloudinary: %s request: %w", action, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("cloudinary: %s failed (%d): %s", action, resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("cloudinary: decode %s response: %w", action, err)
	}
	return nil
}

// signed adds timestamp, api_key and signature to params, dropping empty values.
func (c *Client) signed(params map[string]string) map[string]string {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	out := map[string]string{
		"timestamp": strconv.FormatInt(now().Unix(), 10),
		"api_key":   c.APIKey,
	}
	for k, v := range params {
		if v != "" {
			out[k] = v
		}
	}
	out["signature"] = c.sign(out)
	return out
}

// sign computes the SHA-1 request signature. api_key, file and
// resource_type are not part of the signed payload.
func (c *Client) sign(params map[string]string) string {
	exclude := map[string]bool{"api_key": true, "file": true, "resource_type": true, "signature": true}

	pairs := make([]string, 0, len(params))
	for k, v := range params {
		if !exclude[k] && v != "" {
			pairs = append(pairs, k+"="+v)
		}
	}
	sort.Strings(pairs)

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.APISecret))
	return fmt.Sprintf("%x", sum)
}
