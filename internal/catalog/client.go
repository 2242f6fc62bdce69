package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"valvefinder/internal"
	"valvefinder/internal/config"
	"valvefinder/internal/util"
)

// Client talks to the valve backend (catalog, detail, image index, Excel
// upload and the training capture endpoints).
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

type imagesIndexPayload struct {
	Items []struct {
		ID    string `json:"id"`
		Image string `json:"image"`
		Count int    `json:"count"`
	} `json:"items"`
}

type uploadPayload struct {
	Inserted int    `json:"inserted"`
	Detail   string `json:"detail"`
}

type requestBody struct {
	contentType string
	data        []byte
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.BackendTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.BackendRateLimitRPS),
	}
}

// ListValves returns the backend catalog (GET /valves).
func (c *Client) ListValves(ctx context.Context) ([]internal.BackendValve, error) {
	body, err := c.request(ctx, http.MethodGet, "valves", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeValveList(body)
}

// GetValve returns one backend valve (GET /valves/{id}); ErrNotFound on 404.
func (c *Client) GetValve(ctx context.Context, id string) (internal.BackendValve, error) {
	body, err := c.request(ctx, http.MethodGet, "valves/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return internal.BackendValve{}, err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return internal.BackendValve{}, err
	}
	return ToBackendValve(raw)
}

// ImagesIndex returns one representative image per reference folder
// (GET /images_index). Image paths are resolved against the backend URL.
func (c *Client) ImagesIndex(ctx context.Context) ([]internal.ImageEntry, error) {
	body, err := c.request(ctx, http.MethodGet, "images_index", nil, nil)
	if err != nil {
		return nil, err
	}
	var payload imagesIndexPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	base := strings.TrimRight(c.cfg.BackendURL, "/")
	out := make([]internal.ImageEntry, 0, len(payload.Items))
	for _, it := range payload.Items {
		id := strings.TrimSpace(it.ID)
		if id == "" {
			continue
		}
		out = append(out, internal.ImageEntry{
			ID:       id,
			Ref:      id,
			ImageURL: base + it.Image,
			Name:     util.TitleFromFilename(id),
		})
	}
	return out, nil
}

// UploadExcel sends a valve spreadsheet to the backend and returns how many
// rows it inserted.
func (c *Client) UploadExcel(ctx context.Context, path string) (int, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return 0, err
	}
	if _, err := part.Write(blob); err != nil {
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}

	body, err := c.request(ctx, http.MethodPost, "valves/upload_excel", nil, &requestBody{contentType: w.FormDataContentType(), data: buf.Bytes()})
	if err != nil {
		return 0, err
	}
	var payload uploadPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, err
	}
	return payload.Inserted, nil
}

// StartTraining starts a capture session that tags frames with ref.
func (c *Client) StartTraining(ctx context.Context, ref string) error {
	if strings.TrimSpace(ref) == "" {
		return errors.New("training needs a selected ref")
	}
	_, err := c.request(ctx, http.MethodPost, "cv/start", map[string]string{"train": "1", "ref": ref}, nil)
	return err
}

// FinalizeTraining closes the capture session on the backend.
func (c *Client) FinalizeTraining(ctx context.Context) error {
	_, err := c.request(ctx, http.MethodPost, "train/finalize", nil, nil)
	return err
}

func (c *Client) request(ctx context.Context, method, endpoint string, params map[string]string, payload *requestBody) ([]byte, error) {
	baseURL := strings.TrimRight(c.cfg.BackendURL, "/") + "/"
	u, err := url.Parse(baseURL + endpoint)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	attempts := c.cfg.BackendMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.limiter.WaitTurn(ctx); err != nil {
			return nil, err
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload.data)
		}
		req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", payload.contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s %s: %w", method, endpoint, ErrNotFound)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < attempts {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(backoff):
				}
				lastErr = fmt.Errorf("valve backend status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("valve backend error: status=%d body=%s", resp.StatusCode, string(body))
		}
		return body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("valve backend request failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
