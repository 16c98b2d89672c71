package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	ErrRequestFailed = errors.New("API request failed")
)

// AutoMapCollection is the synthetic collection entry meaning "let the
// server classify the document".
const AutoMapCollection = "auto-map"

const defaultRequestTimeout = 30 * time.Second

// Client handles communication with the chat service backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	validate   *validator.Validate
	log        *zap.Logger
}

// NewClient creates a new backend client. The timeout applies to
// non-streaming requests only; the chat stream stays open until it
// completes or is cancelled.
func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    timeout,
		validate:   validator.New(),
		log:        log,
	}
}

// ChatStream sends a chat message and streams the response. The callback
// is called for each decoded event until the stream terminates.
func (c *Client) ChatStream(ctx context.Context, sessionID, message string, fn Callback) error {
	reqBody := ChatRequest{
		SessionID: sessionID,
		Message:   message,
		Stream:    true,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug("HTTP POST /chat", zap.String("session_id", sessionID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Error("HTTP request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.log.Error("API error", zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return fmt.Errorf("%w: %d - %s", ErrRequestFailed, resp.StatusCode, string(body))
	}

	return ReadStream(ctx, resp.Body, fn)
}

// Collections fetches the available target collections. A synthetic
// "auto-map" entry is prepended for the default classify-on-server mode.
func (c *Client) Collections(ctx context.Context) ([]string, error) {
	var out CollectionsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/collections", nil, &out); err != nil {
		return nil, err
	}
	return append([]string{AutoMapCollection}, out.Collections...), nil
}

// UploadPart is one file in a multipart upload submission.
type UploadPart struct {
	Name   string
	Reader io.Reader
}

// Upload submits a batch of files for ingestion and returns the initial
// upload status.
func (c *Client) Upload(ctx context.Context, parts []UploadPart, targetCollection string) (*UploadResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, part := range parts {
		fw, err := w.CreateFormFile("files", part.Name)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(fw, part.Reader); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", part.Name, err)
		}
	}
	if targetCollection == "" {
		targetCollection = AutoMapCollection
	}
	if err := w.WriteField("target_collection", targetCollection); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	c.log.Debug("HTTP POST /upload",
		zap.Int("files", len(parts)),
		zap.String("target_collection", targetCollection))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("HTTP request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: %d - %s", ErrRequestFailed, resp.StatusCode, string(body))
	}

	var out UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadStatus fetches the current processing status of an upload batch.
func (c *Client) UploadStatus(ctx context.Context, uploadID string) (*UploadResponse, error) {
	var out UploadResponse
	if err := c.doJSON(ctx, http.MethodGet, "/upload/status/"+uploadID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSessions fetches all sessions from the backend.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var out SessionsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// GetSession fetches a single session by id.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var out Session
	if err := c.doJSON(ctx, http.MethodGet, "/sessions/"+sessionID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSession deletes a session on the backend.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/sessions/"+sessionID, nil, nil)
}

// SubmitFeedback submits a satisfaction rating for a session.
func (c *Client) SubmitFeedback(ctx context.Context, req FeedbackRequest) error {
	if err := c.validate.Struct(req); err != nil {
		return fmt.Errorf("invalid feedback: %w", err)
	}
	return c.doJSON(ctx, http.MethodPost, "/feedback", req, nil)
}

// Health checks backend availability.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// doJSON performs a request with a JSON body (if any) and decodes a JSON
// response into out (if non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(bodyBytes)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("HTTP "+method+" "+path, zap.String("base_url", c.baseURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("HTTP request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		c.log.Error("API error", zap.Int("status", resp.StatusCode), zap.ByteString("body", respBody))
		return fmt.Errorf("%w: %d - %s", ErrRequestFailed, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
