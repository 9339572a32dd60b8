// Package inference talks to the pose model sidecar over msgpack-encoded HTTP.
//
// A session is opened per live view and deleted on Dispose:
//
//	POST   /v1/sessions                {model}                          -> {session_id}
//	POST   /v1/sessions/{id}/estimate  {seq,width,height,format,image}  -> {poses}
//	DELETE /v1/sessions/{id}
package inference

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	commonhttp "yoga-guide/internal/common/http"
	"yoga-guide/internal/common/logger"
	"yoga-guide/internal/models"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	contentType    = "application/msgpack"
	disposeTimeout = 5 * time.Second
)

var ErrDisposed = errors.New("inference: estimator disposed")

// StatusError is a non-2xx sidecar answer.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inference: %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

type Config struct {
	BaseURL string
	Model   string
}

type createSessionRequest struct {
	Model string `msgpack:"model"`
}

type createSessionResponse struct {
	SessionID string `msgpack:"session_id"`
}

type estimateRequest struct {
	Seq    uint64 `msgpack:"seq"`
	Width  int    `msgpack:"width"`
	Height int    `msgpack:"height"`
	Format string `msgpack:"format"`
	Image  []byte `msgpack:"image"`
}

type estimateResponse struct {
	Poses []models.Pose `msgpack:"poses"`
}

type errorResponse struct {
	Error string `msgpack:"error"`
}

// Client creates estimator sessions on the sidecar.
type Client struct {
	cfg    Config
	http   *commonhttp.Client
	logger logger.Logger
}

func NewClient(cfg Config, httpClient *commonhttp.Client, log logger.Logger) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: httpClient, logger: log}
}

// NewEstimator opens a sidecar session. The caller owns the returned
// Estimator and must Dispose it.
func (c *Client) NewEstimator(ctx context.Context) (*Estimator, error) {
	var resp createSessionResponse
	if err := c.call(ctx, http.MethodPost, "/v1/sessions", "create session", createSessionRequest{Model: c.cfg.Model}, &resp); err != nil {
		return nil, err
	}
	if resp.SessionID == "" {
		return nil, fmt.Errorf("inference: create session: empty session id")
	}

	c.logger.Info("estimator session opened", map[string]interface{}{
		"sessionId": resp.SessionID,
		"model":     c.cfg.Model,
	})

	return &Estimator{client: c, sessionID: resp.SessionID}, nil
}

func (c *Client) call(ctx context.Context, method, path, op string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := msgpack.Marshal(in)
		if err != nil {
			return fmt.Errorf("inference: %s: encode: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("inference: %s: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("inference: %s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("inference: %s: read: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &StatusError{Op: op, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var er errorResponse
		if msgpack.Unmarshal(raw, &er) == nil && er.Error != "" {
			se.Message = er.Error
		}
		return se
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := msgpack.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("inference: %s: decode: %w", op, err)
	}
	return nil
}

// Estimator is one sidecar session. It is not safe for concurrent Estimate
// calls; the live loop never overlaps them.
type Estimator struct {
	client    *Client
	sessionID string

	mu       sync.Mutex
	disposed bool
}

func (e *Estimator) SessionID() string { return e.sessionID }

// Estimate returns the poses found in frame, best first.
func (e *Estimator) Estimate(ctx context.Context, frame models.Frame) ([]models.Pose, error) {
	e.mu.Lock()
	disposed := e.disposed
	e.mu.Unlock()
	if disposed {
		return nil, ErrDisposed
	}

	req := estimateRequest{
		Seq:    frame.Seq,
		Width:  frame.Width,
		Height: frame.Height,
		Format: frame.Format,
		Image:  frame.Data,
	}

	var resp estimateResponse
	path := "/v1/sessions/" + url.PathEscape(e.sessionID) + "/estimate"
	if err := e.client.call(ctx, http.MethodPost, path, "estimate", req, &resp); err != nil {
		return nil, err
	}
	return resp.Poses, nil
}

// Dispose deletes the sidecar session. Only the first call does any work.
func (e *Estimator) Dispose() error {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return nil
	}
	e.disposed = true
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), disposeTimeout)
	defer cancel()

	err := e.client.call(ctx, http.MethodDelete, "/v1/sessions/"+url.PathEscape(e.sessionID), "delete session", nil, nil)
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		err = nil
	}

	e.client.logger.Info("estimator session released", map[string]interface{}{
		"sessionId": e.sessionID,
		"ok":        err == nil,
	})
	return err
}
