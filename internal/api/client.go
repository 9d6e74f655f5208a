// Package api implements the REST client for the civic-issue reporting
// backend.
//
// The backend is authoritative for every state transition: methods here
// request transitions and report classified failures, they never assume
// an outcome. No call is retried automatically; retry is a user action.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	ferrors "github.com/civitrack/fieldops/internal/errors"
	"github.com/civitrack/fieldops/internal/task"
)

// ClientConfig holds the configuration for connecting to the backend.
type ClientConfig struct {
	// BaseURL is the backend root (e.g. "https://reports.city.example/api/v1").
	BaseURL string
	// Token is the bearer token obtained at login.
	Token string
	// Timeout bounds a single request. Defaults to 30 seconds.
	Timeout time.Duration
	// HTTPClient overrides the underlying client, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the civic-issue reporting backend.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// NewClient creates a backend client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		base:  strings.TrimRight(cfg.BaseURL, "/"),
		token: cfg.Token,
		http:  hc,
	}, nil
}

// HistoryEntry is one row of a report's status-change timeline.
type HistoryEntry struct {
	Status    task.Status `json:"status"`
	Note      string      `json:"note,omitempty"`
	ChangedBy string      `json:"changed_by,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// MediaUpload describes one attachment to send to the backend.
type MediaUpload struct {
	Path          string
	Source        task.MediaSource
	IsProofOfWork bool
	Caption       string
}

// GetTask fetches the current task + report state.
// Responses carrying an unknown status are rejected, not displayed.
func (c *Client) GetTask(ctx context.Context, id string) (*task.Task, error) {
	body, err := c.get(ctx, "/reports/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var t task.Task
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, ferrors.BadResponse("decode task response", err)
	}
	if err := t.Normalize(); err != nil {
		return nil, ferrors.BadResponse("invalid task response", err)
	}
	return &t, nil
}

// ListAssigned fetches the caller's currently assigned tasks.
func (c *Client) ListAssigned(ctx context.Context) ([]*task.Task, error) {
	body, err := c.get(ctx, "/reports/assigned")
	if err != nil {
		return nil, err
	}
	var tasks []*task.Task
	if err := json.Unmarshal(body, &tasks); err != nil {
		return nil, ferrors.BadResponse("decode task list response", err)
	}
	for _, t := range tasks {
		if err := t.Normalize(); err != nil {
			return nil, ferrors.BadResponse("invalid task in list response", err)
		}
	}
	return tasks, nil
}

// GetHistory fetches the status-change timeline for a report.
func (c *Client) GetHistory(ctx context.Context, id string) ([]HistoryEntry, error) {
	body, err := c.get(ctx, "/reports/"+url.PathEscape(id)+"/history")
	if err != nil {
		return nil, err
	}
	var entries []HistoryEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, ferrors.BadResponse("decode history response", err)
	}
	return entries, nil
}

// Acknowledge requests the assigned -> acknowledged transition.
func (c *Client) Acknowledge(ctx context.Context, id string) error {
	return c.postEmpty(ctx, "/reports/"+url.PathEscape(id)+"/acknowledge")
}

// StartWork requests the acknowledged -> in_progress transition.
func (c *Client) StartWork(ctx context.Context, id string) error {
	return c.postEmpty(ctx, "/reports/"+url.PathEscape(id)+"/start-work")
}

// ResumeWork requests the on_hold -> in_progress transition.
func (c *Client) ResumeWork(ctx context.Context, id string) error {
	return c.postEmpty(ctx, "/reports/"+url.PathEscape(id)+"/resume-work")
}

// RejectAssignment requests the assigned -> assignment_rejected transition.
func (c *Client) RejectAssignment(ctx context.Context, id, reason string) error {
	payload, err := json.Marshal(map[string]string{"rejection_reason": reason})
	if err != nil {
		return fmt.Errorf("marshal rejection: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost,
		"/reports/"+url.PathEscape(id)+"/reject-assignment",
		"application/json", bytes.NewReader(payload))
	return err
}

// PutOnHold requests the in_progress -> on_hold transition.
// estimatedResumeDate is optional, format YYYY-MM-DD.
func (c *Client) PutOnHold(ctx context.Context, id, reason, estimatedResumeDate string) error {
	fields := map[string]string{"reason": reason}
	if estimatedResumeDate != "" {
		fields["estimated_resume_date"] = estimatedResumeDate
	}
	return c.postForm(ctx, "/reports/"+url.PathEscape(id)+"/on-hold", fields)
}

// AddUpdate posts a progress update; the status does not change.
func (c *Client) AddUpdate(ctx context.Context, id, text string) error {
	return c.postForm(ctx, "/reports/"+url.PathEscape(id)+"/add-update",
		map[string]string{"update_text": text})
}

// SubmitForVerification requests the in_progress -> pending_verification
// transition. All proof-of-work photos must already be uploaded; the
// notes reference that evidence.
func (c *Client) SubmitForVerification(ctx context.Context, id, notes string, durationHours float64, materials string) error {
	fields := map[string]string{
		"resolution_notes":    notes,
		"work_duration_hours": strconv.FormatFloat(durationHours, 'f', -1, 64),
	}
	if materials != "" {
		fields["materials_used"] = materials
	}
	return c.postForm(ctx, "/reports/"+url.PathEscape(id)+"/submit-for-verification", fields)
}

// UploadMedia sends one attachment for the given report.
func (c *Client) UploadMedia(ctx context.Context, id string, up MediaUpload) (*task.Media, error) {
	f, err := os.Open(up.Path)
	if err != nil {
		return nil, ferrors.Validationf(ferrors.CodePhotoType, "open photo %s: %v", up.Path, err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(up.Path))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read photo %s: %w", up.Path, err)
	}
	_ = w.WriteField("upload_source", string(up.Source))
	_ = w.WriteField("is_proof_of_work", strconv.FormatBool(up.IsProofOfWork))
	if up.Caption != "" {
		_ = w.WriteField("caption", up.Caption)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart body: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/media/upload/"+url.PathEscape(id),
		w.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}

	var m task.Media
	if len(body) > 0 {
		if err := json.Unmarshal(body, &m); err != nil {
			return nil, ferrors.BadResponse("decode media response", err)
		}
	}
	return &m, nil
}

// get issues a GET and returns the response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, "", nil)
}

// postEmpty issues a POST with no payload.
func (c *Client) postEmpty(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodPost, path, "", nil)
	return err
}

// postForm issues a multipart POST with only text fields.
func (c *Client) postForm(ctx context.Context, path string, fields map[string]string) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish multipart body: %w", err)
	}
	_, err := c.do(ctx, http.MethodPost, path, w.FormDataContentType(), &buf)
	return err
}

// do runs one request and classifies the outcome: transport failures
// become network errors, 4xx/5xx become server-rejected errors with a
// normalized detail string, 2xx returns the body.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ferrors.Network("backend unreachable, check your connection", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ferrors.Network("reading response failed", err)
	}

	if resp.StatusCode >= 400 {
		return nil, ferrors.ServerRejected(resp.StatusCode, ExtractDetail(data))
	}
	return data, nil
}
