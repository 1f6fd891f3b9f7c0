package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"voicemail-stt/internal/app/errors"
)

// Client is a stateless wrapper around the transcription service API. Lookup
// is read-only and never creates a job; Submit creates or resumes one;
// GetStatus polls one job.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a transcription service client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// LookupResult is the answer to an existing-transcription check.
type LookupResult struct {
	Found  bool   `json:"found"`
	Status string `json:"status"`
	Text   string `json:"text"`
	JobID  string `json:"job_id"`
}

// SubmitResult is the answer to a transcription submission. Cached with a
// completed status means the result is already available without polling.
type SubmitResult struct {
	JobID  string `json:"job_id"`
	Cached bool   `json:"cached"`
	Status string `json:"status"`
}

// JobStatus is one poll answer for a job.
type JobStatus struct {
	Status        string `json:"status"`
	Text          string `json:"text"`
	Error         string `json:"error"`
	QueuePosition *int   `json:"queue_position"`
}

// Lookup checks whether a transcription already exists for the message. It
// must not create server-side work.
func (c *Client) Lookup(ctx context.Context, userUUID, messageID string) (*LookupResult, error) {
	endpoint := fmt.Sprintf("%s/v1/audio/transcriptions/lookup?user_uuid=%s&message_id=%s",
		c.baseURL, url.QueryEscape(userUUID), url.QueryEscape(messageID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewTransport("lookup", resp.StatusCode)
	}

	var result LookupResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// Submit creates or resumes a transcription job for the audio at audioURL.
// With force the server-side cache is bypassed and fresh work always starts.
func (c *Client) Submit(ctx context.Context, userUUID, messageID, audioURL string, force bool) (*SubmitResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	writer.WriteField("user_uuid", userUUID)
	writer.WriteField("message_id", messageID)
	writer.WriteField("url", audioURL)
	if force {
		writer.WriteField("force", "true")
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/audio/transcriptions", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewTransport("submit", resp.StatusCode)
	}

	var result SubmitResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// GetStatus polls one job by its opaque identifier.
func (c *Client) GetStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	endpoint := fmt.Sprintf("%s/v1/audio/transcriptions/%s", c.baseURL, url.PathEscape(jobID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewTransport("get status", resp.StatusCode)
	}

	var result JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}
