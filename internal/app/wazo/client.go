package wazo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"voicemail-stt/internal/app/errors"
	"voicemail-stt/internal/app/model"
)

// Client talks to the Wazo calld voicemail API for the authenticated user.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a voicemail API client for one session.
func NewClient(host, token string) *Client {
	return &Client{
		baseURL: "https://" + host,
		token:   token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// messagesResponse mirrors the calld list envelope.
type messagesResponse struct {
	Items []messageItem `json:"items"`
}

// messageItem mirrors one calld voicemail message.
type messageItem struct {
	ID           string `json:"id"`
	CallerIDName string `json:"caller_id_name"`
	CallerIDNum  string `json:"caller_id_num"`
	Duration     int    `json:"duration"`
	Timestamp    int64  `json:"timestamp"`
	Folder       struct {
		Type string `json:"type"`
	} `json:"folder"`
}

// ListMessages fetches the user's voicemail messages, newest first. The
// returned order is the fetch order the correlator's positional matching
// relies on.
func (c *Client) ListMessages(ctx context.Context) ([]model.VoicemailRecord, error) {
	endpoint := c.baseURL + "/api/calld/1.0/users/me/voicemails/messages?direction=desc"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Auth-Token", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewTransport("list voicemails", resp.StatusCode)
	}

	var payload messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	records := make([]model.VoicemailRecord, 0, len(payload.Items))
	for _, item := range payload.Items {
		folder := model.FolderRead
		if item.Folder.Type == "new" {
			folder = model.FolderNew
		}
		records = append(records, model.VoicemailRecord{
			ID:              item.ID,
			CallerName:      item.CallerIDName,
			CallerNumber:    item.CallerIDNum,
			DurationSeconds: item.Duration,
			Timestamp:       item.Timestamp,
			Folder:          folder,
		})
	}
	return records, nil
}

// RecordingURL builds the authenticated audio URL for one message. The URL is
// handed to the transcription service, which fetches the audio itself.
func (c *Client) RecordingURL(messageID string) string {
	return fmt.Sprintf("%s/api/calld/1.0/users/me/voicemails/messages/%s/recording?token=%s",
		c.baseURL, url.PathEscape(messageID), url.QueryEscape(c.token))
}
