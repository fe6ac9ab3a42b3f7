// internal/transport/email.go
package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// EmailClient sends through a transactional email HTTP API.
type EmailClient struct {
	BaseURL  string
	APIKey   string
	FromAddr string
	FromName string
	HTTP     *http.Client
}

func NewEmailClient(baseURL, apiKey, fromAddr, fromName string) *EmailClient {
	return &EmailClient{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		FromAddr: fromAddr,
		FromName: fromName,
		HTTP:     &http.Client{Timeout: 15 * time.Second},
	}
}

type emailRequest struct {
	FromAddr string `json:"from_email"`
	FromName string `json:"from_name"`
	To       string `json:"to_email"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

type emailResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

func (c *EmailClient) Send(to, subject, htmlBody string) (string, error) {
	payload, err := json.Marshal(emailRequest{
		FromAddr: c.FromAddr,
		FromName: c.FromName,
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBody,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("email transport: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var out emailResponse
	_ = json.Unmarshal(body, &out)

	if resp.StatusCode >= 300 {
		if out.Error != "" {
			return "", fmt.Errorf("email transport: %s", out.Error)
		}
		return "", fmt.Errorf("email transport: status %d", resp.StatusCode)
	}
	return out.MessageID, nil
}

var _ EmailSender = (*EmailClient)(nil)
