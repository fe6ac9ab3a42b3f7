// internal/transport/whatsapp.go
package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WhatsAppClient sends through the WhatsApp Business Cloud API.
type WhatsAppClient struct {
	BaseURL       string
	AccessToken   string
	PhoneNumberID string
	LangCode      string
	HTTP          *http.Client
}

func NewWhatsAppClient(baseURL, accessToken, phoneNumberID, langCode string) *WhatsAppClient {
	if langCode == "" {
		langCode = "en"
	}
	return &WhatsAppClient{
		BaseURL:       baseURL,
		AccessToken:   accessToken,
		PhoneNumberID: phoneNumberID,
		LangCode:      langCode,
		HTTP:          &http.Client{Timeout: 15 * time.Second},
	}
}

type waTextBody struct {
	Body string `json:"body"`
}

type waParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type waComponent struct {
	Type       string        `json:"type"`
	Parameters []waParameter `json:"parameters"`
}

type waLanguage struct {
	Code string `json:"code"`
}

type waTemplate struct {
	Name       string        `json:"name"`
	Language   waLanguage    `json:"language"`
	Components []waComponent `json:"components,omitempty"`
}

type waRequest struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             *waTextBody `json:"text,omitempty"`
	Template         *waTemplate `json:"template,omitempty"`
}

type waResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *WhatsAppClient) SendTemplate(toPhone, templateName string, params []string) (string, error) {
	tpl := &waTemplate{
		Name:     templateName,
		Language: waLanguage{Code: c.LangCode},
	}
	if len(params) > 0 {
		component := waComponent{Type: "body"}
		for _, p := range params {
			component.Parameters = append(component.Parameters, waParameter{Type: "text", Text: p})
		}
		tpl.Components = []waComponent{component}
	}
	return c.post(waRequest{
		MessagingProduct: "whatsapp",
		To:               toPhone,
		Type:             "template",
		Template:         tpl,
	})
}

func (c *WhatsAppClient) SendText(toPhone, text string) (string, error) {
	return c.post(waRequest{
		MessagingProduct: "whatsapp",
		To:               toPhone,
		Type:             "text",
		Text:             &waTextBody{Body: text},
	})
}

func (c *WhatsAppClient) post(payload waRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s/messages", c.BaseURL, c.PhoneNumberID)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("whatsapp transport: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var out waResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode >= 300 {
		if out.Error != nil {
			return "", fmt.Errorf("whatsapp transport: %s", out.Error.Message)
		}
		return "", fmt.Errorf("whatsapp transport: status %d", resp.StatusCode)
	}
	if len(out.Messages) == 0 {
		return "", nil
	}
	return out.Messages[0].ID, nil
}

var _ WhatsAppSender = (*WhatsAppClient)(nil)
