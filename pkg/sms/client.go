package sms

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Sender is the narrow transactional-SMS collaborator contract.
type Sender interface {
	Send(ctx context.Context, phone, message string) (string, error)
}

// Client talks to an MSG91-style flow API: template id plus variables, auth
// key in a header. Vendor specifics stay inside this package.
type Client struct {
	http       *resty.Client
	authKey    string
	senderID   string
	templateID string
}

func NewClient(baseURL, authKey, senderID, templateID string) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("authkey", authKey)

	return &Client{
		http:       httpClient,
		authKey:    authKey,
		senderID:   senderID,
		templateID: templateID,
	}
}

type flowRequest struct {
	TemplateID string          `json:"template_id"`
	Sender     string          `json:"sender"`
	Recipients []flowRecipient `json:"recipients"`
}

type flowRecipient struct {
	Mobiles string `json:"mobiles"`
	Message string `json:"message"`
}

type flowResponse struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func (c *Client) Send(ctx context.Context, phone, message string) (string, error) {
	var out flowResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(flowRequest{
			TemplateID: c.templateID,
			Sender:     c.senderID,
			Recipients: []flowRecipient{{Mobiles: phone, Message: message}},
		}).
		SetResult(&out).
		Post("/flow")
	if err != nil {
		return "", fmt.Errorf("sms send: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("sms send: vendor returned %s", resp.Status())
	}
	if out.Type != "success" {
		return "", fmt.Errorf("sms send: %s", out.Message)
	}
	return out.RequestID, nil
}
