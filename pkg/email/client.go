package email

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Sender is the password-reset mailer collaborator. Delivery mechanics are
// out of scope here; the flows only need this one call.
type Sender interface {
	SendPasswordReset(ctx context.Context, to, code string) error
}

type Client struct {
	http      *resty.Client
	fromEmail string
	fromName  string
}

func NewClient(baseURL, apiKey, fromEmail, fromName string) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(apiKey)

	return &Client{
		http:      httpClient,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

type sendRequest struct {
	FromEmail string `json:"from_email"`
	FromName  string `json:"from_name"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

func (c *Client) SendPasswordReset(ctx context.Context, to, code string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(sendRequest{
			FromEmail: c.fromEmail,
			FromName:  c.fromName,
			To:        to,
			Subject:   "Your password reset code",
			Body:      fmt.Sprintf("Your password reset code is %s. It expires shortly.", code),
		}).
		Post("/send")
	if err != nil {
		return fmt.Errorf("email send: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("email send: vendor returned %s", resp.Status())
	}
	return nil
}

// LogSender is the unconfigured fallback: logs the code instead of sending.
// Never meant for production.
type LogSender struct {
	Logger *zap.Logger
}

func (s *LogSender) SendPasswordReset(_ context.Context, to, code string) error {
	s.Logger.Warn("email vendor not configured; logging password reset code",
		zap.String("to", to),
		zap.String("code", code),
	)
	return nil
}
