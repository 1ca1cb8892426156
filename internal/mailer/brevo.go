// Package mailer sends transactional email through the Brevo SMTP API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const brevoAPIURL = "https://api.brevo.com/v3/smtp/email"

// Client is a Brevo transactional-email client.
type Client struct {
	apiKey     string
	fromEmail  string
	fromName   string
	httpClient *http.Client
	configured bool
}

// NewClient creates a Brevo client. It is marked configured only when all
// credentials are present; an unconfigured client fails every send, which the
// registration flow treats as a dispatch failure.
func NewClient(apiKey, fromEmail, fromName string) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	if apiKey != "" && fromEmail != "" && fromName != "" {
		c.apiKey = apiKey
		c.fromEmail = fromEmail
		c.fromName = fromName
		c.configured = true
	}
	return c
}

// IsConfigured returns true if the client has the credentials it needs.
func (c *Client) IsConfigured() bool {
	return c.configured
}

// SendOTP mails a verification code.
func (c *Client) SendOTP(ctx context.Context, email, fullName, code string) error {
	subject := "Your Budget Tracker verification code"
	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>Your verification code is <strong>%s</strong>. It expires in 10 minutes.</p>`+
			`<p>If you did not request this, you can safely ignore this email.</p>`,
		fullName, code,
	)
	return c.send(ctx, email, subject, html)
}

// SendWelcome mails the post-activation welcome message.
func (c *Client) SendWelcome(ctx context.Context, email, fullName string) error {
	subject := "Welcome to Budget Tracker"
	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>Your account is ready. Log in with your PIN and add your first transaction.</p>`,
		fullName,
	)
	return c.send(ctx, email, subject, html)
}

type sendEmailReq struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HtmlContent string              `json:"htmlContent"`
}

func (c *Client) send(ctx context.Context, toEmail, subject, html string) error {
	if !c.configured {
		return fmt.Errorf("mailer not configured, email to %s skipped", toEmail)
	}
	if toEmail == "" || subject == "" || html == "" {
		return errors.New("toEmail, subject, and html content cannot be empty")
	}

	reqBody := sendEmailReq{
		Sender:      map[string]string{"email": c.fromEmail, "name": c.fromName},
		To:          []map[string]string{{"email": toEmail}},
		Subject:     subject,
		HtmlContent: html,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal email request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoAPIURL, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("brevo send email request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errorBody map[string]interface{}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errorBody); decodeErr != nil {
			return fmt.Errorf("brevo API error: status %d", resp.StatusCode)
		}
		return fmt.Errorf("brevo API error: status %d, body: %v", resp.StatusCode, errorBody)
	}
	return nil
}
