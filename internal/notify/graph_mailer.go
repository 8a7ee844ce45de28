package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/grievance-portal/internal/config"
)

const (
	graphBase      = "https://graph.microsoft.com/v1.0"
	loginAuthority = "https://login.microsoftonline.com"
)

// Notifier sends an HTML email to a list of recipients. Implementations are
// best-effort: callers log failures and proceed.
type Notifier interface {
	Notify(ctx context.Context, recipients []string, subject, htmlBody string) error
}

// GraphMailer sends mail through the Microsoft Graph sendMail endpoint using
// an application (client-credentials) token.
type GraphMailer struct {
	tenantID     string
	clientID     string
	clientSecret string
	senderUserID string
	client       *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewGraphMailer constructs a mailer from the OAuth app registration and the
// mailbox user id the messages are sent as.
func NewGraphMailer(oauth config.OAuthConfig, notify config.NotifyConfig) *GraphMailer {
	return &GraphMailer{
		tenantID:     oauth.TenantID,
		clientID:     oauth.ClientID,
		clientSecret: oauth.ClientSecret,
		senderUserID: notify.SenderUserID,
		client:       &http.Client{Timeout: notify.Timeout()},
	}
}

// Configured reports whether the mailer has the credentials it needs.
func (m *GraphMailer) Configured() bool {
	return m.tenantID != "" && m.clientID != "" && m.clientSecret != "" && m.senderUserID != ""
}

type graphAddress struct {
	EmailAddress struct {
		Address string `json:"address"`
	} `json:"emailAddress"`
}

type graphMessage struct {
	Message struct {
		Subject    string `json:"subject"`
		Importance string `json:"importance"`
		Body       struct {
			ContentType string `json:"contentType"`
			Content     string `json:"content"`
		} `json:"body"`
		ToRecipients []graphAddress `json:"toRecipients"`
	} `json:"message"`
	SaveToSentItems string `json:"saveToSentItems"`
}

// Notify sends one HTML email to all recipients. sendMail acknowledges with
// 202 Accepted; anything else is an error for the caller to log.
func (m *GraphMailer) Notify(ctx context.Context, recipients []string, subject, htmlBody string) error {
	if !m.Configured() {
		return fmt.Errorf("graph mailer not configured")
	}
	if len(recipients) == 0 {
		return nil
	}

	token, err := m.appToken(ctx)
	if err != nil {
		return fmt.Errorf("acquire token: %w", err)
	}

	var msg graphMessage
	msg.Message.Subject = subject
	msg.Message.Importance = "Normal"
	msg.Message.Body.ContentType = "HTML"
	msg.Message.Body.Content = htmlBody
	msg.SaveToSentItems = "true"
	for _, addr := range recipients {
		var to graphAddress
		to.EmailAddress.Address = addr
		msg.Message.ToRecipients = append(msg.Message.ToRecipients, to)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/users/%s/sendMail", graphBase, url.PathEscape(m.senderUserID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("send failed [%d]", resp.StatusCode)
	}
	return nil
}

type appTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

func (m *GraphMailer) appToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token != "" && time.Now().Before(m.tokenExpiry) {
		return m.token, nil
	}

	form := url.Values{}
	form.Set("client_id", m.clientID)
	form.Set("client_secret", m.clientSecret)
	form.Set("grant_type", "client_credentials")
	form.Set("scope", "https://graph.microsoft.com/.default")

	endpoint := fmt.Sprintf("%s/%s/oauth2/v2.0/token", loginAuthority, m.tenantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var token appTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK || token.AccessToken == "" {
		return "", fmt.Errorf("token acquisition failed: %s", token.Error)
	}

	m.token = token.AccessToken
	// refresh one minute early
	m.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - time.Minute)
	return m.token, nil
}
