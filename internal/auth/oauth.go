package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/grievance-portal/internal/config"
	"github.com/spec-kit/grievance-portal/internal/directory"
	"github.com/spec-kit/grievance-portal/internal/domain"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util/errorutil"
)

const loginAuthority = "https://login.microsoftonline.com"

// OAuthExchanger implements the Azure AD authorization-code flow: build the
// authorization URL, exchange the returned code for an id_token, and resolve
// the caller's role from the admin allow-list.
type OAuthExchanger struct {
	cfg    config.OAuthConfig
	client *http.Client
	admins map[string]struct{}
}

// NewOAuthExchanger builds the exchanger.
func NewOAuthExchanger(cfg config.OAuthConfig) *OAuthExchanger {
	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		admins[email] = struct{}{}
	}
	return &OAuthExchanger{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		admins: admins,
	}
}

// Configured reports whether the OAuth flow can be used.
func (o *OAuthExchanger) Configured() bool {
	return o.cfg.TenantID != "" && o.cfg.ClientID != "" && o.cfg.ClientSecret != ""
}

// AuthorizationURL returns the redirect target that starts the login flow.
func (o *OAuthExchanger) AuthorizationURL() string {
	q := url.Values{}
	q.Set("client_id", o.cfg.ClientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", o.cfg.RedirectURI)
	q.Set("scope", "openid profile email User.Read")
	q.Set("response_mode", "query")
	return fmt.Sprintf("%s/%s/oauth2/v2.0/authorize?%s", loginAuthority, o.cfg.TenantID, q.Encode())
}

type tokenResponse struct {
	IDToken     string `json:"id_token"`
	AccessToken string `json:"access_token"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

// Exchange swaps an authorization code for the caller identity. The id_token
// arrives over a direct TLS exchange with the issuer, so its claims are read
// without a local JWKS verification round-trip.
func (o *OAuthExchanger) Exchange(ctx context.Context, code string) (*domain.User, error) {
	if strings.TrimSpace(code) == "" {
		return nil, apperrors.NewValidationError("code required", nil)
	}

	form := url.Values{}
	form.Set("client_id", o.cfg.ClientID)
	form.Set("client_secret", o.cfg.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", o.cfg.RedirectURI)
	form.Set("scope", "openid profile email")

	endpoint := fmt.Sprintf("%s/%s/oauth2/v2.0/token", loginAuthority, o.cfg.TenantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, apperrors.NewUnauthorized("identity provider unreachable")
	}
	defer resp.Body.Close()

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, apperrors.NewUnauthorized("malformed identity provider response")
	}
	if resp.StatusCode != http.StatusOK || token.IDToken == "" {
		return nil, apperrors.NewUnauthorized(fmt.Sprintf("code exchange failed: %s", token.Error))
	}

	email, err := emailFromIDToken(token.IDToken)
	if err != nil {
		return nil, err
	}
	return o.resolve(email), nil
}

func (o *OAuthExchanger) resolve(email string) *domain.User {
	role := domain.RoleEmployee
	if _, ok := o.admins[email]; ok {
		role = domain.RoleAdmin
	}
	return &domain.User{
		Name:  directory.DisplayNameFromEmail(email),
		Email: email,
		Role:  role,
	}
}

type idTokenClaims struct {
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	jwt.RegisteredClaims
}

func emailFromIDToken(idToken string) (string, error) {
	var claims idTokenClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(idToken, &claims); err != nil {
		return "", apperrors.NewUnauthorized("invalid id_token")
	}
	email := strings.ToLower(strings.TrimSpace(claims.PreferredUsername))
	if email == "" {
		email = strings.ToLower(strings.TrimSpace(claims.Email))
	}
	if email == "" {
		return "", apperrors.NewUnauthorized("no email claim in id_token")
	}
	return email, nil
}
