// -----------------------------------------------------------------------
// Auth Service - session probing and nonce-based form login
// -----------------------------------------------------------------------

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/rosterpull/internal/common"
	"github.com/ternarybob/rosterpull/internal/portal"
	"github.com/ternarybob/rosterpull/internal/services/page"
)

// ErrNonceNotFound is returned when the login page lacks the nonce field the
// form submission requires. There is no fallback; the run aborts.
var ErrNonceNotFound = errors.New("login page did not contain a nonce field")

// LoginError is returned when the login POST does not produce the 302 the
// portal issues on success.
type LoginError struct {
	StatusCode int
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login failed: expected status 302, got %d", e.StatusCode)
}

// Service drives the session state for one run: Unauthenticated until the
// probe or a fresh login proves otherwise, then Authenticated for the rest
// of the run. No periodic re-validation happens after that.
type Service struct {
	client        *portal.Client
	baseURL       string
	username      string
	password      string
	logger        arbor.ILogger
	authenticated bool
}

// NewService creates an auth service for the configured portal.
func NewService(client *portal.Client, cfg common.PortalConfig, logger arbor.ILogger) *Service {
	return &Service{
		client:   client,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		logger:   logger,
	}
}

// IsAuthenticated reports the current session state.
func (s *Service) IsAuthenticated() bool {
	return s.authenticated
}

// EnsureSession checks the current session once and logs in when it is not
// valid. Called exactly once per run, before any resource fetch.
func (s *Service) EnsureSession(ctx context.Context) error {
	ok, err := s.CheckSession(ctx)
	if err != nil {
		return err
	}
	if ok {
		s.logger.Info().Msg("Existing session is still valid")
		s.authenticated = true
		return nil
	}

	s.logger.Info().Str("username", s.username).Msg("No valid session, logging in")
	if err := s.Login(ctx); err != nil {
		return err
	}

	s.authenticated = true
	return nil
}

// CheckSession probes an authenticated-only page with redirects disabled.
// The session is valid only when the probe answers 200 and any Location
// header does not point back at the login page.
func (s *Service) CheckSession(ctx context.Context) (bool, error) {
	resp, err := s.client.GetNoRedirect(ctx, s.baseURL+"/settings/tokens", map[string]string{
		"Accept": "text/html",
	})
	if err != nil {
		return false, fmt.Errorf("session probe failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}
	if strings.Contains(resp.Location(), "/login") {
		return false, nil
	}

	return true, nil
}

// Login fetches the login page, extracts the one-time nonce, and submits the
// credential form. Success is strictly a 302 response.
func (s *Service) Login(ctx context.Context) error {
	loginURL := s.baseURL + "/login"

	resp, err := s.client.Get(ctx, loginURL, map[string]string{
		"Accept": "text/html",
	})
	if err != nil {
		return fmt.Errorf("failed to fetch login page: %w", err)
	}

	nonce, ok := page.NonceValue(string(resp.Body))
	if !ok {
		return ErrNonceNotFound
	}

	form := url.Values{}
	form.Set("nonce", nonce)
	form.Set("username", s.username)
	form.Set("password", s.password)

	resp, err = s.client.PostForm(ctx, loginURL, form.Encode(), map[string]string{
		"Accept":       "text/html",
		"Content-Type": "application/x-www-form-urlencoded",
		"Origin":       s.baseURL,
		"Referer":      loginURL,
	})
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}

	if resp.StatusCode != http.StatusFound {
		return &LoginError{StatusCode: resp.StatusCode}
	}

	s.logger.Info().Str("username", s.username).Msg("Login succeeded")
	return nil
}
