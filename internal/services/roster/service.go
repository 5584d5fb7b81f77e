// -----------------------------------------------------------------------
// Roster Service - authenticated user list and current-user fetches
// -----------------------------------------------------------------------

package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/rosterpull/internal/common"
	"github.com/ternarybob/rosterpull/internal/models"
	"github.com/ternarybob/rosterpull/internal/portal"
	"github.com/ternarybob/rosterpull/internal/services/page"
	"github.com/ternarybob/rosterpull/internal/signing"
)

// FetchError represents a non-2xx answer from the portal or settings API.
// The raw body is kept for diagnosis; nothing is retried.
type FetchError struct {
	StatusCode int
	Body       string
	Endpoint   string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed: status %d from %s: %s", e.StatusCode, e.Endpoint, e.Body)
}

// Service fetches the two roster resources over an already-authenticated
// session. Both calls depend on the session cookies the auth service
// established; neither re-validates it.
type Service struct {
	client     *portal.Client
	baseURL    string
	apiBaseURL string
	logger     arbor.ILogger
	now        func() time.Time
}

// NewService creates a roster service for the configured portal.
func NewService(client *portal.Client, cfg common.PortalConfig, logger arbor.ILogger) *Service {
	return &Service{
		client:     client,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiBaseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock replaces the timestamp source. Tests use this to pin the signed
// payload to a known value.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// FetchUsers retrieves the portal's user list.
func (s *Service) FetchUsers(ctx context.Context) ([]models.User, error) {
	endpoint := s.baseURL + "/api/users"

	resp, err := s.client.PostForm(ctx, endpoint, "", map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/x-www-form-urlencoded",
		"Origin":       s.baseURL,
		"Referer":      s.baseURL + "/",
	})
	if err != nil {
		return nil, fmt.Errorf("user list request failed: %w", err)
	}
	if !resp.OK() {
		return nil, &FetchError{StatusCode: resp.StatusCode, Body: string(resp.Body), Endpoint: endpoint}
	}

	var users []models.User
	if err := json.Unmarshal(resp.Body, &users); err != nil {
		return nil, fmt.Errorf("failed to decode user list: %w", err)
	}

	s.logger.Info().Int("count", len(users)).Msg("User list fetched")
	return users, nil
}

// FetchCurrentUser retrieves the authenticated user's profile from the
// settings API. The settings page's hidden form fields are extracted, signed
// with a timestamped checkcode, and posted to the second host.
func (s *Service) FetchCurrentUser(ctx context.Context) (*models.User, error) {
	tokensURL := s.baseURL + "/settings/tokens"

	resp, err := s.client.GetNoRedirect(ctx, tokensURL, map[string]string{
		"Accept": "text/html",
	})
	if err != nil {
		return nil, fmt.Errorf("settings page request failed: %w", err)
	}
	if !resp.OK() {
		return nil, &FetchError{StatusCode: resp.StatusCode, Body: string(resp.Body), Endpoint: tokensURL}
	}

	fields, err := page.HiddenInputs(string(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to extract hidden fields: %w", err)
	}

	payload := signing.Sign(fields, signing.Secret, s.now().Unix())

	s.logger.Debug().
		Int("field_count", len(fields)).
		Int64("timestamp", payload.Timestamp).
		Msg("Settings payload signed")

	endpoint := s.apiBaseURL + "/api/settings"
	resp, err = s.client.PostForm(ctx, endpoint, payload.Body, map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/x-www-form-urlencoded",
		"Origin":       s.baseURL,
		"Referer":      tokensURL,
	})
	if err != nil {
		return nil, fmt.Errorf("settings request failed: %w", err)
	}
	if !resp.OK() {
		return nil, &FetchError{StatusCode: resp.StatusCode, Body: string(resp.Body), Endpoint: endpoint}
	}

	var user models.User
	if err := json.Unmarshal(resp.Body, &user); err != nil {
		return nil, fmt.Errorf("failed to decode current user: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("Current user fetched")
	return &user, nil
}
