package roster

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/rosterpull/internal/common"
	"github.com/ternarybob/rosterpull/internal/models"
	"github.com/ternarybob/rosterpull/internal/portal"
)

func newService(t *testing.T, baseURL, apiBaseURL string) *Service {
	t.Helper()
	client, err := portal.New(portal.WithRateLimit(100))
	require.NoError(t, err)

	return NewService(client, common.PortalConfig{
		BaseURL:    baseURL,
		APIBaseURL: apiBaseURL,
		Username:   "roster-bot",
		Password:   "hunter2",
	}, arbor.NewLogger())
}

func TestFetchUsers(t *testing.T) {
	t.Run("Decodes user list and drops extra fields", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/users", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			w.Write([]byte(`[
				{"id":1,"firstName":"A","lastName":"B","email":"a@b.com","role":"admin"},
				{"id":2,"firstName":"C","lastName":"D","email":"c@d.com"}
			]`))
		}))
		defer server.Close()

		users, err := newService(t, server.URL, server.URL).FetchUsers(context.Background())
		require.NoError(t, err)

		require.Len(t, users, 2)
		assert.Equal(t, models.User{ID: 1, FirstName: "A", LastName: "B", Email: "a@b.com"}, users[0])
		assert.Equal(t, models.User{ID: 2, FirstName: "C", LastName: "D", Email: "c@d.com"}, users[1])
	})

	t.Run("Non-2xx carries status and body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"forbidden"}`))
		}))
		defer server.Close()

		_, err := newService(t, server.URL, server.URL).FetchUsers(context.Background())

		var fetchErr *FetchError
		require.True(t, errors.As(err, &fetchErr))
		assert.Equal(t, http.StatusForbidden, fetchErr.StatusCode)
		assert.Equal(t, `{"error":"forbidden"}`, fetchErr.Body)
	})
}

func TestFetchCurrentUser(t *testing.T) {
	const settingsHTML = `<html><body><form>
		<input type="hidden" id="csrf" value="9f8e7d">
		<input type="hidden" id="session_hint" value="z9">
		<input type="hidden" id="empty" value="">
		<input type="hidden" value="no-id">
	</form></body></html>`

	t.Run("Signs hidden fields and posts to settings API", func(t *testing.T) {
		portalServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/settings/tokens", r.URL.Path)
			w.Write([]byte(settingsHTML))
		}))
		defer portalServer.Close()

		var gotBody string
		apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/settings", r.URL.Path)
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			data, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			gotBody = string(data)
			w.Write([]byte(`{"id":2,"firstName":"C","lastName":"D","email":"c@d.com","theme":"dark"}`))
		}))
		defer apiServer.Close()

		svc := newService(t, portalServer.URL, apiServer.URL).
			WithClock(func() time.Time { return time.Unix(1700000000, 0) })

		user, err := svc.FetchCurrentUser(context.Background())
		require.NoError(t, err)

		assert.Equal(t,
			"csrf=9f8e7d&session_hint=z9&timestamp=1700000000"+
				"&checkcode=5391DA5DC9E5551C75F67BADF22EE700FA2D4DEC",
			gotBody)
		assert.Equal(t, &models.User{ID: 2, FirstName: "C", LastName: "D", Email: "c@d.com"}, user)
	})

	t.Run("Settings API failure carries status and body", func(t *testing.T) {
		portalServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(settingsHTML))
		}))
		defer portalServer.Close()

		apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("bad checkcode"))
		}))
		defer apiServer.Close()

		svc := newService(t, portalServer.URL, apiServer.URL)
		_, err := svc.FetchCurrentUser(context.Background())

		var fetchErr *FetchError
		require.True(t, errors.As(err, &fetchErr))
		assert.Equal(t, http.StatusBadRequest, fetchErr.StatusCode)
		assert.Equal(t, "bad checkcode", fetchErr.Body)
	})

	t.Run("Non-200 settings page fails before signing", func(t *testing.T) {
		portalServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Location", "/login")
			w.WriteHeader(http.StatusFound)
		}))
		defer portalServer.Close()

		var apiCalls int
		apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiCalls++
		}))
		defer apiServer.Close()

		svc := newService(t, portalServer.URL, apiServer.URL)
		_, err := svc.FetchCurrentUser(context.Background())

		var fetchErr *FetchError
		require.True(t, errors.As(err, &fetchErr))
		assert.Zero(t, apiCalls)
	})
}
