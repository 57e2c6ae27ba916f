package garmin

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGarmin struct {
	tokenStatus   int
	summaryStatus int
	requests      []string
}

func (f *fakeGarmin) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if f.tokenStatus != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.tokenStatus)
			fmt.Fprint(w, `{"error": "invalid_grant"}`)
			return
		}
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "jane@example.com", r.PostForm.Get("username"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token": "abc123", "token_type": "bearer", "expires_in": 3600}`)
	})

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			f.requests = append(f.requests, r.URL.RequestURI())
			if r.Header.Get("Authorization") != "Bearer abc123" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("/userprofile-service/socialProfile", authed(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"displayName": "jane-r", "fullName": "Jane Runner"}`)
	}))

	mux.HandleFunc("/usersummary-service/usersummary/daily/jane-r", authed(func(w http.ResponseWriter, r *http.Request) {
		if f.summaryStatus != 0 {
			http.Error(w, "slow down", f.summaryStatus)
			return
		}
		fmt.Fprintf(w, `{"calendarDate": %q, "totalSteps": 4200}`, r.URL.Query().Get("calendarDate"))
	}))

	mux.HandleFunc("/activitylist-service/activities/search/activities", authed(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"activityType": {"typeKey": "running"}}]`)
	}))

	return mux
}

func newTestClient(t *testing.T, f *fakeGarmin) *Client {
	t.Helper()

	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	return New(Config{
		Email:    "jane@example.com",
		Password: "secret",
		BaseURL:  srv.URL + "/",
		TokenURL: srv.URL + "/oauth/token",
	})
}

func TestClient_LoginAndFetch(t *testing.T) {
	f := &fakeGarmin{}
	c := newTestClient(t, f)
	ctx := context.Background()

	s, err := c.Login(ctx)
	require.NoError(t, err)

	name, err := s.FullName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Jane Runner", name)

	summary, err := s.DailySummary(ctx, "2025-10-07")
	require.NoError(t, err)
	assert.JSONEq(t, `{"calendarDate": "2025-10-07", "totalSteps": 4200}`, string(summary))

	activities, err := s.Activities(ctx, 0, 20)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"activityType": {"typeKey": "running"}}]`, string(activities))

	assert.Contains(t, f.requests, "/activitylist-service/activities/search/activities?limit=20&start=0")
}

func TestClient_MissingCredentials(t *testing.T) {
	c := New(Config{})

	_, err := c.Login(context.Background())

	assert.True(t, errors.Is(err, ErrAuthentication))
	assert.False(t, IsRateLimited(err))
}

func TestClient_RejectedCredentials(t *testing.T) {
	c := newTestClient(t, &fakeGarmin{tokenStatus: http.StatusUnauthorized})

	_, err := c.Login(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthentication))
}

func TestClient_RateLimitedLogin(t *testing.T) {
	c := newTestClient(t, &fakeGarmin{tokenStatus: http.StatusTooManyRequests})

	_, err := c.Login(context.Background())

	assert.True(t, IsRateLimited(err))
}

func TestSession_RateLimited(t *testing.T) {
	c := newTestClient(t, &fakeGarmin{summaryStatus: http.StatusTooManyRequests})
	ctx := context.Background()

	s, err := c.Login(ctx)
	require.NoError(t, err)

	_, err = s.DailySummary(ctx, "2025-10-07")
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "slow down")
}

func TestSession_ServerError(t *testing.T) {
	c := newTestClient(t, &fakeGarmin{summaryStatus: http.StatusBadGateway})
	ctx := context.Background()

	s, err := c.Login(ctx)
	require.NoError(t, err)

	_, err = s.DailySummary(ctx, "2025-10-07")
	require.Error(t, err)
	assert.False(t, IsRateLimited(err))
	assert.False(t, errors.Is(err, ErrAuthentication))
}

func TestSession_Logout(t *testing.T) {
	c := newTestClient(t, &fakeGarmin{})
	ctx := context.Background()

	s, err := c.Login(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx))

	_, err = s.DailySummary(ctx, "2025-10-07")
	assert.Equal(t, ErrSessionClosed, err)
	_, err = s.FullName(ctx)
	assert.Equal(t, ErrSessionClosed, err)
	assert.Equal(t, ErrSessionClosed, s.Logout(ctx))
}

func TestAPIError_Is(t *testing.T) {
	tests := []struct {
		code        int
		rateLimited bool
		auth        bool
	}{
		{http.StatusTooManyRequests, true, false},
		{http.StatusUnauthorized, false, true},
		{http.StatusForbidden, false, true},
		{http.StatusInternalServerError, false, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			err := errors.Wrap(&APIError{StatusCode: tt.code, Path: "/x"}, "fetch")
			assert.Equal(t, tt.rateLimited, errors.Is(err, ErrRateLimited))
			assert.Equal(t, tt.auth, errors.Is(err, ErrAuthentication))
		})
	}
}
