// Package garmin is a small client for the Garmin Connect API endpoints
// activetrack needs: the daily user summary, the activity list and the
// social profile.
package garmin

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL  = "https://connectapi.garmin.com"
	DefaultTokenURL = "https://connectapi.garmin.com/oauth-service/oauth/token"
	DefaultClientID = "activetrack"

	profilePath    = "/userprofile-service/socialProfile"
	summaryPath    = "/usersummary-service/usersummary/daily/"
	activitiesPath = "/activitylist-service/activities/search/activities"

	maxBodyBytes = 8 << 20
	maxErrorBody = 256
)

// Config holds the credentials and endpoints used by Client
type Config struct {
	Email        string
	Password     string
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
}

// Client logs in to Garmin Connect. It holds no session state of its own,
// so one Client can hand out concurrent Sessions.
type Client struct {
	cfg   Config
	oauth *oauth2.Config
}

// New creates a Client, filling in defaults for empty endpoints
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}

	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}

	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
		},
	}
}

// Login exchanges the configured credentials for a token and loads the
// user's profile
func (c *Client) Login(ctx context.Context) (*Session, error) {
	if c.cfg.Email == "" || c.cfg.Password == "" {
		return nil, &authError{err: errors.New("credentials are not configured")}
	}

	tok, err := c.oauth.PasswordCredentialsToken(c.withHTTPClient(ctx), c.cfg.Email, c.cfg.Password)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil && rerr.Response.StatusCode == http.StatusTooManyRequests {
			return nil, &APIError{StatusCode: http.StatusTooManyRequests, Path: c.cfg.TokenURL}
		}

		return nil, &authError{err: err}
	}

	// the session outlives ctx, token refreshes must not be tied to it
	s := &Session{
		baseURL: c.cfg.BaseURL,
		http:    c.oauth.Client(c.withHTTPClient(context.Background()), tok),
	}

	if err := s.loadProfile(ctx); err != nil {
		return nil, errors.Wrap(err, "garmin: failed to load profile")
	}

	return s, nil
}

func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.cfg.HTTPClient)
}

// Session is one logged in connection to Garmin Connect
type Session struct {
	baseURL string
	http    *http.Client

	mu          sync.Mutex
	closed      bool
	displayName string
	fullName    string
}

// DailySummary returns the raw daily summary for date (YYYY-MM-DD)
func (s *Session) DailySummary(ctx context.Context, date string) ([]byte, error) {
	path := summaryPath + url.PathEscape(s.displayName)
	return s.get(ctx, path, url.Values{"calendarDate": {date}})
}

// Activities returns the raw list of the most recent activities
func (s *Session) Activities(ctx context.Context, start, limit int) ([]byte, error) {
	return s.get(ctx, activitiesPath, url.Values{
		"start": {strconv.Itoa(start)},
		"limit": {strconv.Itoa(limit)},
	})
}

// FullName returns the profile name loaded at login
func (s *Session) FullName(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrSessionClosed
	}

	return s.fullName, nil
}

// Logout ends the session. Garmin has no revocation endpoint for these
// tokens, so this drops the token and idle connections.
func (s *Session) Logout(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	s.closed = true
	s.http.CloseIdleConnections()

	return nil
}

func (s *Session) loadProfile(ctx context.Context) error {
	body, err := s.get(ctx, profilePath, nil)
	if err != nil {
		return err
	}

	profile := gjson.ParseBytes(body)
	displayName := profile.Get("displayName").String()
	if displayName == "" {
		return errors.New("profile has no display name")
	}

	s.mu.Lock()
	s.displayName = displayName
	s.fullName = profile.Get("fullName").String()
	s.mu.Unlock()

	return nil
}

func (s *Session) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return nil, ErrSessionClosed
	}

	u := s.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "garmin: bad request for %s", path)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "garmin: request to %s failed", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "garmin: failed to read %s", path)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}

		return nil, &APIError{StatusCode: resp.StatusCode, Path: path, Body: msg}
	}

	if !gjson.ValidBytes(body) {
		return nil, errors.Errorf("garmin: %s returned invalid JSON", path)
	}

	return body, nil
}
