package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/playdash/internal/domain/model"
	"github.com/okian/playdash/pkg/logger"
)

const (
	usersPath           = "/users.json"
	defaultFetchTimeout = 30 * time.Second
	maxErrorBody        = 512
)

// Firebase fetches the users node of a Realtime Database over its REST API.
type Firebase struct {
	baseURL string
	auth    string
	client  *http.Client
	timeout time.Duration
	log     logger.Logger
}

// FirebaseOption applies a configuration option to Firebase.
type FirebaseOption func(*Firebase)

// WithAuth sets the database secret or ID token sent as the auth query parameter.
func WithAuth(token string) FirebaseOption {
	return func(f *Firebase) {
		f.auth = token
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) FirebaseOption {
	return func(f *Firebase) {
		if c != nil {
			f.client = c
		}
	}
}

// WithTimeout bounds one fetch. It applies to a copy of the HTTP client, whatever the
// option order.
func WithTimeout(d time.Duration) FirebaseOption {
	return func(f *Firebase) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithFirebaseLogger sets the logger.
func WithFirebaseLogger(l logger.Logger) FirebaseOption {
	return func(f *Firebase) {
		if l != nil {
			f.log = l
		}
	}
}

// NewFirebase creates a source for the database at baseURL.
func NewFirebase(baseURL string, opts ...FirebaseOption) *Firebase {
	f := &Firebase{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultFetchTimeout},
		log:     logger.Get().Named("source.firebase"),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.timeout > 0 {
		c := *f.client
		c.Timeout = f.timeout
		f.client = &c
	}
	return f
}

// Name identifies the source in logs and metrics.
func (f *Firebase) Name() string { return "firebase" }

// Load fetches and decodes the users node.
func (f *Firebase) Load(ctx context.Context) (model.RawUserMap, error) {
	u, err := url.Parse(f.baseURL + usersPath)
	if err != nil {
		return nil, fmt.Errorf("%w: bad url: %w", ErrUpstream, err)
	}
	if f.auth != "" {
		q := u.Query()
		q.Set("auth", f.auth)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, redact(u))
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: %s returned %d: %s", ErrUpstream, redact(u), resp.StatusCode, strings.TrimSpace(string(body)))
	}

	users, err := decode(resp.Body)
	if err != nil {
		return nil, err
	}
	f.log.Info(ctx, "snapshot fetched",
		logger.String("url", redact(u)),
		logger.Int("users", len(users)),
		logger.Duration("took", time.Since(start)),
	)
	return users, nil
}

// redact drops the query string so credentials never reach logs or errors.
func redact(u *url.URL) string {
	c := *u
	c.RawQuery = ""
	return c.String()
}
