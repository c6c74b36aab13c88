package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
	"github.com/joue-zero/homemade-dishes/internal/dto"
	"github.com/joue-zero/homemade-dishes/internal/middleware"
	"github.com/joue-zero/homemade-dishes/internal/session"
)

const maxBodyBytes = 4 << 20

// Options tune the transport shared by every typed client.
type Options struct {
	Timeout      time.Duration
	ReadRetries  int
	RetryBackoff time.Duration
	Limiter      *rate.Limiter
	// Unauthorized is called when a service answers 401 to a signed-in call.
	Unauthorized func(ctx context.Context, reason string)
	Logger       zerolog.Logger
}

type Client struct {
	Name      string
	BaseURL   *url.URL
	Fallbacks []*url.URL
	HTTP      *http.Client

	opts Options
}

func NewClient(name string, baseURL string, httpClient *http.Client, opts Options, fallbacks ...string) *Client {
	u := mustParse(name, baseURL)
	c := &Client{Name: name, BaseURL: u, HTTP: httpClient, opts: opts}
	for _, f := range fallbacks {
		if f = strings.TrimSpace(f); f != "" && f != baseURL {
			c.Fallbacks = append(c.Fallbacks, mustParse(name, f))
		}
	}
	if c.HTTP == nil {
		c.HTTP = &http.Client{}
	}
	if c.opts.Timeout <= 0 {
		c.opts.Timeout = 5 * time.Second
	}
	return c
}

func mustParse(name, raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		// Fail fast: config error
		panic(fmt.Sprintf("invalid %s base url %q: %v", name, raw, err))
	}
	return u
}

// Request describes one call. Only GETs are retried, and only GETs with
// Fallback set move on to the fallback base URLs.
type Request struct {
	Method   string
	Path     string
	Query    url.Values
	Body     any
	Session  session.Session
	UserID   bool
	Fallback bool
}

// Do sends the request and returns the body of a 2xx response.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	ctx, _ = middleware.EnsureCorrelationID(ctx)

	var payload []byte
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode %s body: %w", c.Name, req.Path, err)
		}
		payload = b
	}

	if req.Method != http.MethodGet {
		return c.attempt(ctx, c.BaseURL, req, payload)
	}

	bases := []*url.URL{c.BaseURL}
	if req.Fallback {
		bases = append(bases, c.Fallbacks...)
	}

	var lastErr error
	for i, base := range bases {
		for try := 0; try <= c.opts.ReadRetries; try++ {
			if try > 0 {
				if err := sleep(ctx, time.Duration(try)*c.opts.RetryBackoff); err != nil {
					return nil, err
				}
			}
			body, err := c.attempt(ctx, base, req, payload)
			if err == nil {
				if i > 0 {
					c.opts.Logger.Info().Str("service", c.Name).Str("base_url", base.String()).Str("path", req.Path).Msg("served by fallback host")
				}
				return body, nil
			}
			lastErr = err
			if !apperr.Retryable(err) {
				break
			}
			c.opts.Logger.Warn().Err(err).Str("service", c.Name).Str("path", req.Path).Int("attempt", try+1).Msg("read failed")
		}
		if !fallbackWorthy(lastErr) {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// DoJSON decodes the 2xx body into out.
func (c *Client) DoJSON(ctx context.Context, req Request, out any) error {
	body, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode %s %s: %w", c.Name, req.Method, req.Path, err)
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, base *url.URL, req Request, payload []byte) ([]byte, error) {
	op := req.Method + " " + req.Path

	if c.opts.Limiter != nil {
		if err := c.opts.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: %s: rate limit: %w", c.Name, op, err)
		}
	}

	actx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	rel, err := url.Parse(req.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", c.Name, op, err)
	}
	if len(req.Query) > 0 {
		rel.RawQuery = req.Query.Encode()
	}
	u := base.ResolveReference(rel)

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	hreq, err := http.NewRequestWithContext(actx, req.Method, u.String(), body)
	if err != nil {
		return nil, err
	}
	hreq.Header.Set("Accept", "application/json")
	if payload != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	if req.Session.Token != "" {
		hreq.Header.Set("Authorization", "Bearer "+req.Session.Token)
	}
	if req.UserID && req.Session.UserID != "" {
		hreq.Header.Set(middleware.HeaderUserID, req.Session.UserID)
	}

	// Ensure correlation id propagated downstream
	cid := middleware.GetCorrelationID(ctx)
	if cid != "" {
		hreq.Header.Set(middleware.HeaderCorrelationID, cid)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(hreq)
	if err != nil {
		return nil, c.transportError(ctx, actx, op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.transportError(ctx, actx, op, err)
	}

	c.opts.Logger.Debug().
		Str("service", c.Name).
		Str("method", req.Method).
		Str("url", u.String()).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("correlation_id", cid).
		Msg("remote call")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}
	return nil, c.statusError(ctx, req, resp.StatusCode, data)
}

func (c *Client) statusError(ctx context.Context, req Request, status int, body []byte) error {
	msg := dto.ErrorMessage(body)
	switch status {
	case http.StatusUnauthorized:
		reason := msg
		if reason == "" {
			reason = c.Name + " rejected the session"
		}
		if req.Session.Token != "" && c.opts.Unauthorized != nil {
			c.opts.Unauthorized(ctx, reason)
		}
		return &apperr.AuthRequiredError{Reason: reason}
	case http.StatusForbidden:
		if msg == "" {
			msg = "not allowed by " + c.Name
		}
		return &apperr.ForbiddenError{Action: req.Method + " " + req.Path, Reason: msg}
	}
	return &apperr.RemoteError{Service: c.Name, Status: status, Message: msg}
}

// transportError separates our own deadline from caller cancellation and
// from failures where no response arrived.
func (c *Client) transportError(parent, actx context.Context, op string, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("%s: %s: %w", c.Name, op, parent.Err())
	}
	var ne net.Error
	if errors.Is(actx.Err(), context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &apperr.TimeoutError{Service: c.Name, Op: op, After: c.opts.Timeout}
	}
	return &apperr.NetworkError{Service: c.Name, Op: op, Err: err}
}

// fallbackWorthy reports whether another host may serve the read: the
// primary was unreachable or does not know the route.
func fallbackWorthy(err error) bool {
	if apperr.Retryable(err) {
		return true
	}
	var re *apperr.RemoteError
	return errors.As(err, &re) && (re.Status == http.StatusNotFound || re.Status == http.StatusMethodNotAllowed)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// route fills the %s verbs of pattern with escaped path segments. Dot
// segments are encoded too, so an id can never climb out of its route.
func route(pattern string, ids ...string) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		seg := url.PathEscape(id)
		if seg == "." || seg == ".." {
			seg = strings.ReplaceAll(seg, ".", "%2E")
		}
		args[i] = seg
	}
	return fmt.Sprintf(pattern, args...)
}
