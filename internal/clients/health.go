package clients

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/joue-zero/homemade-dishes/internal/apperr"
	"github.com/joue-zero/homemade-dishes/internal/middleware"
)

type HealthProbe struct {
	Name   string
	Client *Client
	Path   string
}

type HealthResult struct {
	Name       string `json:"name" yaml:"name"`
	OK         bool   `json:"ok" yaml:"ok"`
	StatusCode int    `json:"statusCode,omitempty" yaml:"statusCode,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// CheckHealth sends one unauthenticated GET without retries. Any HTTP answer
// below 500 means the service is up; 4xx only says the route wants a session.
func CheckHealth(ctx context.Context, probe HealthProbe) HealthResult {
	// Short probe timeout
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	ctx, _ = middleware.EnsureCorrelationID(ctx)

	_, err := probe.Client.attempt(ctx, probe.Client.BaseURL, Request{Method: http.MethodGet, Path: probe.Path}, nil)
	if err == nil {
		return HealthResult{Name: probe.Name, OK: true}
	}
	if status, ok := remoteStatus(err); ok {
		return HealthResult{Name: probe.Name, OK: status < 500, StatusCode: status, Error: errString(status, err)}
	}
	return HealthResult{Name: probe.Name, OK: false, Error: err.Error()}
}

func errString(status int, err error) string {
	if status < 500 {
		return ""
	}
	return err.Error()
}

func remoteStatus(err error) (int, bool) {
	var re *apperr.RemoteError
	switch {
	case errors.As(err, &re):
		return re.Status, true
	case errors.Is(err, apperr.ErrAuthRequired):
		return http.StatusUnauthorized, true
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, true
	}
	return 0, false
}
