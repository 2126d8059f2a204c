package mancer

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// TransportConfig controls the retry policy shared by all adapters.
type TransportConfig struct {
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration
}

// NewHTTPClient returns an *http.Client that retries connection errors and
// 5xx/429 responses with exponential backoff.
func NewHTTPClient(cfg TransportConfig, log *zap.Logger) *http.Client {
	if log == nil {
		log = zap.NewNop()
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	if cfg.RetryWaitMin > 0 {
		rc.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		rc.RetryWaitMax = cfg.RetryWaitMax
	}
	if cfg.Timeout > 0 {
		rc.HTTPClient.Timeout = cfg.Timeout
	}
	rc.Logger = leveledLogger{log: log.Sugar()}
	// keep the last response so its body reaches the caller
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return rc.StandardClient()
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger. Retry chatter
// stays at debug.
type leveledLogger struct {
	log *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.log.Warnw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.log.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.log.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.log.Debugw(msg, kv...) }

// maxErrorBody caps the response body copied into an Error.
const maxErrorBody = 2048

// Fetch performs req and returns the response body. Transport failures and
// non-2xx responses become an *Error carrying the status and body.
func Fetch(ctx context.Context, client *http.Client, mancerID string, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, NewError(mancerID, fmt.Sprintf("request to %s failed", req.URL.Host), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewError(mancerID, "failed to read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := strings.TrimSpace(string(body))
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return nil, &Error{
			Mancer:     mancerID,
			Message:    fmt.Sprintf("%s returned %d", req.URL.Host, resp.StatusCode),
			Body:       text,
			StatusCode: resp.StatusCode,
		}
	}
	return body, nil
}

// GetJSON issues a GET and decodes the JSON body into out.
func GetJSON(ctx context.Context, client *http.Client, mancerID, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return NewError(mancerID, "invalid request", err)
	}
	req.Header.Set("Accept", "application/json")
	body, err := Fetch(ctx, client, mancerID, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Mancer: mancerID, Message: "invalid JSON response", Body: truncate(string(body)), Err: err}
	}
	return nil
}

// GetXML issues a GET and decodes the XML body into out.
func GetXML(ctx context.Context, client *http.Client, mancerID, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return NewError(mancerID, "invalid request", err)
	}
	body, err := Fetch(ctx, client, mancerID, req)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(body, out); err != nil {
		return &Error{Mancer: mancerID, Message: "invalid XML response", Body: truncate(string(body)), Err: err}
	}
	return nil
}

func truncate(s string) string {
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}
