package generation

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// classifyStatus maps an HTTP status from a provider to an *Error.
func classifyStatus(code int, header http.Header, msg string) *Error {
	e := &Error{Kind: KindOther, Message: msg}
	switch {
	case code == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
	case code >= 500 && code <= 599:
		e.Kind = KindServerError
	case quotaExhausted(msg):
		e.Kind = KindRateLimited
	}
	if e.Retryable() {
		e.RetryAfter = parseRetryAfter(header, time.Now())
	}
	return e
}

func quotaExhausted(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "resource_exhausted") || strings.Contains(m, "quota exceeded")
}

// parseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
func parseRetryAfter(header http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(header.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
