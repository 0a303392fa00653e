package gemini

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"
)

// defaultRetryAfter is used when a quota error carries no usable wait hint.
// Gemini quota windows reset on the minute, so one minute is a safe ceiling.
const defaultRetryAfter = time.Minute

// RateLimitError is a quota/rate-limit failure from the generation API. It is
// always retryable and carries the server-suggested wait when one was found.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("gemini rate limited (retry after %s): %s", e.RetryAfter, e.Message)
}

// Retryable marks quota errors as worth another attempt.
func (e *RateLimitError) Retryable() bool { return true }

// SuggestedDelay exposes the server-suggested wait to the retry policy.
func (e *RateLimitError) SuggestedDelay() (time.Duration, bool) {
	return e.RetryAfter, e.RetryAfter > 0
}

// APIError is any non-quota HTTP failure from the generation API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini error %d: %s", e.StatusCode, e.Message)
}

// Retryable reports true only for server-side failures.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// retryDelayExpr matches the unstructured "retry in 39.5s" phrasing some
// quota error messages use. Parsing text is a last resort kept in this one
// boundary function.
var retryDelayExpr = regexp.MustCompile(`[Rr]etry in (\d+(?:\.\d+)?)\s*s`)

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Details []struct {
			Type       string `json:"@type"`
			RetryDelay string `json:"retryDelay"`
		} `json:"details"`
	} `json:"error"`
}

// retryAfterFrom resolves the suggested wait for a 429 response. Preference
// order: Retry-After header, structured RetryInfo detail in the error payload,
// text scan of the error message, fixed default.
func retryAfterFrom(header string, payload []byte) time.Duration {
	if header != "" {
		if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(payload, &envelope); err == nil {
		for _, detail := range envelope.Error.Details {
			if detail.RetryDelay == "" {
				continue
			}
			if d, err := time.ParseDuration(detail.RetryDelay); err == nil && d > 0 {
				return d
			}
		}
		if match := retryDelayExpr.FindStringSubmatch(envelope.Error.Message); match != nil {
			if secs, err := strconv.ParseFloat(match[1], 64); err == nil && secs > 0 {
				return time.Duration(secs * float64(time.Second))
			}
		}
	}

	if match := retryDelayExpr.FindStringSubmatch(string(payload)); match != nil {
		if secs, err := strconv.ParseFloat(match[1], 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}

	return defaultRetryAfter
}
