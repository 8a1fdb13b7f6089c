package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const validationFallback = "Validation failed. Please check your input."

// Error is a non-2xx response that is neither a validation nor a rate-limit
// failure
type Error struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error (%d)", e.StatusCode)
	}
	return e.Message
}

// FieldError is one entry of a validation failure
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is a 4xx whose detail is a list of field errors
type ValidationError struct {
	StatusCode int
	Fields     []FieldError
}

// Error returns the first field message, the way forms display it
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 || e.Fields[0].Message == "" {
		return validationFallback
	}
	return strings.TrimPrefix(e.Fields[0].Message, "Value error, ")
}

// RateLimitError is an HTTP 429. RetryAfter is how long the caller must wait
// before retrying; zero when the server gave no hint.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// Message returns the text to show the user for err, or fallback when err
// carries nothing displayable (transport failures, empty bodies).
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.Message != "" {
		return rl.Message
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return fallback
}

// RetryAfter returns the cooldown carried by a rate-limit error
func RetryAfter(err error) (time.Duration, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}

// StatusCode returns the HTTP status of an API error, or 0
func StatusCode(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.StatusCode
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return http.StatusTooManyRequests
	}
	return 0
}

type errorBody struct {
	Detail     json.RawMessage `json:"detail"`
	Error      string          `json:"error"`
	Details    string          `json:"details"`
	RetryAfter *float64        `json:"retry_after"`
}

type validationItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// Older servers only put the cooldown in the message text
var waitSecondsPattern = regexp.MustCompile(`(\d+) seconds`)

func parseError(resp *http.Response, body []byte, requestID string) error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	message := eb.Error
	var fields []FieldError
	isList := false

	if len(eb.Detail) > 0 {
		var detail string
		var items []validationItem
		if json.Unmarshal(eb.Detail, &detail) == nil {
			message = detail
		} else if json.Unmarshal(eb.Detail, &items) == nil {
			isList = true
			for _, it := range items {
				fields = append(fields, FieldError{Field: fieldName(it.Loc), Message: it.Msg})
			}
		}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{
			Message:    message,
			RetryAfter: retryAfter(resp.Header, eb.RetryAfter, message),
		}
	}

	if isList {
		return &ValidationError{StatusCode: resp.StatusCode, Fields: fields}
	}

	return &Error{StatusCode: resp.StatusCode, Message: message, RequestID: requestID}
}

func retryAfter(h http.Header, field *float64, message string) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
		if at, err := http.ParseTime(v); err == nil {
			if d := time.Until(at); d > 0 {
				return d.Round(time.Second)
			}
			return 0
		}
	}
	if field != nil && *field >= 0 {
		return time.Duration(*field * float64(time.Second))
	}
	if m := waitSecondsPattern.FindStringSubmatch(message); m != nil {
		secs, _ := strconv.Atoi(m[1])
		return time.Duration(secs) * time.Second
	}
	return 0
}

func fieldName(loc []any) string {
	parts := make([]string, 0, len(loc))
	for _, p := range loc {
		if s, ok := p.(string); ok && s == "body" {
			continue
		}
		parts = append(parts, fmt.Sprint(p))
	}
	return strings.Join(parts, ".")
}
