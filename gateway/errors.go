package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/arnaud-devs/hangart-sub000/errors"
)

// parseErrorBody turns a non-2xx response into an AppError. API error
// bodies come in a few shapes; the human-readable message is looked up
// under "detail", then "message", then "error", and any remaining keys
// whose values are strings or string lists are collected as per-field
// validation messages.
func parseErrorBody(status int, body []byte) error {
	message := ""
	var fields map[string]string

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"detail", "message", "error"} {
			if s, ok := payload[key].(string); ok && s != "" {
				message = s
				delete(payload, key)
				break
			}
		}
		fields = collectFieldErrors(payload)
		if message == "" && len(fields) > 0 {
			message = "request validation failed"
		}
	}

	if message == "" {
		message = fmt.Sprintf("request failed with status %d %s", status, http.StatusText(status))
	}

	code := codeForStatus(status)
	return apperrors.FromStatus(status, code, message, fields)
}

// collectFieldErrors flattens DRF-style {"field": ["msg", ...]} maps into
// one message per field.
func collectFieldErrors(payload map[string]any) map[string]string {
	fields := map[string]string{}
	for key, value := range payload {
		switch v := value.(type) {
		case string:
			fields[key] = v
		case []any:
			var msgs []string
			for _, item := range v {
				if s, ok := item.(string); ok {
					msgs = append(msgs, s)
				}
			}
			if len(msgs) > 0 {
				fields[key] = strings.Join(msgs, "; ")
			}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "VALIDATION_ERROR"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		if status >= 500 {
			return "SERVER_ERROR"
		}
		return "REQUEST_FAILED"
	}
}
