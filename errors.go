package erpclient

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// ErrNoBaseURL is returned by every request when the client was built
// without a base URL. It is a configuration problem, not an APIError.
var ErrNoBaseURL = errors.New("API base URL is not configured")

// Fallback messages used when the server supplies no usable detail.
// Status 0 stands for transport failures and doubles as the default for
// unmapped statuses.
var statusFallbacks = map[int]string{
	0:   "We couldn’t reach the server. Check your connection and try again.",
	400: "Some details need attention. Please review the highlighted fields.",
	401: "We couldn’t verify your credentials. Please sign in again.",
	403: "You don’t have permission to perform this action.",
	404: "We couldn’t find what you were looking for.",
	409: "This action conflicts with an existing record.",
	422: "Some details need attention. Please review the highlighted fields.",
	500: "Something went wrong on our side. Please try again later.",
}

// Keys whose values are emitted first and without a field-name prefix.
var priorityKeys = []string{"detail", "error", "message", "non_field_errors", "errors"}

func isPriorityKey(key string) bool {
	for _, k := range priorityKeys {
		if k == key {
			return true
		}
	}
	return false
}

// startCase turns a snake or kebab cased key into a human-readable label,
// e.g. "vat_number" becomes "Vat Number".
func startCase(key string) string {
	fields := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	for i, field := range fields {
		runes := []rune(field)
		runes[0] = unicode.ToUpper(runes[0])
		fields[i] = string(runes)
	}
	return strings.Join(fields, " ")
}

// flattenMessages walks an arbitrary decoded JSON error payload and
// collects every message string. Priority keys come first, unprefixed.
// Remaining object keys are visited in sorted order so the output is
// deterministic, each message prefixed with the start-cased key unless the
// key repeats its parent.
func flattenMessages(payload any, parentKey string) []string {
	switch v := payload.(type) {
	case string:
		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, flattenMessages(item, parentKey)...)
		}
		return out
	case map[string]any:
		var out []string
		for _, key := range priorityKeys {
			if value, ok := v[key]; ok {
				out = append(out, flattenMessages(value, key)...)
			}
		}
		rest := make([]string, 0, len(v))
		for key := range v {
			if !isPriorityKey(key) {
				rest = append(rest, key)
			}
		}
		sort.Strings(rest)
		for _, key := range rest {
			prefix := ""
			if key != parentKey {
				prefix = startCase(key)
			}
			for _, msg := range flattenMessages(v[key], key) {
				if prefix != "" {
					msg = prefix + ": " + msg
				}
				out = append(out, msg)
			}
		}
		return out
	}
	return nil
}

func fallbackMessage(status int) string {
	if msg, ok := statusFallbacks[status]; ok {
		return msg
	}
	return statusFallbacks[0]
}

// NormalizeErrorPayload converts a heterogeneous server error payload into
// one primary message plus remaining details. Pure function: a given
// payload and status always normalize the same way.
func NormalizeErrorPayload(payload any, status int) (message string, details []string) {
	var messages []string
	for _, msg := range flattenMessages(payload, "") {
		msg = strings.TrimSpace(msg)
		if msg != "" {
			messages = append(messages, msg)
		}
	}
	if len(messages) == 0 {
		return fallbackMessage(status), nil
	}
	return messages[0], messages[1:]
}

// APIError is the client's uniform error representation. Every non-2xx
// response and every transport failure (Status 0) becomes one of these;
// call sites never see raw transport errors.
type APIError struct {
	Message string
	Status  int
	Details []string
	Body    any
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	}
	return e.Message
}

func newAPIError(payload any, status int) *APIError {
	message, details := NormalizeErrorPayload(payload, status)
	return &APIError{
		Message: message,
		Status:  status,
		Details: details,
		Body:    payload,
	}
}

func transportError(err error) *APIError {
	var details []string
	if err != nil && err.Error() != "" {
		details = []string{err.Error()}
	}
	return &APIError{
		Message: fallbackMessage(0),
		Status:  0,
		Details: details,
	}
}

// AsAPIError unwraps err into an *APIError when there is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// ErrorMessages returns every displayable message carried by err, primary
// message first.
func ErrorMessages(err error) []string {
	if apiErr, ok := AsAPIError(err); ok {
		messages := make([]string, 0, len(apiErr.Details)+1)
		for _, msg := range append([]string{apiErr.Message}, apiErr.Details...) {
			if strings.TrimSpace(msg) != "" {
				messages = append(messages, msg)
			}
		}
		return messages
	}
	if err != nil && strings.TrimSpace(err.Error()) != "" {
		return []string{err.Error()}
	}
	return nil
}

// PrimaryErrorMessage returns the first displayable message carried by
// err, or the generic transport fallback.
func PrimaryErrorMessage(err error) string {
	if messages := ErrorMessages(err); len(messages) > 0 {
		return messages[0]
	}
	return fallbackMessage(0)
}
