package carrier

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrNotConfigured is returned before any network call when carrier
// credentials are missing.
var ErrNotConfigured = errors.New("carrier API credentials not configured")

// TransportError wraps a connection or timeout failure. These are retryable.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("carrier transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx carrier response after retries are exhausted. It
// preserves the best-effort extracted carrier message.
type HTTPError struct {
	Status         int
	CarrierMessage string
}

func (e *HTTPError) Error() string {
	if e.CarrierMessage == "" {
		return fmt.Sprintf("carrier returned HTTP %d", e.Status)
	}
	return fmt.Sprintf("carrier returned HTTP %d: %s", e.Status, e.CarrierMessage)
}

// InvalidResponseError is a 2xx response whose body could not be decoded or
// is missing a required field, e.g. a manifest with no waybill.
type InvalidResponseError struct {
	Reason string
}

func (e *InvalidResponseError) Error() string {
	return "invalid carrier response: " + e.Reason
}

// isRetryable classifies transport-level failures. Connection errors,
// timeouts and resets are worth retrying; anything else is terminal for the
// call.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// extractCarrierMessage digs the human-readable error out of a carrier error
// body. The carrier is not consistent about where it puts it.
func extractCarrierMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return truncate(strings.TrimSpace(string(body)), 200)
	}

	for _, field := range []string{"message", "error", "remark", "rmk"} {
		if raw, ok := payload[field]; ok {
			if msg := asMessage(raw); msg != "" {
				return msg
			}
		}
	}

	if raw, ok := payload["errors"]; ok {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
			if msg := asMessage(list[0]); msg != "" {
				return msg
			}
		}
	}

	return ""
}

// asMessage handles both bare strings and {"message": "..."} objects.
func asMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Message)
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
