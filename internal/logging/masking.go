// Package logging provides utilities for secure logging with data masking.
package logging

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Redacted replaces masked values.
const Redacted = "[REDACTED]"

// SecretFields are the JSON fields that carry admin credentials.
var SecretFields = []string{"password", "token"}

// MaxLoggedBodyBytes is the largest body logged verbatim. Restore uploads can
// be megabytes of catalog JSON; anything longer is summarized.
const MaxLoggedBodyBytes = 4096

// MaskHeader redacts sensitive header values based on header name.
// Returns the redacted value suitable for logging.
//
// Rules:
// - Password/secret headers: "[REDACTED]" (no partial reveal)
// - Token headers: "****" + last4chars (e.g., "****ab3f")
// - Other headers: returned unchanged
func MaskHeader(name, value string) string {
	lowerName := strings.ToLower(name)

	// Password/secret headers - full redaction
	if strings.Contains(lowerName, "password") ||
		strings.Contains(lowerName, "secret") ||
		lowerName == "cookie" {
		return Redacted
	}

	// Token headers - show last 4 chars
	if lowerName == "authorization" ||
		lowerName == "x-admin-token" {
		if len(value) < 4 {
			return "****"
		}
		return "****" + value[len(value)-4:]
	}

	// All other headers - return unchanged
	return value
}

// MaskJSONFields redacts the listed fields wherever they appear in a JSON body.
// Field names match case-insensitively.
//
// If fields is nil, returns the body unchanged.
// Returns the original body if it is not valid JSON.
func MaskJSONFields(body []byte, fields []string) []byte {
	if fields == nil || len(body) == 0 {
		return body
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return body
	}

	deny := make(map[string]bool, len(fields))
	for _, f := range fields {
		deny[strings.ToLower(f)] = true
	}

	result, err := json.Marshal(maskJSONValue(data, deny))
	if err != nil {
		return body
	}
	return result
}

// maskJSONValue recursively redacts denied fields
func maskJSONValue(value any, deny map[string]bool) any {
	switch v := value.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, val := range v {
			if deny[strings.ToLower(key)] {
				result[key] = Redacted
				continue
			}
			result[key] = maskJSONValue(val, deny)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = maskJSONValue(item, deny)
		}
		return result
	default:
		return value
	}
}

// FormatBinaryData formats binary data for logging.
// Returns a human-readable size indicator.
func FormatBinaryData(data []byte) string {
	return fmt.Sprintf("[BINARY: %d bytes]", len(data))
}

// TruncateBody shortens s to MaxLoggedBodyBytes, noting the original size.
func TruncateBody(s string) string {
	if len(s) <= MaxLoggedBodyBytes {
		return s
	}
	return fmt.Sprintf("%s...[TRUNCATED: %d bytes]", s[:MaxLoggedBodyBytes], len(s))
}
