package observability

import (
	"net/http"
	"strings"
)

// SanitizeMethod normalises the HTTP method for logging.
func SanitizeMethod(method string) string {
	method = strings.ToUpper(strings.TrimSpace(method))
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return method
	default:
		return "UNKNOWN"
	}
}

// SanitizeRoute trims and bounds the route pattern emitted in logs.
func SanitizeRoute(route string) string {
	return sanitizeString(route, 256)
}

// SanitizeUserID bounds user identifiers before they reach log output.
func SanitizeUserID(uid string) string {
	return sanitizeString(uid, 80)
}

func sanitizeString(value string, limit int) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if limit > 0 && len(value) > limit {
		value = value[:limit]
	}
	return value
}
