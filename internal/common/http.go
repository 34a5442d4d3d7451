package common

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ClientIP attempts to determine the real client IP address from the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); ip != "" {
		parts := strings.Split(ip, ",")
		if len(parts) > 0 {
			candidate := strings.TrimSpace(parts[0])
			if candidate != "" {
				return candidate
			}
		}
		return strings.TrimSpace(ip)
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

// FormInput returns the submitted fields of a request. JSON object bodies are
// flattened into string values so handlers can treat browser form posts and
// API calls alike.
func FormInput(r *http.Request) (url.Values, error) {
	if strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return nil, NewAppError("BAD_REQUEST", "invalid payload", http.StatusBadRequest, err)
		}
		values := make(url.Values, len(payload))
		for key, raw := range payload {
			switch v := raw.(type) {
			case nil:
				values.Set(key, "")
			case string:
				values.Set(key, v)
			case float64:
				values.Set(key, strconv.FormatFloat(v, 'f', -1, 64))
			default:
				values.Set(key, fmt.Sprint(v))
			}
		}
		return values, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, NewAppError("BAD_REQUEST", "invalid form", http.StatusBadRequest, err)
	}
	return r.PostForm, nil
}

// AtoiDefault parses a whole-number form or query value, returning def when
// it is blank or malformed.
func AtoiDefault(value string, def int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}
