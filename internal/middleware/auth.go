package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

type contextKey string

// ClientKey holds the name of the client whose key authorized the request.
const ClientKey contextKey = "client"

// APIKeyAuth guards the JSON API. keys maps a client name to its key and an
// empty map leaves the API open. The key is read from "Authorization: Bearer
// <key>" or a bare "Authorization: <key>".
func APIKeyAuth(keys map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="repo-analyzer"`)
				http.Error(w, "api key required", http.StatusUnauthorized)
				return
			}
			client, ok := matchKey(keys, presented)
			if !ok {
				http.Error(w, "api key not recognized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ClientKey, client)))
		})
	}
}

func bearer(header string) (string, bool) {
	switch f := strings.Fields(header); {
	case len(f) == 2 && f[0] == "Bearer":
		return f[1], true
	case len(f) == 1 && f[0] != "Bearer":
		return f[0], true
	}
	return "", false
}

// matchKey compares presented against every key so the time taken does not
// depend on which client matched.
func matchKey(keys map[string]string, presented string) (string, bool) {
	var client string
	matched := 0
	for name, key := range keys {
		if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) == 1 {
			client = name
			matched = 1
		}
	}
	return client, matched == 1
}

// GetClientFromContext returns the authenticated client name, or "".
func GetClientFromContext(ctx context.Context) string {
	client, _ := ctx.Value(ClientKey).(string)
	return client
}
