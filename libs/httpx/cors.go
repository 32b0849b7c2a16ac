package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy lets browser booking widgets on other origins call the API.
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// WithCORS answers preflights and stamps CORS headers for allowed origins.
// With no allowed origins it is a no-op. "*" allows any origin; with
// credentials the concrete origin is echoed instead.
func WithCORS(cfg CORSPolicy) Middleware {
	origins := map[string]bool{}
	anyOrigin := false
	for _, o := range trimAll(cfg.AllowedOrigins) {
		if o == "*" {
			anyOrigin = true
			continue
		}
		origins[strings.ToLower(o)] = true
	}
	if !anyOrigin && len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	methods := trimAll(cfg.AllowedMethods)
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}
	}
	allowHeaders := trimAll(cfg.AllowedHeaders)
	if len(allowHeaders) == 0 {
		allowHeaders = []string{"Content-Type", "X-Business-Id", RequestIDHeader}
	}
	allowMethods := strings.Join(methods, ", ")
	allowHeaderList := strings.Join(allowHeaders, ", ")
	maxAge := ""
	if secs := int(cfg.MaxAge / time.Second); secs > 0 {
		maxAge = strconv.Itoa(secs)
	}

	allowed := func(origin string) (string, bool) {
		switch {
		case origins[strings.ToLower(origin)]:
			return origin, true
		case anyOrigin && cfg.AllowCredentials:
			return origin, true
		case anyOrigin:
			return "*", true
		}
		return "", false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			h.Add("Vary", "Origin")

			value, ok := allowed(origin)
			if origin == "" || !ok {
				next.ServeHTTP(w, r)
				return
			}
			h.Set("Access-Control-Allow-Origin", value)
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Access-Control-Expose-Headers", RequestIDHeader)

			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if !preflight {
				next.ServeHTTP(w, r)
				return
			}
			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Allow-Headers", allowHeaderList)
			if maxAge != "" {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
