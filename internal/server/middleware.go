package server

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"
)

// TokenHeader is the alternative to an Authorization bearer token.
const TokenHeader = "X-Sync-Token"

// requireToken rejects requests without the shared secret. An empty secret leaves
// the routes open.
func requireToken(secret string) func(http.Handler) http.Handler {
	required := strings.TrimSpace(secret)
	if required == "" {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			candidate := ""
			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
				candidate = strings.TrimSpace(authHeader[7:])
			}
			if candidate == "" {
				candidate = strings.TrimSpace(r.Header.Get(TokenHeader))
			}
			if subtle.ConstantTimeCompare([]byte(candidate), []byte(required)) != 1 {
				respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+TokenHeader+", X-Request-ID")
			h.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			if origin != "*" {
				h.Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func limitBody(max int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if max > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, max)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// fileOnlyFS hides directories so the upload root cannot be listed.
type fileOnlyFS struct {
	fs http.FileSystem
}

func (f fileOnlyFS) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}

func staticUploads(prefix, dir string) http.Handler {
	files := http.StripPrefix(prefix, http.FileServer(fileOnlyFS{fs: http.Dir(dir)}))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}
