package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveAuth(keys []string, path, authHeader string) *httptest.ResponseRecorder {
	handler := BearerAuthMiddleware(keys)(okHandler())
	req := httptest.NewRequest("GET", path, http.NoBody)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestAuthMiddleware_EmptyKeys_PassThrough(t *testing.T) {
	if rr := serveAuth(nil, "/api/search", ""); rr.Code != http.StatusOK {
		t.Errorf("empty keys: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_EmptyStringKeys_PassThrough(t *testing.T) {
	if rr := serveAuth([]string{"", ""}, "/api/search", ""); rr.Code != http.StatusOK {
		t.Errorf("empty string keys: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_MissingHeader_401(t *testing.T) {
	rr := serveAuth([]string{"secret"}, "/api/search", "")

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("missing header: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != ErrorResponseCodeUnauthorized {
		t.Errorf("error code: got %s, want %s", errResp.Code, ErrorResponseCodeUnauthorized)
	}
}

func TestAuthMiddleware_BasicScheme_401(t *testing.T) {
	if rr := serveAuth([]string{"secret"}, "/api/search", "Basic dXNlcjpwYXNz"); rr.Code != http.StatusUnauthorized {
		t.Errorf("basic scheme: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_InvalidToken_401(t *testing.T) {
	if rr := serveAuth([]string{"secret"}, "/api/search", "Bearer wrong-key"); rr.Code != http.StatusUnauthorized {
		t.Errorf("invalid token: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_ValidToken_200(t *testing.T) {
	if rr := serveAuth([]string{"secret"}, "/api/search", "Bearer secret"); rr.Code != http.StatusOK {
		t.Errorf("valid token: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_MultipleKeys(t *testing.T) {
	for _, key := range []string{"key1", "key2"} {
		if rr := serveAuth([]string{"key1", "key2"}, "/api/search", "Bearer "+key); rr.Code != http.StatusOK {
			t.Errorf("key %s: got %d, want %d", key, rr.Code, http.StatusOK)
		}
	}
}

func TestAuthMiddleware_OpenPaths(t *testing.T) {
	for _, path := range []string{"/", "/health", "/metrics", "/static/search.js", "/api/suggest"} {
		if rr := serveAuth([]string{"secret"}, path, ""); rr.Code != http.StatusOK {
			t.Errorf("open path %s: got %d, want %d", path, rr.Code, http.StatusOK)
		}
	}
}
