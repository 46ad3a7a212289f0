package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// protect wraps a trivial handler with RequireToken and returns the
// recorder plus whether the inner handler ran.
func protect(t *testing.T, configured string, req *http.Request) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	reached := false
	handler := RequireToken(configured)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, reached
}

func TestRequireToken_ValidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/execute", nil)
	req.Header.Set("Authorization", "Bearer sekret")

	rec, reached := protect(t, "sekret", req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !reached {
		t.Error("handler should run for a valid token")
	}
}

func TestRequireToken_MissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/execute", nil)

	rec, reached := protect(t, "sekret", req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if reached {
		t.Error("handler should not run without a token")
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body["error"] == "" {
		t.Error("error body should carry a message")
	}
}

func TestRequireToken_MalformedHeader(t *testing.T) {
	cases := []string{
		"sekret",         // no scheme
		"Basic c2VrcmV0", // wrong scheme
		"Bearer",         // scheme without credential
		"Bearer    ",     // credential is whitespace
	}

	for _, header := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/execute", nil)
		req.Header.Set("Authorization", header)

		rec, reached := protect(t, "sekret", req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want %d", header, rec.Code, http.StatusUnauthorized)
		}
		if reached {
			t.Errorf("header %q: handler should not run", header)
		}
	}
}

func TestRequireToken_WrongToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/execute", nil)
	req.Header.Set("Authorization", "Bearer guess")

	rec, reached := protect(t, "sekret", req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if reached {
		t.Error("handler should not run for a wrong token")
	}
}

func TestRequireToken_SchemeIsCaseInsensitive(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/execute", nil)
	req.Header.Set("Authorization", "bearer sekret")

	rec, _ := protect(t, "sekret", req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireToken_EmptyConfigDisablesAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/execute", nil)

	rec, reached := protect(t, "", req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !reached {
		t.Error("handler should run when auth is disabled")
	}
}
