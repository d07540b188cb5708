package recaptcha

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestVerifier(t *testing.T, handler http.HandlerFunc, minScore float64) *Verifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	verifier, err := NewVerifier(Config{
		Endpoint:   srv.URL,
		SecretKey:  "test-secret",
		MinScore:   minScore,
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return verifier
}

func TestVerifyAcceptsValidToken(t *testing.T) {
	var gotToken, gotSecret, gotRemoteIP string
	verifier := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		gotToken = r.PostFormValue("response")
		gotSecret = r.PostFormValue("secret")
		gotRemoteIP = r.PostFormValue("remoteip")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"score":0.9,"action":"submit"}`))
	}, 0.5)

	if err := verifier.Verify(context.Background(), "tok-abc", "203.0.113.9"); err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if gotToken != "tok-abc" {
		t.Errorf("unexpected token forwarded: %q", gotToken)
	}
	if gotSecret != "test-secret" {
		t.Errorf("unexpected secret forwarded: %q", gotSecret)
	}
	if gotRemoteIP != "203.0.113.9" {
		t.Errorf("unexpected remote ip forwarded: %q", gotRemoteIP)
	}
}

func TestVerifyRejectsFailedToken(t *testing.T) {
	verifier := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}, 0.5)

	err := verifier.Verify(context.Background(), "tok-bad", "")
	if !errors.Is(err, ErrTokenRejected) {
		t.Fatalf("expected ErrTokenRejected, got %v", err)
	}
}

func TestVerifyRejectsLowScore(t *testing.T) {
	verifier := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"score":0.2,"action":"submit"}`))
	}, 0.7)

	err := verifier.Verify(context.Background(), "tok-low", "")
	if !errors.Is(err, ErrTokenRejected) {
		t.Fatalf("expected ErrTokenRejected for low score, got %v", err)
	}
}

func TestVerifyAcceptsScorelessResponse(t *testing.T) {
	verifier := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true}`))
	}, 0.7)

	if err := verifier.Verify(context.Background(), "tok-v2", ""); err != nil {
		t.Fatalf("expected v2 response without score to pass, got %v", err)
	}
}

func TestVerifyRejectsEmptyToken(t *testing.T) {
	verifier := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("verification service should not be called for empty tokens")
	}, 0.5)

	if err := verifier.Verify(context.Background(), "  ", ""); !errors.Is(err, ErrTokenRejected) {
		t.Fatalf("expected ErrTokenRejected, got %v", err)
	}
}

func TestVerifyServiceError(t *testing.T) {
	verifier := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, 0.5)

	if err := verifier.Verify(context.Background(), "tok-abc", ""); err == nil {
		t.Fatal("expected error when verification service is unavailable")
	}
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	if _, err := NewVerifier(Config{}); err == nil {
		t.Fatal("expected error for missing secret key")
	}
}
