// Package recaptcha verifies client tokens against Google's siteverify
// endpoint before public form submissions are accepted.
package recaptcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout     = 8 * time.Second
	maxResponseSize    = 64 * 1024
	defaultMinScore    = 0.5
	defaultEndpointURL = "https://www.google.com/recaptcha/api/siteverify"
)

// ErrTokenRejected is returned when the verification service rejects a token
// or scores it below the configured threshold.
var ErrTokenRejected = errors.New("recaptcha: token rejected")

// Verifier checks reCAPTCHA tokens against the Google siteverify API.
type Verifier struct {
	endpoint string
	secret   string
	minScore float64
	http     *http.Client
}

// Config carries verifier construction parameters.
type Config struct {
	// Endpoint defaults to the public siteverify URL when empty.
	Endpoint string
	// SecretKey identifies the site. Required.
	SecretKey string
	// MinScore rejects v3 tokens scoring below this threshold. Zero uses 0.5.
	MinScore float64
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// NewVerifier constructs a Verifier from config.
func NewVerifier(cfg Config) (*Verifier, error) {
	secret := strings.TrimSpace(cfg.SecretKey)
	if secret == "" {
		return nil, errors.New("recaptcha: secret key is required")
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpointURL
	}
	minScore := cfg.MinScore
	if minScore <= 0 {
		minScore = defaultMinScore
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Verifier{
		endpoint: endpoint,
		secret:   secret,
		minScore: minScore,
		http:     client,
	}, nil
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify posts the token to the siteverify endpoint and returns nil when the
// token is valid and scores at or above the configured threshold.
func (v *Verifier) Verify(ctx context.Context, token string, remoteIP string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: empty token", ErrTokenRejected)
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if ip := strings.TrimSpace(remoteIP); ip != "" {
		form.Set("remoteip", ip)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("recaptcha: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := v.http.Do(req)
	if err != nil {
		return fmt.Errorf("recaptcha: verify request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("recaptcha: verification service returned %d", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("recaptcha: read response: %w", err)
	}

	var verdict siteverifyResponse
	if err := json.Unmarshal(body, &verdict); err != nil {
		return fmt.Errorf("recaptcha: decode response: %w", err)
	}

	if !verdict.Success {
		return fmt.Errorf("%w: %s", ErrTokenRejected, strings.Join(verdict.ErrorCodes, ","))
	}
	// v2 responses omit the score field; only enforce the threshold when the
	// service reported one.
	if verdict.Score > 0 && verdict.Score < v.minScore {
		return fmt.Errorf("%w: score %.2f below threshold", ErrTokenRejected, verdict.Score)
	}
	return nil
}
