package payments

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	name      string
	intent    Intent
	intentErr error
	lastReq   IntentRequest
}

func (s *stubProvider) CreateIntent(_ context.Context, req IntentRequest) (Intent, error) {
	s.lastReq = req
	if s.intentErr != nil {
		return Intent{}, s.intentErr
	}
	return s.intent, nil
}

func (s *stubProvider) Refund(context.Context, RefundRequest) (PaymentDetails, error) {
	return PaymentDetails{Provider: s.name, Status: StatusRefunded}, nil
}

func (s *stubProvider) LookupPayment(context.Context, LookupRequest) (PaymentDetails, error) {
	return PaymentDetails{Provider: s.name, Status: StatusSucceeded}, nil
}

func TestNewManagerRequiresProviders(t *testing.T) {
	if _, err := NewManager(nil); err == nil {
		t.Fatal("expected error for empty provider map")
	}
	if _, err := NewManager(map[string]Provider{"": &stubProvider{}}); err == nil {
		t.Fatal("expected error for blank provider key")
	}
}

func TestManagerDefaultsToStripe(t *testing.T) {
	stripe := &stubProvider{name: "stripe", intent: Intent{ID: "pi_1"}}
	other := &stubProvider{name: "other", intent: Intent{ID: "pi_2"}}
	manager, err := NewManager(map[string]Provider{"stripe": stripe, "other": other})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	intent, err := manager.CreateIntent(context.Background(), PaymentContext{}, IntentRequest{Amount: 1000, Currency: "CAD"})
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if intent.ID != "pi_1" {
		t.Fatalf("expected stripe intent, got %q", intent.ID)
	}
	if intent.Provider != "stripe" {
		t.Fatalf("expected provider label stripe, got %q", intent.Provider)
	}
	if stripe.lastReq.Amount != 1000 {
		t.Fatalf("request not forwarded, amount %d", stripe.lastReq.Amount)
	}
}

func TestManagerCurrencyRouting(t *testing.T) {
	cad := &stubProvider{name: "cad", intent: Intent{ID: "pi_cad"}}
	usd := &stubProvider{name: "usd", intent: Intent{ID: "pi_usd"}}
	manager, err := NewManager(
		map[string]Provider{"cad": cad, "usd": usd},
		WithCurrencyRoutes(map[string]string{"CAD": "cad", "USD": "usd"}),
		WithDefaultProvider("cad"),
	)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	intent, err := manager.CreateIntent(context.Background(), PaymentContext{Currency: "usd"}, IntentRequest{Amount: 500, Currency: "USD"})
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if intent.ID != "pi_usd" {
		t.Fatalf("expected usd route, got %q", intent.ID)
	}
}

func TestManagerPreferredProviderWins(t *testing.T) {
	a := &stubProvider{name: "a", intent: Intent{ID: "pi_a"}}
	b := &stubProvider{name: "b", intent: Intent{ID: "pi_b"}}
	manager, err := NewManager(map[string]Provider{"a": a, "b": b}, WithDefaultProvider("a"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	intent, err := manager.CreateIntent(context.Background(), PaymentContext{PreferredProvider: "B"}, IntentRequest{})
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if intent.ID != "pi_b" {
		t.Fatalf("expected preferred provider b, got %q", intent.ID)
	}
}

func TestManagerUnsupportedProvider(t *testing.T) {
	a := &stubProvider{name: "a"}
	b := &stubProvider{name: "b"}
	manager, err := NewManager(map[string]Provider{"a": a, "b": b})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if _, err := manager.CreateIntent(context.Background(), PaymentContext{}, IntentRequest{}); !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestManagerCreateIntentPropagatesError(t *testing.T) {
	boom := errors.New("psp down")
	stripe := &stubProvider{name: "stripe", intentErr: boom}
	manager, err := NewManager(map[string]Provider{"stripe": stripe})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if _, err := manager.CreateIntent(context.Background(), PaymentContext{}, IntentRequest{}); !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
}
