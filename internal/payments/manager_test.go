package payments

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	name       string
	sessions   int
	lookupErr  error
	sessionErr error
}

func (s *stubProvider) CreateSession(context.Context, SessionRequest) (Session, error) {
	s.sessions++
	if s.sessionErr != nil {
		return Session{}, s.sessionErr
	}
	return Session{ID: s.name + "-session"}, nil
}

func (s *stubProvider) LookupPayment(context.Context, LookupRequest) (PaymentDetails, error) {
	if s.lookupErr != nil {
		return PaymentDetails{}, s.lookupErr
	}
	return PaymentDetails{Provider: s.name, Status: StatusSucceeded}, nil
}

func TestManagerPrefersExplicitProvider(t *testing.T) {
	stripe := &stubProvider{name: "stripe"}
	bkash := &stubProvider{name: "bkash"}
	manager, err := NewManager(map[string]Provider{"stripe": stripe, "bkash": bkash})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	session, err := manager.CreateSession(context.Background(), PaymentContext{PreferredProvider: "bkash"}, SessionRequest{})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.Provider != "bkash" {
		t.Fatalf("provider = %q, want bkash", session.Provider)
	}
	if bkash.sessions != 1 || stripe.sessions != 0 {
		t.Fatalf("wrong provider invoked: bkash=%d stripe=%d", bkash.sessions, stripe.sessions)
	}
}

func TestManagerRoutesByCurrency(t *testing.T) {
	stripe := &stubProvider{name: "stripe"}
	bkash := &stubProvider{name: "bkash"}
	manager, err := NewManager(
		map[string]Provider{"stripe": stripe, "bkash": bkash},
		WithCurrencyRoutes(map[string]string{"BDT": "bkash"}),
	)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	session, err := manager.CreateSession(context.Background(), PaymentContext{Currency: "bdt"}, SessionRequest{})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.Provider != "bkash" {
		t.Fatalf("provider = %q, want bkash", session.Provider)
	}
}

func TestManagerFallsBackToDefault(t *testing.T) {
	stripe := &stubProvider{name: "stripe"}
	manager, err := NewManager(map[string]Provider{"stripe": stripe, "bkash": &stubProvider{name: "bkash"}})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	session, err := manager.CreateSession(context.Background(), PaymentContext{Currency: "USD"}, SessionRequest{})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.Provider != "stripe" {
		t.Fatalf("provider = %q, want stripe default", session.Provider)
	}
}

func TestManagerRejectsUnknownProvider(t *testing.T) {
	manager, err := NewManager(
		map[string]Provider{"bkash": &stubProvider{name: "bkash"}, "stripe": &stubProvider{name: "stripe"}},
		WithDefaultProvider("missing"),
	)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	_, err = manager.CreateSession(context.Background(), PaymentContext{PreferredProvider: "paypal"}, SessionRequest{})
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestManagerSingleProviderWinsWithoutRouting(t *testing.T) {
	bkash := &stubProvider{name: "bkash"}
	manager, err := NewManager(map[string]Provider{"bkash": bkash})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	details, err := manager.LookupPayment(context.Background(), PaymentContext{}, LookupRequest{IntentID: "x"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if details.Provider != "bkash" {
		t.Fatalf("provider = %q", details.Provider)
	}
}
