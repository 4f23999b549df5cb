package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// BkashLogger defines the logging contract for bKash provider operations.
type BkashLogger func(ctx context.Context, event string, fields map[string]any)

// BkashProviderConfig configures the BkashProvider.
type BkashProviderConfig struct {
	BaseURL    string
	AppKey     string
	AppSecret  string
	HTTPClient *http.Client
	Logger     BkashLogger
	Clock      func() time.Time
}

// BkashProvider implements the Provider interface against the bKash tokenized
// checkout API. Grant tokens are cached until shortly before expiry.
type BkashProvider struct {
	baseURL   string
	appKey    string
	appSecret string
	client    *http.Client
	logger    BkashLogger
	clock     func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewBkashProvider constructs a bKash Provider using the given configuration.
func NewBkashProvider(cfg BkashProviderConfig) (*BkashProvider, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("bkash: base url is required")
	}
	if strings.TrimSpace(cfg.AppKey) == "" || strings.TrimSpace(cfg.AppSecret) == "" {
		return nil, errors.New("bkash: app key and secret are required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &BkashProvider{
		baseURL:   baseURL,
		appKey:    strings.TrimSpace(cfg.AppKey),
		appSecret: strings.TrimSpace(cfg.AppSecret),
		client:    httpClient,
		logger:    logger,
		clock: func() time.Time {
			return clock().UTC()
		},
	}, nil
}

type bkashTokenResponse struct {
	IDToken   string `json:"id_token"`
	ExpiresIn int64  `json:"expires_in"`
	Status    string `json:"statusMessage"`
}

type bkashCreateRequest struct {
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	Intent                string `json:"intent"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
	CallbackURL           string `json:"callbackURL"`
}

type bkashPaymentResponse struct {
	PaymentID             string `json:"paymentID"`
	BkashURL              string `json:"bkashURL"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	TransactionStatus     string `json:"transactionStatus"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
	StatusCode            string `json:"statusCode"`
	StatusMessage         string `json:"statusMessage"`
}

// CreateSession creates a bKash payment and returns its redirect URL.
func (p *BkashProvider) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	if p == nil {
		return Session{}, errors.New("bkash: provider is nil")
	}

	token, err := p.grantToken(ctx)
	if err != nil {
		return Session{}, err
	}

	payload := bkashCreateRequest{
		Amount:                minorToDecimalString(req.Amount),
		Currency:              strings.ToUpper(defaultString(req.Currency, "BDT")),
		Intent:                "sale",
		MerchantInvoiceNumber: req.OrderNumber,
		CallbackURL:           req.SuccessURL,
	}

	var created bkashPaymentResponse
	if err := p.post(ctx, "/tokenized/checkout/create", token, payload, &created); err != nil {
		return Session{}, err
	}
	if created.PaymentID == "" {
		return Session{}, fmt.Errorf("%w: bkash create returned no payment id (%s)", ErrGatewayRejected, created.StatusMessage)
	}

	p.logger(ctx, "payments.bkash.payment.created", map[string]any{
		"paymentId": created.PaymentID,
		"invoice":   created.MerchantInvoiceNumber,
		"currency":  created.Currency,
	})

	return Session{
		ID:          created.PaymentID,
		Provider:    "bkash",
		RedirectURL: created.BkashURL,
		IntentID:    created.PaymentID,
		ExpiresAt:   p.clock().Add(30 * time.Minute),
	}, nil
}

// LookupPayment queries a bKash payment by ID.
func (p *BkashProvider) LookupPayment(ctx context.Context, req LookupRequest) (PaymentDetails, error) {
	if p == nil {
		return PaymentDetails{}, errors.New("bkash: provider is nil")
	}

	token, err := p.grantToken(ctx)
	if err != nil {
		return PaymentDetails{}, err
	}

	var status bkashPaymentResponse
	payload := map[string]string{"paymentID": req.IntentID}
	if err := p.post(ctx, "/tokenized/checkout/payment/status", token, payload, &status); err != nil {
		return PaymentDetails{}, err
	}

	return PaymentDetails{
		Provider: "bkash",
		IntentID: status.PaymentID,
		Status:   mapBkashStatus(status.TransactionStatus),
		Amount:   decimalStringToMinor(status.Amount),
		Currency: strings.ToUpper(defaultString(status.Currency, "BDT")),
	}, nil
}

func (p *BkashProvider) grantToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock()
	if p.token != "" && now.Before(p.tokenExpiry.Add(-time.Minute)) {
		return p.token, nil
	}

	body, err := json.Marshal(map[string]string{
		"app_key":    p.appKey,
		"app_secret": p.appSecret,
	})
	if err != nil {
		return "", fmt.Errorf("bkash: encode token request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/tokenized/checkout/token/grant", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("bkash: build token request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", translateTransportError("bkash token grant", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: bkash token grant returned %d", ErrGatewayRejected, resp.StatusCode)
	}

	var tokenResp bkashTokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("bkash: decode token response: %w", err)
	}
	if tokenResp.IDToken == "" {
		return "", fmt.Errorf("%w: bkash token grant returned no token (%s)", ErrGatewayRejected, tokenResp.Status)
	}

	p.token = tokenResp.IDToken
	expiresIn := tokenResp.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	p.tokenExpiry = now.Add(time.Duration(expiresIn) * time.Second)
	return p.token, nil
}

func (p *BkashProvider) post(ctx context.Context, path, token string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("bkash: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("bkash: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", token)
	httpReq.Header.Set("X-App-Key", p.appKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return translateTransportError("bkash "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: bkash %s returned %d", ErrGatewayRejected, path, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return fmt.Errorf("bkash: decode response: %w", err)
	}
	return nil
}

func translateTransportError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrGatewayTimeout, op)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s", ErrGatewayTimeout, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrGatewayRejected, op, err)
}

func mapBkashStatus(status string) Status {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed":
		return StatusSucceeded
	case "initiated", "pending":
		return StatusPending
	default:
		return StatusFailed
	}
}

// minorToDecimalString renders minor units as the two-decimal string bKash
// expects, e.g. 2550 -> "25.50".
func minorToDecimalString(amount int64) string {
	major := amount / 100
	minor := amount % 100
	if minor < 0 {
		minor = -minor
	}
	return fmt.Sprintf("%d.%02d", major, minor)
}

func decimalStringToMinor(amount string) int64 {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0
	}
	whole, frac, _ := strings.Cut(amount, ".")
	major, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0
	}
	switch len(frac) {
	case 0:
		return major * 100
	case 1:
		frac += "0"
	default:
		frac = frac[:2]
	}
	minor, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return major * 100
	}
	if major < 0 {
		return major*100 - minor
	}
	return major*100 + minor
}
