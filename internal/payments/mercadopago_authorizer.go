package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"

	"auction-engine/internal/auctionerrors"
	"auction-engine/utils"
)

const defaultBaseURL = "https://api.mercadopago.com"

// holdRequest is the payment-creation body for placing a hold. The SDK's
// payment.Request drops the capture flag from the serialized body when it is
// false, and an omitted flag makes the provider capture immediately instead
// of holding, so hold creation posts this body directly with the flag always
// present.
type holdRequest struct {
	TransactionAmount float64 `json:"transaction_amount"`
	Description       string  `json:"description"`
	Capture           bool    `json:"capture"`
	ExternalReference string  `json:"external_reference"`
}

// MercadoPagoAuthorizer implements Authorizer on top of the Mercado Pago
// payments API. Authorize creates a payment with capture=false, which places
// a hold; Capture and Release map to the provider's capture and cancel calls.
// The hold reference is the provider payment ID.
//
// When mock mode is enabled via PAYMENT_GATEWAY_MOCK, no provider calls are
// made and holds are tracked in memory, which keeps the full bid flow
// runnable in development.
type MercadoPagoAuthorizer struct {
	client   payment.Client
	token    string
	baseURL  string
	httpc    *http.Client
	mockMode bool

	mu        sync.Mutex
	mockHolds map[string]float64
}

// NewMercadoPagoAuthorizer builds the adapter from an access token. An empty
// token enables mock mode, same as PAYMENT_GATEWAY_MOCK.
func NewMercadoPagoAuthorizer(accessToken string) (*MercadoPagoAuthorizer, error) {
	if isMockEnabled() || accessToken == "" {
		utils.Info("payment gateway mock mode enabled", nil)
		return &MercadoPagoAuthorizer{mockMode: true, mockHolds: make(map[string]float64)}, nil
	}

	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}
	utils.Info("mercado pago client initialized", nil)
	return &MercadoPagoAuthorizer{
		client:  payment.NewClient(cfg),
		token:   accessToken,
		baseURL: defaultBaseURL,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Authorize places a hold for amount against the bidder's payment method.
func (a *MercadoPagoAuthorizer) Authorize(ctx context.Context, bidderID string, amount float64) (string, error) {
	if a.mockMode {
		ref := strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
		a.mu.Lock()
		a.mockHolds[ref] = amount
		a.mu.Unlock()
		utils.Info("mock payment hold created", map[string]any{"hold_ref": ref, "bidder_id": bidderID, "amount": amount})
		return ref, nil
	}

	body, err := json.Marshal(holdRequest{
		TransactionAmount: amount,
		Description:       "auction bid hold",
		Capture:           false,
		ExternalReference: bidderID,
	})
	if err != nil {
		return "", fmt.Errorf("authorize hold for bidder %s: %w", bidderID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/payments", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("authorize hold for bidder %s: %w", bidderID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("X-Idempotency-Key", utils.GenerateID())

	resp, err := a.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("authorize hold for bidder %s: %w", bidderID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError {
			return "", fmt.Errorf("authorize hold for bidder %s: provider status %d (%s): %w",
				bidderID, resp.StatusCode, strings.TrimSpace(string(detail)), auctionerrors.ErrPaymentDeclined)
		}
		return "", fmt.Errorf("authorize hold for bidder %s: provider status %d (%s)",
			bidderID, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out struct {
		ID     int    `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("authorize hold for bidder %s: %w", bidderID, err)
	}
	if out.Status != "authorized" && out.Status != "approved" {
		return "", fmt.Errorf("authorize hold for bidder %s: provider status %s: %w",
			bidderID, out.Status, auctionerrors.ErrPaymentDeclined)
	}
	return strconv.Itoa(out.ID), nil
}

// Capture converts a hold into an actual charge.
func (a *MercadoPagoAuthorizer) Capture(ctx context.Context, holdRef string) error {
	if a.mockMode {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.mockHolds, holdRef)
		utils.Info("mock payment hold captured", map[string]any{"hold_ref": holdRef})
		return nil
	}

	id, err := strconv.Atoi(holdRef)
	if err != nil {
		return fmt.Errorf("capture hold %s: %w", holdRef, err)
	}
	if _, err := a.client.Capture(ctx, id); err != nil {
		return fmt.Errorf("capture hold %s: %w", holdRef, err)
	}
	return nil
}

// Release cancels a hold, returning availability of funds without charge.
func (a *MercadoPagoAuthorizer) Release(ctx context.Context, holdRef string) error {
	if a.mockMode {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.mockHolds, holdRef)
		utils.Info("mock payment hold released", map[string]any{"hold_ref": holdRef})
		return nil
	}

	id, err := strconv.Atoi(holdRef)
	if err != nil {
		return fmt.Errorf("release hold %s: %w", holdRef, err)
	}
	if _, err := a.client.Cancel(ctx, id); err != nil {
		return fmt.Errorf("release hold %s: %w", holdRef, err)
	}
	return nil
}

func isMockEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("PAYMENT_GATEWAY_MOCK")))
	switch v {
	case "1", "true", "yes", "on", "mock":
		return true
	}
	return false
}
