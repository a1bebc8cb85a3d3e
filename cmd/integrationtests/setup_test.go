package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"auction-engine/internal/events"
	"auction-engine/internal/lifecycle"
	model "auction-engine/internal/models"
	"auction-engine/internal/payments"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"

	"github.com/gin-gonic/gin"
)

// testEnv bundles the wired application pieces so tests can reach behind the
// HTTP surface when asserting on store state or recorded events.
type testEnv struct {
	router   *gin.Engine
	store    *repository.MemoryStore
	recorder *events.Recorder
	service  *lifecycle.Service
}

// SetupTestEnv wires the full stack on the in-memory store with the mock
// payment gateway, seeded with the given auctions.
func SetupTestEnv(t *testing.T, auctions ...model.Auction) *testEnv {
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	for _, a := range auctions {
		if err := store.AddAuction(a); err != nil {
			t.Fatalf("failed to seed auction %s: %v", a.AuctionID, err)
		}
	}

	authorizer, err := payments.NewMercadoPagoAuthorizer("")
	if err != nil {
		t.Fatalf("failed to build mock payment gateway: %v", err)
	}

	recorder := events.NewRecorder()
	service := lifecycle.NewService(store, authorizer, recorder, nil, 15*time.Minute)
	router := server.SetupRouter(service)

	return &testEnv{router: router, store: store, recorder: recorder, service: service}
}

// floatPtr returns a pointer to the given float for optional fields.
func floatPtr(f float64) *float64 { return &f }

// sampleAuction returns an active auction whose decayed floor is 700 at the
// moment of the call (1000 starting, 100/hour, three hours elapsed).
func sampleAuction(id string) model.Auction {
	start := time.Now().UTC().Add(-3 * time.Hour)
	return model.Auction{
		AuctionID:         id,
		Title:             "Vintage Camera",
		StartingPrice:     1000,
		ReservePrice:      floatPtr(400),
		PriceDecrement:    100,
		DecrementInterval: model.IntervalHour,
		StartTime:         start,
		EndTime:           start.Add(24 * time.Hour),
		Status:            model.AuctionActive,
	}
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url, bidderID string, body any) (map[string]any, *httptest.ResponseRecorder) {
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case []byte:
		reqBody = v
	case nil:
		reqBody = nil
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if bidderID != "" {
		req.Header.Set("X-Bidder-ID", bidderID)
	}
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}

	return resp, w
}
