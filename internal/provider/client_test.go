package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, "client-id", "secret", zerolog.Nop())
}

func TestExchangeToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/item/public_token/exchange" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["public_token"] != "public-abc" {
			t.Errorf("public_token = %v", body["public_token"])
		}
		if body["client_id"] != "client-id" || body["secret"] != "secret" {
			t.Error("expected API credentials injected into request body")
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "access-xyz",
			"item_id":      "item-1",
		})
	})

	got, err := c.ExchangeToken(context.Background(), "public-abc")
	if err != nil {
		t.Fatalf("ExchangeToken failed: %v", err)
	}
	if got.AccessToken != "access-xyz" || got.ItemID != "item-1" {
		t.Errorf("unexpected exchange result: %+v", got)
	}
}

func TestGetTransactions_Paging(t *testing.T) {
	pageOne := []RawTransaction{
		{ExternalID: "tx_1", AccountExternalID: "acc_1", Name: "A", Amount: 10},
		{ExternalID: "tx_2", AccountExternalID: "acc_1", Name: "B", Amount: 20},
	}
	pageTwo := []RawTransaction{
		{ExternalID: "tx_3", AccountExternalID: "acc_1", Name: "C", Amount: 30},
	}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		offset := int(body["offset"].(float64))

		page := pageOne
		if offset >= 2 {
			page = pageTwo
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"transactions":       page,
			"total_transactions": 3,
		})
	})

	got, err := c.GetTransactions(context.Background(), "access-xyz",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetTransactions failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 transactions across pages, got %d", len(got))
	}
	if got[2].ExternalID != "tx_3" {
		t.Errorf("page order broken: %+v", got)
	}
}

func TestGetTransactions_DateWireFormat(t *testing.T) {
	var gotStart, gotEnd string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotStart, _ = body["start_date"].(string)
		gotEnd, _ = body["end_date"].(string)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"transactions":       []RawTransaction{},
			"total_transactions": 0,
		})
	})

	_, err := c.GetTransactions(context.Background(), "tok",
		time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if gotStart != "2024-03-05" || gotEnd != "2024-03-09" {
		t.Errorf("dates on the wire = %q..%q", gotStart, gotEnd)
	}
}

func TestCredentialErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		code        string
		wantExpired bool
	}{
		{"item login required", http.StatusBadRequest, "ITEM_LOGIN_REQUIRED", true},
		{"invalid access token", http.StatusBadRequest, "INVALID_ACCESS_TOKEN", true},
		{"plain 401", http.StatusUnauthorized, "", true},
		{"rate limited", http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", false},
		{"server error", http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error_code":    tt.code,
					"error_message": "boom",
				})
			})

			_, err := c.GetAccounts(context.Background(), "tok")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, ErrInvalidToken); got != tt.wantExpired {
				t.Errorf("errors.Is(err, ErrInvalidToken) = %v, want %v (err=%v)", got, tt.wantExpired, err)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Errorf("expected APIError in chain, got %v", err)
			}
		})
	}
}

func TestRawTransactionDateJSON(t *testing.T) {
	raw := []byte(`{"transaction_id":"tx_1","account_id":"acc_1","name":"X","amount":5,"date":"2024-06-15","pending":true}`)
	var tx RawTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !tx.When().Equal(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", tx.When())
	}
	if tx.Authorized() != nil {
		t.Errorf("expected nil authorized date")
	}
}
