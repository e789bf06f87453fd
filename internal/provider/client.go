package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Client is the pull API the sync pipeline consumes.
type Client interface {
	// ExchangeToken trades a short-lived public token for a long-lived
	// access credential and an opaque item id.
	ExchangeToken(ctx context.Context, publicToken string) (*TokenExchange, error)

	// GetAccounts returns all account records for the credential.
	GetAccounts(ctx context.Context, accessToken string) ([]RawAccount, error)

	// GetTransactions returns all transactions in [start, end],
	// following the provider's paging window internally.
	GetTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]RawTransaction, error)

	// GetInstitution resolves an institution id to its display record.
	GetInstitution(ctx context.Context, institutionID string) (*Institution, error)

	// RemoveItem revokes the access credential.
	RemoveItem(ctx context.Context, accessToken string) error
}

const transactionsPageSize = 500

// HTTPClient talks JSON-over-HTTP to the provider.
type HTTPClient struct {
	baseURL  string
	clientID string
	secret   string
	httpc    *http.Client
	log      zerolog.Logger
}

// NewHTTPClient creates a provider client for the given environment
// base URL and API credentials.
func NewHTTPClient(baseURL, clientID, secret string, log zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:  baseURL,
		clientID: clientID,
		secret:   secret,
		httpc:    &http.Client{Timeout: 60 * time.Second},
		log:      log,
	}
}

var _ Client = (*HTTPClient)(nil)

func (c *HTTPClient) ExchangeToken(ctx context.Context, publicToken string) (*TokenExchange, error) {
	var resp TokenExchange
	err := c.post(ctx, "/item/public_token/exchange", map[string]any{
		"public_token": publicToken,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("ExchangeToken: %w", err)
	}
	return &resp, nil
}

func (c *HTTPClient) GetAccounts(ctx context.Context, accessToken string) ([]RawAccount, error) {
	var resp struct {
		Accounts []RawAccount `json:"accounts"`
	}
	err := c.post(ctx, "/accounts/get", map[string]any{
		"access_token": accessToken,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("GetAccounts: %w", err)
	}
	return resp.Accounts, nil
}

func (c *HTTPClient) GetTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]RawTransaction, error) {
	var all []RawTransaction
	offset := 0
	for {
		var resp struct {
			Transactions []RawTransaction `json:"transactions"`
			Total        int              `json:"total_transactions"`
		}
		err := c.post(ctx, "/transactions/get", map[string]any{
			"access_token": accessToken,
			"start_date":   start.Format(dateLayout),
			"end_date":     end.Format(dateLayout),
			"count":        transactionsPageSize,
			"offset":       offset,
		}, &resp)
		if err != nil {
			return nil, fmt.Errorf("GetTransactions: %w", err)
		}

		all = append(all, resp.Transactions...)
		offset += len(resp.Transactions)
		if len(resp.Transactions) == 0 || offset >= resp.Total {
			break
		}
	}

	c.log.Debug().Int("count", len(all)).
		Str("start", start.Format(dateLayout)).
		Str("end", end.Format(dateLayout)).
		Msg("Fetched transactions from provider")
	return all, nil
}

func (c *HTTPClient) GetInstitution(ctx context.Context, institutionID string) (*Institution, error) {
	var resp struct {
		Institution Institution `json:"institution"`
	}
	err := c.post(ctx, "/institutions/get_by_id", map[string]any{
		"institution_id": institutionID,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("GetInstitution: %w", err)
	}
	return &resp.Institution, nil
}

func (c *HTTPClient) RemoveItem(ctx context.Context, accessToken string) error {
	err := c.post(ctx, "/item/remove", map[string]any{
		"access_token": accessToken,
	}, &struct{}{})
	if err != nil {
		return fmt.Errorf("RemoveItem: %w", err)
	}
	return nil
}

// post sends one JSON request with the API credentials injected and
// decodes either the success payload or the provider's error envelope.
func (c *HTTPClient) post(ctx context.Context, path string, body map[string]any, out any) error {
	body["client_id"] = c.clientID
	body["secret"] = c.secret

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			ErrorCode    string `json:"error_code"`
			ErrorMessage string `json:"error_message"`
		}
		_ = json.Unmarshal(data, &envelope)
		if envelope.ErrorMessage == "" {
			envelope.ErrorMessage = http.StatusText(resp.StatusCode)
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       envelope.ErrorCode,
			Message:    envelope.ErrorMessage,
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
