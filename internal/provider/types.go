// Package provider wraps the external account-data provider: a
// token-scoped pull API for accounts and transactions. The rest of the
// pipeline treats it as a black box behind the Client interface.
package provider

import (
	"time"
)

// RawAccount is one account record as the provider returns it.
type RawAccount struct {
	ExternalID       string   `json:"account_id"`
	Name             string   `json:"name"`
	OfficialName     string   `json:"official_name,omitempty"`
	Type             string   `json:"type"`
	Subtype          string   `json:"subtype,omitempty"`
	Mask             string   `json:"mask,omitempty"`
	CurrentBalance   float64  `json:"current_balance"`
	AvailableBalance *float64 `json:"available_balance,omitempty"`
	CreditLimit      *float64 `json:"credit_limit,omitempty"`
}

// RawTransaction is one transaction record as the provider returns it.
// Amount keeps the provider convention: positive = outflow, negative =
// inflow.
type RawTransaction struct {
	ExternalID        string     `json:"transaction_id"`
	AccountExternalID string     `json:"account_id"`
	MerchantName      string     `json:"merchant_name,omitempty"`
	Name              string     `json:"name"`
	Amount            float64    `json:"amount"`
	Date              civilDate  `json:"date"`
	AuthorizedDate    *civilDate `json:"authorized_date,omitempty"`
	Categories        []string   `json:"category,omitempty"`
	Pending           bool       `json:"pending"`
	LocationCity      string     `json:"location_city,omitempty"`
	LocationRegion    string     `json:"location_region,omitempty"`
}

// TokenExchange is the result of trading a short-lived public token for
// a long-lived access credential.
type TokenExchange struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}

// Institution is the display record for a financial institution.
type Institution struct {
	ID   string `json:"institution_id"`
	Name string `json:"name"`
}

// civilDate marshals as the provider's YYYY-MM-DD wire format.
type civilDate struct {
	time.Time
}

const dateLayout = "2006-01-02"

func (d civilDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *civilDate) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		return nil
	}
	t, err := time.Parse(`"`+dateLayout+`"`, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// When returns the transaction date as a time.Time.
func (t *RawTransaction) When() time.Time {
	return t.Date.Time
}

// Authorized returns the authorized date, or nil.
func (t *RawTransaction) Authorized() *time.Time {
	if t.AuthorizedDate == nil || t.AuthorizedDate.IsZero() {
		return nil
	}
	out := t.AuthorizedDate.Time
	return &out
}
