package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/christufur/MazzyMoney-sub001/internal/domain"
)

type UserRow struct {
	UserID          string                 `bigquery:"user_id"` // REQUIRED
	Email           string                 `bigquery:"email"`
	AccessToken     bigquery.NullString    `bigquery:"access_token"`     // NULLABLE
	ItemID          bigquery.NullString    `bigquery:"item_id"`          // NULLABLE
	InstitutionName bigquery.NullString    `bigquery:"institution_name"` // NULLABLE
	SyncStatus      string                 `bigquery:"sync_status"`
	SyncMessage     bigquery.NullString    `bigquery:"sync_message"`   // NULLABLE
	LastSyncedTS    bigquery.NullTimestamp `bigquery:"last_synced_ts"` // NULLABLE
	CreatedTS       time.Time              `bigquery:"created_ts"`
}

type AccountRow struct {
	AccountID         string               `bigquery:"account_id"` // REQUIRED
	ExternalAccountID string               `bigquery:"external_account_id"`
	UserID            string               `bigquery:"user_id"`
	Name              string               `bigquery:"name"`
	OfficialName      bigquery.NullString  `bigquery:"official_name"` // NULLABLE
	Type              string               `bigquery:"type"`
	Subtype           bigquery.NullString  `bigquery:"subtype"` // NULLABLE
	Mask              bigquery.NullString  `bigquery:"mask"`    // NULLABLE
	CurrentBalance    float64              `bigquery:"current_balance"`
	AvailableBalance  bigquery.NullFloat64 `bigquery:"available_balance"` // NULLABLE
	CreditLimit       bigquery.NullFloat64 `bigquery:"credit_limit"`      // NULLABLE
	IsActive          bool                 `bigquery:"is_active"`
	CreatedTS         time.Time            `bigquery:"created_ts"`
	UpdatedTS         time.Time            `bigquery:"updated_ts"`
}

type TransactionRow struct {
	TransactionID         string              `bigquery:"transaction_id"` // REQUIRED
	ExternalTransactionID string              `bigquery:"external_transaction_id"`
	UserID                string              `bigquery:"user_id"`
	AccountID             string              `bigquery:"account_id"`
	MerchantName          bigquery.NullString `bigquery:"merchant_name"` // NULLABLE
	Name                  string              `bigquery:"name"`
	Amount                float64             `bigquery:"amount"`
	TransactionDate       civil.Date          `bigquery:"transaction_date"`
	AuthorizedDate        bigquery.NullDate   `bigquery:"authorized_date"` // NULLABLE
	ProviderCategories    []string            `bigquery:"provider_categories"`
	Category              string              `bigquery:"category"`
	Subcategory           bigquery.NullString `bigquery:"subcategory"` // NULLABLE
	IsPending             bool                `bigquery:"is_pending"`
	LocationCity          bigquery.NullString `bigquery:"location_city"`   // NULLABLE
	LocationRegion        bigquery.NullString `bigquery:"location_region"` // NULLABLE
	Notes                 bigquery.NullString `bigquery:"notes"`           // NULLABLE
	CreatedTS             time.Time           `bigquery:"created_ts"`
	UpdatedTS             time.Time           `bigquery:"updated_ts"`
}

type RuleRow struct {
	RuleID    string    `bigquery:"rule_id"` // REQUIRED
	UserID    string    `bigquery:"user_id"`
	MatchText string    `bigquery:"match_text"`
	IsPattern bool      `bigquery:"is_pattern"`
	Category  string    `bigquery:"category"`
	Priority  int64     `bigquery:"priority"`
	CreatedTS time.Time `bigquery:"created_ts"`
}

type BudgetRow struct {
	BudgetID  string    `bigquery:"budget_id"` // REQUIRED
	UserID    string    `bigquery:"user_id"`
	Name      string    `bigquery:"name"`
	Category  string    `bigquery:"category"`
	Amount    float64   `bigquery:"amount"`
	Period    string    `bigquery:"period"`
	StartTS   time.Time `bigquery:"start_ts"`
	EndTS     time.Time `bigquery:"end_ts"`
	IsActive  bool      `bigquery:"is_active"`
	CreatedTS time.Time `bigquery:"created_ts"`
	UpdatedTS time.Time `bigquery:"updated_ts"`
}

type GoalRow struct {
	GoalID        string    `bigquery:"goal_id"` // REQUIRED
	UserID        string    `bigquery:"user_id"`
	Name          string    `bigquery:"name"`
	TargetAmount  float64   `bigquery:"target_amount"`
	CurrentAmount float64   `bigquery:"current_amount"`
	DeadlineTS    time.Time `bigquery:"deadline_ts"`
	CreatedTS     time.Time `bigquery:"created_ts"`
	UpdatedTS     time.Time `bigquery:"updated_ts"`
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func nullFloat(f *float64) bigquery.NullFloat64 {
	if f == nil {
		return bigquery.NullFloat64{}
	}
	return bigquery.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n bigquery.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}

func (r *UserRow) toDomain() *domain.User {
	u := &domain.User{
		ID:              r.UserID,
		Email:           r.Email,
		AccessToken:     r.AccessToken.StringVal,
		ItemID:          r.ItemID.StringVal,
		InstitutionName: r.InstitutionName.StringVal,
		SyncStatus:      domain.SyncStatus(r.SyncStatus),
		SyncMessage:     r.SyncMessage.StringVal,
		CreatedAt:       r.CreatedTS,
	}
	if r.LastSyncedTS.Valid {
		t := r.LastSyncedTS.Timestamp
		u.LastSyncedAt = &t
	}
	return u
}

func (r *AccountRow) toDomain() *domain.Account {
	return &domain.Account{
		ID:               r.AccountID,
		ExternalID:       r.ExternalAccountID,
		UserID:           r.UserID,
		Name:             r.Name,
		OfficialName:     r.OfficialName.StringVal,
		Type:             r.Type,
		Subtype:          r.Subtype.StringVal,
		Mask:             r.Mask.StringVal,
		CurrentBalance:   r.CurrentBalance,
		AvailableBalance: floatPtr(r.AvailableBalance),
		CreditLimit:      floatPtr(r.CreditLimit),
		Active:           r.IsActive,
		CreatedAt:        r.CreatedTS,
		UpdatedAt:        r.UpdatedTS,
	}
}

func (r *TransactionRow) toDomain() *domain.Transaction {
	tx := &domain.Transaction{
		ID:                 r.TransactionID,
		ExternalID:         r.ExternalTransactionID,
		UserID:             r.UserID,
		AccountID:          r.AccountID,
		MerchantName:       r.MerchantName.StringVal,
		Name:               r.Name,
		Amount:             r.Amount,
		Date:               r.TransactionDate.In(time.UTC),
		ProviderCategories: r.ProviderCategories,
		Category:           r.Category,
		Subcategory:        r.Subcategory.StringVal,
		Pending:            r.IsPending,
		LocationCity:       r.LocationCity.StringVal,
		LocationRegion:     r.LocationRegion.StringVal,
		Notes:              r.Notes.StringVal,
		CreatedAt:          r.CreatedTS,
		UpdatedAt:          r.UpdatedTS,
	}
	if r.AuthorizedDate.Valid {
		t := r.AuthorizedDate.Date.In(time.UTC)
		tx.AuthorizedDate = &t
	}
	return tx
}

func (r *RuleRow) toDomain() *domain.CategoryRule {
	return &domain.CategoryRule{
		ID:        r.RuleID,
		UserID:    r.UserID,
		MatchText: r.MatchText,
		IsPattern: r.IsPattern,
		Category:  r.Category,
		Priority:  int(r.Priority),
		CreatedAt: r.CreatedTS,
	}
}

func (r *BudgetRow) toDomain() *domain.Budget {
	return &domain.Budget{
		ID:        r.BudgetID,
		UserID:    r.UserID,
		Name:      r.Name,
		Category:  r.Category,
		Amount:    r.Amount,
		Period:    domain.BudgetPeriod(r.Period),
		StartDate: r.StartTS,
		EndDate:   r.EndTS,
		Active:    r.IsActive,
		CreatedAt: r.CreatedTS,
		UpdatedAt: r.UpdatedTS,
	}
}

func (r *GoalRow) toDomain() *domain.SavingsGoal {
	return &domain.SavingsGoal{
		ID:            r.GoalID,
		UserID:        r.UserID,
		Name:          r.Name,
		TargetAmount:  r.TargetAmount,
		CurrentAmount: r.CurrentAmount,
		Deadline:      r.DeadlineTS,
		CreatedAt:     r.CreatedTS,
		UpdatedAt:     r.UpdatedTS,
	}
}
