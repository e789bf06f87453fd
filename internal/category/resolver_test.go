package category

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/christufur/MazzyMoney-sub001/internal/domain"
)

func testLog() zerolog.Logger {
	return zerolog.Nop()
}

func TestResolve_Order(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want string
	}{
		{
			name: "merchant pattern beats provider map",
			in: Input{
				ProviderCategories: []string{"Food and Drink"},
				MerchantName:       "Starbucks",
				Name:               "STARBUCKS #1234",
				Amount:             4.50,
			},
			want: FoodDining,
		},
		{
			name: "negative payroll is income",
			in: Input{
				ProviderCategories: []string{"Payroll"},
				Name:               "ACME CORP PAYROLL",
				Amount:             -50.00,
			},
			want: Income,
		},
		{
			name: "positive payroll does not short-circuit on sign",
			in: Input{
				ProviderCategories: []string{"Payroll"},
				Name:               "REVERSAL",
				Amount:             50.00,
			},
			// falls through to the primary-category map
			want: Income,
		},
		{
			name: "pair rule payment plus rent",
			in: Input{
				ProviderCategories: []string{"Payment", "Rent"},
				Name:               "ACH PMT",
				Amount:             1200.00,
			},
			want: Housing,
		},
		{
			name: "pair rule payment plus mortgage",
			in: Input{
				ProviderCategories: []string{"Payment", "Mortgage"},
				Name:               "LOAN SERVICING",
				Amount:             1800.00,
			},
			want: Mortgage,
		},
		{
			name: "pair rule service plus cable",
			in: Input{
				ProviderCategories: []string{"Service", "Cable"},
				Name:               "MONTHLY SVC",
				Amount:             80.00,
			},
			want: BillsUtilities,
		},
		{
			name: "unmatched secondary falls to primary default",
			in: Input{
				ProviderCategories: []string{"Payment", "Something Odd"},
				Name:               "PMT",
				Amount:             10.00,
			},
			want: Financial,
		},
		{
			name: "transfer payroll pair is income",
			in: Input{
				ProviderCategories: []string{"Transfer", "Payroll"},
				Name:               "XFER",
				Amount:             10.00,
			},
			want: Income,
		},
		{
			name: "primary map only",
			in: Input{
				ProviderCategories: []string{"Travel"},
				Name:               "SOME VENDOR",
				Amount:             300.00,
			},
			want: Travel,
		},
		{
			name: "unknown primary falls back to raw string",
			in: Input{
				ProviderCategories: []string{"Quantum Services"},
				Name:               "MYSTERY",
				Amount:             5.00,
			},
			want: "Quantum Services",
		},
		{
			name: "no categories at all",
			in: Input{
				Name:   "ZZZZ",
				Amount: 5.00,
			},
			want: Other,
		},
		{
			name: "uber eats is dining not transportation",
			in: Input{
				MerchantName: "Uber Eats",
				Name:         "UBER EATS ORDER",
				Amount:       22.00,
			},
			want: FoodDining,
		},
		{
			name: "bare uber is transportation",
			in: Input{
				MerchantName: "Uber",
				Name:         "UBER TRIP",
				Amount:       14.00,
			},
			want: Transportation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.in, nil)
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolve_OverridePrecedence(t *testing.T) {
	rules := []*domain.CategoryRule{
		{UserID: "u1", MatchText: "Acme Co", Category: Shopping, Priority: 5, CreatedAt: time.Now()},
	}
	rs := NewRuleSet(rules, testLog())

	got := Resolve(Input{
		ProviderCategories: []string{"Food and Drink"},
		MerchantName:       "Acme Co",
		Name:               "ACME CO PURCHASE",
		Amount:             30.00,
	}, rs)
	if got != Shopping {
		t.Errorf("override should win over provider map: got %q, want %q", got, Shopping)
	}
}

func TestResolve_OverrideBeatsIncomeCheck(t *testing.T) {
	rules := []*domain.CategoryRule{
		{UserID: "u1", MatchText: "Acme Payroll", Category: Financial, Priority: 1, CreatedAt: time.Now()},
	}
	rs := NewRuleSet(rules, testLog())

	got := Resolve(Input{
		ProviderCategories: []string{"Payroll"},
		MerchantName:       "Acme Payroll",
		Name:               "ACME PAYROLL DEPOSIT",
		Amount:             -2500.00,
	}, rs)
	if got != Financial {
		t.Errorf("user override must run before the income short-circuit: got %q", got)
	}
}

func TestResolve_Stability(t *testing.T) {
	in := Input{
		ProviderCategories: []string{"Shops", "Clothing"},
		MerchantName:       "Some Boutique",
		Name:               "BOUTIQUE 42",
		Amount:             75.00,
	}
	first := Resolve(in, nil)
	for i := 0; i < 10; i++ {
		if got := Resolve(in, nil); got != first {
			t.Fatalf("Resolve is not stable: call %d returned %q, first was %q", i, got, first)
		}
	}
}

func TestNewRuleSet_SkipsMalformedPatterns(t *testing.T) {
	rules := []*domain.CategoryRule{
		{UserID: "u1", MatchText: `([unclosed`, IsPattern: true, Category: Shopping, Priority: 10},
		{UserID: "u1", MatchText: `acme\s+co`, IsPattern: true, Category: Travel, Priority: 1},
	}
	rs := NewRuleSet(rules, testLog())

	if rs.Len() != 1 {
		t.Fatalf("expected the malformed pattern to be skipped, have %d rules", rs.Len())
	}
	got := Resolve(Input{MerchantName: "Acme Co", Name: "ACME", Amount: 10}, rs)
	if got != Travel {
		t.Errorf("surviving pattern rule should match: got %q", got)
	}
}

func TestNewRuleSet_PriorityOrder(t *testing.T) {
	older := time.Now().Add(-time.Hour)
	rules := []*domain.CategoryRule{
		{UserID: "u1", MatchText: "acme", Category: Shopping, Priority: 1, CreatedAt: older},
		{UserID: "u1", MatchText: "acme", Category: Entertainment, Priority: 9, CreatedAt: older},
	}
	rs := NewRuleSet(rules, testLog())

	got := Resolve(Input{MerchantName: "Acme Co", Name: "X", Amount: 10}, rs)
	if got != Entertainment {
		t.Errorf("higher priority rule must win: got %q", got)
	}
}
