package category

import (
	"testing"

	"github.com/christufur/MazzyMoney-sub001/internal/domain"
)

func TestSuggest_BestFirstAndCapped(t *testing.T) {
	got := Suggest(Input{
		ProviderCategories: []string{"Food and Drink"},
		MerchantName:       "Starbucks",
		Name:               "STARBUCKS STORE 1234",
		Amount:             4.50,
	}, nil)

	if len(got) == 0 || len(got) > 3 {
		t.Fatalf("expected 1..3 suggestions, got %d", len(got))
	}
	if got[0].Category != FoodDining {
		t.Errorf("top suggestion = %q, want %q", got[0].Category, FoodDining)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Confidence > got[i-1].Confidence {
			t.Errorf("suggestions not ordered best-first: %v", got)
		}
	}
	for _, s := range got {
		if s.Confidence <= 0 || s.Confidence > 1.0 {
			t.Errorf("confidence out of range: %v", s)
		}
	}
}

func TestSuggest_ProviderFallbackConfidence(t *testing.T) {
	got := Suggest(Input{
		ProviderCategories: []string{"Travel"},
		Name:               "NO PATTERN HERE",
		Amount:             100.00,
	}, nil)

	if got[0].Category != Travel {
		t.Fatalf("top suggestion = %q, want %q", got[0].Category, Travel)
	}
	if got[0].Confidence != 0.6 {
		t.Errorf("provider fallback confidence = %v, want 0.6", got[0].Confidence)
	}
}

func TestSuggest_HeuristicFloor(t *testing.T) {
	got := Suggest(Input{Name: "ZZZZ", Amount: 12.0}, nil)
	if len(got) == 0 {
		t.Fatal("expected at least the heuristic suggestion")
	}
	if got[0].Category != Other || got[0].Confidence != 0.4 {
		t.Errorf("heuristic suggestion = %v, want Other at 0.4", got[0])
	}
}

func TestSuggest_IncomeHeuristic(t *testing.T) {
	got := Suggest(Input{Name: "WAGE CREDIT", Amount: -900.0}, nil)
	found := false
	for _, s := range got {
		if s.Category == Income {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an Income suggestion for inflow wage text, got %v", got)
	}
}

func TestSuggest_OverrideIsTop(t *testing.T) {
	rs := NewRuleSet([]*domain.CategoryRule{
		{UserID: "u1", MatchText: "starbucks", Category: Entertainment, Priority: 3},
	}, testLog())

	got := Suggest(Input{
		MerchantName: "Starbucks",
		Name:         "STARBUCKS",
		Amount:       5.0,
	}, rs)

	if got[0].Category != Entertainment || got[0].Confidence != 1.0 {
		t.Errorf("user override should rank first at 1.0, got %v", got)
	}
}
