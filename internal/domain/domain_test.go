package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseServiceTier(t *testing.T) {
	testCases := []struct {
		input   string
		want    ServiceTier
		wantErr bool
	}{
		{input: "gold", want: TierGold},
		{input: " Basic ", want: TierBasic},
		{input: "SILVER", want: TierSilver},
		{input: "platinum", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseServiceTier(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSupplyItemRate(t *testing.T) {
	item := SupplyItem{BasicRate: 1, GoldRate: 3, SilverRate: 2}

	for tier, want := range map[ServiceTier]float64{TierGold: 3, TierBasic: 1, TierSilver: 2, "other": 0} {
		if got := item.Rate(tier); got != want {
			t.Errorf("Rate(%s) = %v, want %v", tier, got, want)
		}
	}
}

func TestChemicalItemInTier(t *testing.T) {
	item := ChemicalItem{Gold: true}

	if !item.InTier(TierGold) {
		t.Error("expected gold inclusion")
	}
	if item.InTier(TierBasic) || item.InTier(TierSilver) {
		t.Error("unexpected inclusion for basic or silver")
	}
}

func TestComparisonStatus(t *testing.T) {
	if StatusSufficient.NeedsPurchase() {
		t.Error("sufficient should not need purchase")
	}
	if !StatusNeedToPurchase.NeedsPurchase() || !StatusNotFound.NeedsPurchase() {
		t.Error("need_to_purchase and not_found should need purchase")
	}

	s, ok := ParseComparisonStatus("NOT_FOUND")
	if !ok || s != StatusNotFound {
		t.Errorf("ParseComparisonStatus = %q, %v", s, ok)
	}
	if _, ok := ParseComparisonStatus("lost"); ok {
		t.Error("expected unknown status to be rejected")
	}
}

func TestComparisonSummaryAdd(t *testing.T) {
	var s ComparisonSummary
	for _, st := range []ComparisonStatus{StatusSufficient, StatusNotFound, StatusNeedToPurchase, StatusNeedToPurchase} {
		s.Add(st)
	}

	want := ComparisonSummary{TotalItems: 4, NeedToPurchase: 2, Sufficient: 1, NotFound: 1}
	if s != want {
		t.Errorf("got %+v, want %+v", s, want)
	}
}

func TestErrorsWrap(t *testing.T) {
	err := fmt.Errorf("calculate: %w", NewInvalidInput("headcount", "must be greater than 0"))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatal("wrapped invalid input should match ErrInvalidInput")
	}

	var inv *InvalidInputError
	if !errors.As(err, &inv) || inv.Field != "headcount" {
		t.Fatalf("expected field headcount, got %+v", inv)
	}

	sheetErr := fmt.Errorf("parse: %w", &MissingSheetError{Sheet: "VTTH"})
	if !errors.Is(sheetErr, ErrMissingSheet) {
		t.Fatal("wrapped missing sheet should match ErrMissingSheet")
	}
	if errors.Is(sheetErr, ErrInvalidInput) {
		t.Fatal("missing sheet must not match ErrInvalidInput")
	}

	colErr := fmt.Errorf("parse: %w", &MissingColumnError{Sheet: "VTTH", Columns: []string{"Tên vật tư", "Số lượng trong 1 ĐVT"}})
	if !errors.Is(colErr, ErrMissingSheet) {
		t.Fatal("wrapped missing column should match ErrMissingSheet")
	}
	if want := `parse: sheet "VTTH" is missing required columns: Tên vật tư, Số lượng trong 1 ĐVT`; colErr.Error() != want {
		t.Fatalf("Error() = %q, want %q", colErr.Error(), want)
	}
}
