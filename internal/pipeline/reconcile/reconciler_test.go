package reconcile

import (
	"testing"

	"github.com/andresuchdata/autopo-lab/internal/domain"
	"github.com/andresuchdata/autopo-lab/internal/workbook"
)

func ledger(records ...domain.InventoryRecord) *Inventory {
	return NewInventory(records)
}

func TestVTTHScenario(t *testing.T) {
	r := NewReconciler()
	reqs := []domain.VTTHRequirement{
		{Name: "Kim tiêm 23G", RequiredQuantity: 150, ConversionRatio: 100, PurchaseQuantity: 2, PurchaseUnit: "Hộp"},
	}
	inv := ledger(domain.InventoryRecord{ProductName: "kim tiêm 23g", Quantity: 83})

	got := r.VTTH(reqs, inv)
	if len(got) != 1 {
		t.Fatalf("expected 1 line, got %d", len(got))
	}
	line := got[0]
	if line.Shortage != 67 || line.PurchaseQuantity != 1 || line.Status != domain.StatusNeedToPurchase {
		t.Errorf("got shortage=%v purchase=%d status=%s, want 67/1/need_to_purchase", line.Shortage, line.PurchaseQuantity, line.Status)
	}
	if line.InventoryQuantity != 83 || line.MatchedInventoryName != "" {
		t.Errorf("exact match should not report a fuzzy name: %+v", line)
	}
}

func TestVTTHStatuses(t *testing.T) {
	reqs := []domain.VTTHRequirement{
		{Name: "Bông gòn", RequiredQuantity: 40, ConversionRatio: 10, PurchaseQuantity: 4},
		{Name: "Khẩu trang y tế", RequiredQuantity: 200, ConversionRatio: 50, PurchaseQuantity: 4},
		{Name: "Ống nghiệm EDTA", RequiredQuantity: 120, ConversionRatio: 100, PurchaseQuantity: 2},
	}
	inv := ledger(
		domain.InventoryRecord{ProductName: "Bông gòn", Quantity: 40},
		domain.InventoryRecord{ProductName: "Khẩu trang y tê", Quantity: 20},
	)

	got := NewReconciler().VTTH(reqs, inv)

	testCases := []struct {
		name     string
		status   domain.ComparisonStatus
		shortage float64
		purchase int
		matched  string
	}{
		{name: "Bông gòn", status: domain.StatusSufficient, shortage: 0, purchase: 0},
		{name: "Khẩu trang y tế", status: domain.StatusNeedToPurchase, shortage: 180, purchase: 4, matched: "Khẩu trang y tê"},
		{name: "Ống nghiệm EDTA", status: domain.StatusNotFound, shortage: 120, purchase: 2},
	}

	for i, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			line := got[i]
			if line.Name != tc.name || line.Status != tc.status {
				t.Fatalf("line %d = %+v", i, line)
			}
			if line.Shortage != tc.shortage || line.PurchaseQuantity != tc.purchase {
				t.Errorf("shortage=%v purchase=%d, want %v/%d", line.Shortage, line.PurchaseQuantity, tc.shortage, tc.purchase)
			}
			if line.MatchedInventoryName != tc.matched {
				t.Errorf("matched = %q, want %q", line.MatchedInventoryName, tc.matched)
			}
			if tc.matched != "" && line.MatchSimilarity < DefaultThreshold {
				t.Errorf("similarity %d below threshold", line.MatchSimilarity)
			}
		})
	}
}

func TestNotFoundShortageEqualsRequired(t *testing.T) {
	reqs := []domain.VTTHRequirement{
		{Name: "Lam kính", RequiredQuantity: 37.5, ConversionRatio: 50, PurchaseQuantity: 1},
	}
	inv := ledger(domain.InventoryRecord{ProductName: "Gạc vô trùng", Quantity: 1000})

	for _, threshold := range []int{0, 50, 85, 100, 101} {
		got := NewReconciler(WithThreshold(threshold)).VTTH(reqs, inv)[0]
		if threshold == 0 {
			// Any candidate clears a zero threshold.
			if got.Status == domain.StatusNotFound {
				t.Errorf("threshold 0 should resolve to the only candidate")
			}
			continue
		}
		if got.Status != domain.StatusNotFound || got.Shortage != 37.5 || got.InventoryQuantity != 0 {
			t.Errorf("threshold %d: got %+v", threshold, got.ComparisonLine)
		}
	}

	empty := NewReconciler().VTTH(reqs, NewInventory(nil))[0]
	if empty.Status != domain.StatusNotFound || empty.Shortage != empty.RequiredQuantity {
		t.Errorf("empty inventory: got %+v", empty.ComparisonLine)
	}
}

func TestThresholdOption(t *testing.T) {
	reqs := []domain.VTTHRequirement{{Name: "Khẩu trang", RequiredQuantity: 10, ConversionRatio: 1, PurchaseQuantity: 10}}
	inv := ledger(domain.InventoryRecord{ProductName: "Khẩu trang N95", Quantity: 3})

	strict := NewReconciler(WithThreshold(95)).VTTH(reqs, inv)[0]
	if strict.Status != domain.StatusNotFound {
		t.Errorf("strict threshold should miss, got %s", strict.Status)
	}

	loose := NewReconciler(WithThreshold(60)).VTTH(reqs, inv)[0]
	if loose.Status != domain.StatusNeedToPurchase || loose.Shortage != 7 {
		t.Errorf("loose threshold should match, got %+v", loose.ComparisonLine)
	}
}

func TestChemicals(t *testing.T) {
	reqs := []domain.ChemicalRequirement{
		{TestName: "Glucose", ContainersNeeded: 6, VialsPerBox: 4, PurchaseQuantity: 2, PurchaseUnit: "Hộp"},
		{TestName: "Diluent 20L", ContainersNeeded: 6, VialsPerBox: 4, LargeVolume: true, PurchaseQuantity: 6, PurchaseUnit: "Thùng"},
		{TestName: "Ure", ContainersNeeded: 2, VialsPerBox: 2, PurchaseQuantity: 1, PurchaseUnit: "Hộp"},
		{TestName: "Creatinine", ContainersNeeded: 3, VialsPerBox: 2, PurchaseQuantity: 2, PurchaseUnit: "Hộp"},
	}
	inv := ledger(
		domain.InventoryRecord{ProductName: "Glucose", Quantity: 1.7},
		domain.InventoryRecord{ProductName: "Diluent 20L", Quantity: 1},
		domain.InventoryRecord{ProductName: "Ure", Quantity: 5},
	)

	got := NewReconciler().Chemicals(reqs, inv)

	testCases := []struct {
		status    domain.ComparisonStatus
		inventory float64
		shortage  float64
		purchase  int
		unit      string
	}{
		{domain.StatusNeedToPurchase, 1, 5, 2, "Hộp"},
		{domain.StatusNeedToPurchase, 1, 5, 2, "Thùng"},
		{domain.StatusSufficient, 5, 0, 0, "Hộp"},
		{domain.StatusNotFound, 0, 3, 2, "Hộp"},
	}

	for i, tc := range testCases {
		line := got[i]
		if line.Status != tc.status || line.InventoryQuantity != tc.inventory || line.Shortage != tc.shortage || line.PurchaseQuantity != tc.purchase || line.Unit != tc.unit {
			t.Errorf("%s: got %+v, want %+v", line.Name, line.ComparisonLine, tc)
		}
	}
}

func TestChemicalLargeVolumeShortageBuysBoxes(t *testing.T) {
	testCases := []struct {
		name     string
		needed   int
		onHand   float64
		shortage float64
		purchase int
	}{
		{"one short", 6, 5, 1, 1},
		{"five short", 6, 1, 5, 2},
		{"nothing on hand", 9, 0, 9, 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reqs := []domain.ChemicalRequirement{{
				TestName:         "Diluent 20L",
				ContainersNeeded: tc.needed,
				VialsPerBox:      4,
				LargeVolume:      true,
				PurchaseQuantity: tc.needed,
				PurchaseUnit:     "Thùng",
			}}
			inv := ledger(domain.InventoryRecord{ProductName: "Diluent 20L", Quantity: tc.onHand})

			line := NewReconciler().Chemicals(reqs, inv)[0]
			if line.Status != domain.StatusNeedToPurchase {
				t.Fatalf("status = %s", line.Status)
			}
			if line.Shortage != tc.shortage || line.PurchaseQuantity != tc.purchase {
				t.Fatalf("shortage=%v purchase=%d, want %v/%d", line.Shortage, line.PurchaseQuantity, tc.shortage, tc.purchase)
			}
		})
	}
}

func TestSupplements(t *testing.T) {
	reqs := []domain.SupplementRequirement{
		{Name: "ERBA PATH", Quantity: 2, Unit: "vial"},
		{Name: "HDL/LDL Cal", Quantity: 1, Unit: "vial"},
	}
	inv := ledger(domain.InventoryRecord{ProductName: "ERBA PATH", Quantity: 1.9})

	got := NewReconciler().Supplements(reqs, inv)
	if got[0].Status != domain.StatusNeedToPurchase || got[0].Shortage != 1 || got[0].PurchaseQuantity != 1 {
		t.Errorf("ERBA PATH = %+v", got[0].ComparisonLine)
	}
	if got[1].Status != domain.StatusNotFound || got[1].PurchaseQuantity != 1 {
		t.Errorf("HDL/LDL Cal = %+v", got[1].ComparisonLine)
	}
}

func TestCompareSummary(t *testing.T) {
	vtth := []domain.VTTHRequirement{
		{Name: "Kim tiêm", RequiredQuantity: 150, ConversionRatio: 100, PurchaseQuantity: 2},
		{Name: "Bông gòn", RequiredQuantity: 10, ConversionRatio: 10, PurchaseQuantity: 1},
	}
	chemicals := domain.ChemicalResult{
		Chemicals:   []domain.ChemicalRequirement{{TestName: "Glucose", ContainersNeeded: 1, VialsPerBox: 2, PurchaseQuantity: 1}},
		Supplements: []domain.SupplementRequirement{{Name: "ERBA PATH", Quantity: 2}},
	}
	inv := ledger(
		domain.InventoryRecord{ProductName: "Kim tiêm", Quantity: 83},
		domain.InventoryRecord{ProductName: "Bông gòn", Quantity: 50},
		domain.InventoryRecord{ProductName: "BÔNG GÒN", Quantity: 60},
	)

	got := NewReconciler().Compare(vtth, chemicals, inv)

	want := domain.ComparisonSummary{TotalItems: 4, NeedToPurchase: 1, Sufficient: 1, NotFound: 2}
	if got.Summary != want {
		t.Errorf("summary = %+v, want %+v", got.Summary, want)
	}
	if got.InventoryCollisions != 1 {
		t.Errorf("collisions = %d, want 1", got.InventoryCollisions)
	}
	if got.VTTH[1].InventoryQuantity != 60 {
		t.Errorf("later row should win, got %v", got.VTTH[1].InventoryQuantity)
	}
}

func TestCompareIsDeterministic(t *testing.T) {
	vtth := []domain.VTTHRequirement{{Name: "Kim tiêm", RequiredQuantity: 150, ConversionRatio: 100, PurchaseQuantity: 2}}
	inv := ledger(domain.InventoryRecord{ProductName: "Kim tiem", Quantity: 83})
	r := NewReconciler()

	first := r.Compare(vtth, domain.ChemicalResult{}, inv)
	second := r.Compare(vtth, domain.ChemicalResult{}, inv)
	if first.VTTH[0] != second.VTTH[0] || first.Summary != second.Summary {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
}

func TestParseInventory(t *testing.T) {
	data, err := workbook.Serialize(workbook.Table{
		Name:   SheetInventory,
		Header: []string{ColProductName, ColQuantity, ColUnit, ColUpdatedAt},
		Rows: [][]any{
			{"Kim tiêm 23G", 83, "cái", "2024-03-05"},
			{"", 10, "", ""},
			{"Bông gòn", -4, "gói", ""},
			{"Găng tay", "", "đôi", ""},
		},
	})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	book, err := workbook.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	inv, err := ParseInventory(book)
	if err != nil {
		t.Fatalf("ParseInventory: %v", err)
	}
	records := inv.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %+v", records)
	}
	if records[0].NormalizedName != "kim tiêm 23g" || records[0].LastUpdated == nil {
		t.Errorf("first record = %+v", records[0])
	}
	if records[1].Quantity != 0 {
		t.Errorf("blank quantity should be 0, got %v", records[1].Quantity)
	}
}

func TestParseInventoryAbsentSheet(t *testing.T) {
	data, err := workbook.Serialize(workbook.Table{Name: "Other", Header: []string{"A"}})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	book, err := workbook.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	inv, err := ParseInventory(book)
	if err != nil {
		t.Fatalf("ParseInventory: %v", err)
	}
	if inv.Len() != 0 {
		t.Errorf("expected empty inventory, got %d", inv.Len())
	}
}
