// Package reconcile compares requirements against on-hand stock and
// classifies each item as sufficient, need_to_purchase or not_found.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/autopo-lab/internal/domain"
)

const DefaultThreshold = 85

type Reconciler struct {
	threshold int
}

type Option func(*Reconciler)

// WithThreshold sets the fuzzy-match threshold used on exact misses.
func WithThreshold(threshold int) Option {
	return func(r *Reconciler) {
		r.threshold = threshold
	}
}

func NewReconciler(opts ...Option) *Reconciler {
	r := &Reconciler{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reconciler) Threshold() int {
	return r.threshold
}

// family carries the quantity arithmetic that differs per item family.
type family struct {
	// onHand converts a raw ledger quantity into the comparison unit.
	onHand func(q float64) decimal.Decimal
	// purchase converts a positive shortage into purchasable units.
	purchase func(shortage decimal.Decimal) int
	// fullPurchase is bought when nothing is on hand.
	fullPurchase int
}

func (r *Reconciler) reconcile(name string, required float64, unit string, inv *Inventory, f family) domain.ComparisonLine {
	line := domain.ComparisonLine{
		Name:             name,
		RequiredQuantity: required,
		Unit:             unit,
	}

	res, ok := inv.Resolve(name, r.threshold)
	if !ok {
		line.Shortage = required
		line.PurchaseQuantity = f.fullPurchase
		line.Status = domain.StatusNotFound
		return line
	}

	if res.Fuzzy {
		line.MatchedInventoryName = res.Record.ProductName
		line.MatchSimilarity = res.Similarity
	}

	onHand := f.onHand(res.Record.Quantity)
	line.InventoryQuantity = onHand.InexactFloat64()

	shortage := decimal.NewFromFloat(required).Sub(onHand)
	if shortage.Sign() <= 0 {
		line.Status = domain.StatusSufficient
		return line
	}

	line.Shortage = shortage.InexactFloat64()
	line.PurchaseQuantity = f.purchase(shortage)
	line.Status = domain.StatusNeedToPurchase
	return line
}

// VTTH reconciles consumables. Stock is taken to be in the small unit;
// the purchase is re-derived from the shortage.
func (r *Reconciler) VTTH(reqs []domain.VTTHRequirement, inv *Inventory) []domain.VTTHComparison {
	out := make([]domain.VTTHComparison, 0, len(reqs))
	for _, req := range reqs {
		ratio := decimal.NewFromFloat(req.ConversionRatio)
		line := r.reconcile(req.Name, req.RequiredQuantity, req.PurchaseUnit, inv, family{
			onHand: decimal.NewFromFloat,
			purchase: func(shortage decimal.Decimal) int {
				return ceilDiv(shortage, ratio)
			},
			fullPurchase: req.PurchaseQuantity,
		})

		out = append(out, domain.VTTHComparison{
			ComparisonLine:  line,
			Specification:   req.Specification,
			ConversionRatio: req.ConversionRatio,
		})
	}
	return out
}

// Chemicals reconciles reagents in whole containers. A shortage is always
// bought in boxes of VialsPerBox containers, large-volume items included.
func (r *Reconciler) Chemicals(reqs []domain.ChemicalRequirement, inv *Inventory) []domain.ChemicalComparison {
	out := make([]domain.ChemicalComparison, 0, len(reqs))
	for _, req := range reqs {
		vials := decimal.NewFromFloat(req.VialsPerBox)
		line := r.reconcile(req.TestName, float64(req.ContainersNeeded), req.PurchaseUnit, inv, family{
			onHand: floorQuantity,
			purchase: func(shortage decimal.Decimal) int {
				return ceilDiv(shortage, vials)
			},
			fullPurchase: req.PurchaseQuantity,
		})

		out = append(out, domain.ChemicalComparison{
			ComparisonLine: line,
			Specification:  req.Specification,
			TotalTests:     req.TotalTests,
			VialsPerBox:    req.VialsPerBox,
			LargeVolume:    req.LargeVolume,
		})
	}
	return out
}

// Supplements reconciles fixed QC/CALIB items by flat difference.
func (r *Reconciler) Supplements(reqs []domain.SupplementRequirement, inv *Inventory) []domain.SupplementComparison {
	out := make([]domain.SupplementComparison, 0, len(reqs))
	for _, req := range reqs {
		line := r.reconcile(req.Name, float64(req.Quantity), req.Unit, inv, family{
			onHand: floorQuantity,
			purchase: func(shortage decimal.Decimal) int {
				return int(shortage.Ceil().IntPart())
			},
			fullPurchase: req.Quantity,
		})
		out = append(out, domain.SupplementComparison{ComparisonLine: line})
	}
	return out
}

// Compare runs the three reconciliation passes and summarizes them.
func (r *Reconciler) Compare(vtth []domain.VTTHRequirement, chemicals domain.ChemicalResult, inv *Inventory) domain.ComparisonResult {
	result := domain.ComparisonResult{
		VTTH:                r.VTTH(vtth, inv),
		Chemicals:           r.Chemicals(chemicals.Chemicals, inv),
		Supplements:         r.Supplements(chemicals.Supplements, inv),
		InventoryCollisions: inv.Collisions(),
	}

	for _, c := range result.VTTH {
		result.Summary.Add(c.Status)
	}
	for _, c := range result.Chemicals {
		result.Summary.Add(c.Status)
	}
	for _, c := range result.Supplements {
		result.Summary.Add(c.Status)
	}
	return result
}

func floorQuantity(q float64) decimal.Decimal {
	return decimal.NewFromFloat(q).Floor()
}

func ceilDiv(a, b decimal.Decimal) int {
	if b.Sign() <= 0 {
		return 0
	}
	return int(a.Div(b).Ceil().IntPart())
}
