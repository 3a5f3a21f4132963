// Package requirements turns master data rates into required and
// purchasable quantities for a headcount and service tier.
package requirements

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/autopo-lab/internal/domain"
	"github.com/andresuchdata/autopo-lab/internal/matching"
	"github.com/andresuchdata/autopo-lab/internal/rules"
)

// Calculator computes VTTH and chemical requirements. It holds only rules
// and is safe for concurrent use.
type Calculator struct {
	rules rules.Rules
}

func NewCalculator(r rules.Rules) *Calculator {
	return &Calculator{rules: r}
}

// Rules returns the rules the calculator was built with.
func (c *Calculator) Rules() rules.Rules {
	return c.rules
}

func validate(headcount int, tier domain.ServiceTier) error {
	if headcount <= 0 {
		return domain.NewInvalidInput("headcount", "must be greater than 0")
	}
	if !tier.Valid() {
		return domain.NewInvalidInput("packageType", "must be one of gold, basic, silver")
	}
	return nil
}

// VTTH computes consumable requirements for items whose tier rate is
// positive. Output order follows input order.
func (c *Calculator) VTTH(items []domain.SupplyItem, headcount int, tier domain.ServiceTier) ([]domain.VTTHRequirement, error) {
	if err := validate(headcount, tier); err != nil {
		return nil, err
	}

	people := decimal.NewFromInt(int64(headcount))
	out := make([]domain.VTTHRequirement, 0, len(items))
	for _, item := range items {
		rate := item.Rate(tier)
		if rate <= 0 {
			continue
		}
		if item.ConversionRatio <= 0 {
			log.Warn().Str("item", item.Name).Float64("ratio", item.ConversionRatio).Msg("skipping supply with invalid conversion ratio")
			continue
		}

		required := decimal.NewFromFloat(rate).Mul(people)
		out = append(out, domain.VTTHRequirement{
			Name:             item.Name,
			Specification:    item.Specification,
			Rate:             rate,
			Headcount:        headcount,
			RequiredQuantity: required.InexactFloat64(),
			ConversionRatio:  item.ConversionRatio,
			PurchaseQuantity: ceilDiv(required, decimal.NewFromFloat(item.ConversionRatio)),
			PurchaseUnit:     item.LargeUnit,
		})
	}

	log.Debug().Str("tier", string(tier)).Int("headcount", headcount).Int("items", len(out)).Msg("calculated VTTH requirements")
	return out, nil
}

// Chemicals computes reagent requirements for items relevant to the tier
// and, when includeSupplements is set, the QC/CALIB supplements they imply.
func (c *Calculator) Chemicals(items []domain.ChemicalItem, lookup []domain.QcCalibEntry, headcount int, tier domain.ServiceTier, includeSupplements bool) (domain.ChemicalResult, error) {
	if err := validate(headcount, tier); err != nil {
		return domain.ChemicalResult{}, err
	}

	resolver := NewQcCalibResolver(lookup, c.rules)
	people := decimal.NewFromInt(int64(headcount))

	result := domain.ChemicalResult{
		Chemicals:   make([]domain.ChemicalRequirement, 0, len(items)),
		Supplements: []domain.SupplementRequirement{},
	}
	relevant := make([]string, 0, len(items))

	for _, item := range items {
		if !c.Relevant(item, tier) {
			continue
		}
		if item.TestsPerVial <= 0 || item.VialsPerBox <= 0 {
			log.Warn().Str("item", item.TestName).Msg("skipping chemical with invalid packaging")
			continue
		}
		relevant = append(relevant, item.TestName)

		qc := resolver.Resolve(item.TestName)
		total := people.Add(decimal.NewFromFloat(qc.QCTests)).Add(decimal.NewFromFloat(qc.CalibTests))
		containers := ceilDiv(total, decimal.NewFromFloat(item.TestsPerVial))

		largeVolume := c.rules.IsLargeVolume(item.TestName)
		purchase := containers
		if !largeVolume {
			purchase = ceilDiv(decimal.NewFromInt(int64(containers)), decimal.NewFromFloat(item.VialsPerBox))
		}

		result.Chemicals = append(result.Chemicals, domain.ChemicalRequirement{
			TestName:         item.TestName,
			Specification:    item.Specification,
			Headcount:        headcount,
			QCTests:          qc.QCTests,
			CalibTests:       qc.CalibTests,
			TotalTests:       total.InexactFloat64(),
			TestsPerVial:     item.TestsPerVial,
			VialsPerBox:      item.VialsPerBox,
			ContainersNeeded: containers,
			LargeVolume:      largeVolume,
			PurchaseQuantity: purchase,
			PurchaseUnit:     c.rules.PurchaseUnit(largeVolume),
			QcCalibSource:    qc.Source,
			QcCalibMatch:     qc.Match,
		})
	}

	if includeSupplements {
		result.Supplements = c.rules.ApplicableSupplements(relevant)
	}

	log.Debug().
		Str("tier", string(tier)).
		Int("headcount", headcount).
		Int("chemicals", len(result.Chemicals)).
		Int("supplements", len(result.Supplements)).
		Msg("calculated chemical requirements")
	return result, nil
}

// Relevant reports whether item is consumed per test run and included in
// the tier. Both conditions must hold.
func (c *Calculator) Relevant(item domain.ChemicalItem, tier domain.ServiceTier) bool {
	return c.rules.IsRunSample(item.ChemicalType) && item.InTier(tier)
}

// QcCalib is a resolved QC/CALIB overhead.
type QcCalib struct {
	QCTests    float64
	CalibTests float64
	Source     domain.QcCalibSource
	Match      string
}

// QcCalibResolver resolves a test's QC/CALIB overhead: exempt keywords
// first, then exact normalized lookup, then fuzzy lookup, then defaults.
type QcCalibResolver struct {
	rules   rules.Rules
	entries []domain.QcCalibEntry
	exact   map[string]int
	index   *matching.Index
}

func NewQcCalibResolver(entries []domain.QcCalibEntry, r rules.Rules) *QcCalibResolver {
	names := make([]string, len(entries))
	exact := make(map[string]int, len(entries))
	for i, e := range entries {
		names[i] = e.TestType
		key := matching.Normalize(e.TestType)
		if _, seen := exact[key]; !seen && key != "" {
			exact[key] = i
		}
	}

	return &QcCalibResolver{
		rules:   r,
		entries: entries,
		exact:   exact,
		index:   matching.NewIndex(names),
	}
}

func (r *QcCalibResolver) Resolve(testName string) QcCalib {
	if !r.rules.NeedsQcCalib(testName) {
		return QcCalib{Source: domain.QcCalibExempt}
	}

	if i, ok := r.exact[matching.Normalize(testName)]; ok {
		e := r.entries[i]
		return QcCalib{QCTests: e.QCTests, CalibTests: e.CalibTests, Source: domain.QcCalibExact, Match: e.TestType}
	}

	if m, ok := r.index.Best(testName, r.rules.QcCalibThreshold); ok {
		e := r.entries[m.Index]
		log.Debug().Str("item", testName).Str("match", e.TestType).Int("similarity", m.Similarity).Msg("fuzzy QC/CALIB match")
		return QcCalib{QCTests: e.QCTests, CalibTests: e.CalibTests, Source: domain.QcCalibFuzzy, Match: e.TestType}
	}

	log.Debug().Str("item", testName).Msg("no QC/CALIB entry, applying defaults")
	return QcCalib{QCTests: r.rules.DefaultQCTests, CalibTests: r.rules.DefaultCalibTests, Source: domain.QcCalibDefault}
}

// ceilDiv returns ceil(a / b) for positive b.
func ceilDiv(a, b decimal.Decimal) int {
	if b.Sign() <= 0 {
		return 0
	}
	return int(a.Div(b).Ceil().IntPart())
}
