// internal/domain/models.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// SupplyItem is one consumable (VTTH) row of the master data.
type SupplyItem struct {
	Row             int     `json:"row"`
	Name            string  `json:"name"`
	Specification   string  `json:"specification,omitempty"`
	LargeUnit       string  `json:"large_unit"`
	ConversionRatio float64 `json:"conversion_ratio"`
	BasicRate       float64 `json:"basic_rate"`
	GoldRate        float64 `json:"gold_rate"`
	SilverRate      float64 `json:"silver_rate"`
	Notes           string  `json:"notes,omitempty"`
}

// Rate returns the per-package consumption rate for the tier.
func (s SupplyItem) Rate(tier ServiceTier) float64 {
	switch tier {
	case TierGold:
		return s.GoldRate
	case TierBasic:
		return s.BasicRate
	case TierSilver:
		return s.SilverRate
	default:
		return 0
	}
}

// ChemicalItem is one row of the primary chemical table.
type ChemicalItem struct {
	Row           int     `json:"row"`
	TestName      string  `json:"test_name"`
	ChemicalType  string  `json:"chemical_type"`
	Specification string  `json:"specification,omitempty"`
	CompassCode   string  `json:"compass_code,omitempty"`
	SupplierCode  string  `json:"supplier_code,omitempty"`
	VialsPerBox   float64 `json:"vials_per_box"`
	TestsPerVial  float64 `json:"tests_per_vial"`
	Gold          bool    `json:"gold"`
	Basic         bool    `json:"basic"`
	Silver        bool    `json:"silver"`
}

// InTier reports whether the item's inclusion flag for the tier is set.
func (c ChemicalItem) InTier(tier ServiceTier) bool {
	switch tier {
	case TierGold:
		return c.Gold
	case TierBasic:
		return c.Basic
	case TierSilver:
		return c.Silver
	default:
		return false
	}
}

// QcCalibEntry is one row of the QC/CALIB lookup table.
type QcCalibEntry struct {
	TestType   string  `json:"test_type"`
	QCTests    float64 `json:"qc_tests"`
	CalibTests float64 `json:"calib_tests"`
}

// InventoryRecord is one on-hand stock row.
type InventoryRecord struct {
	ProductName    string     `json:"product_name"`
	NormalizedName string     `json:"normalized_name"`
	Quantity       float64    `json:"quantity"`
	Unit           string     `json:"unit,omitempty"`
	LastUpdated    *time.Time `json:"last_updated,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

// QcCalibSource records how a chemical's QC/CALIB overhead was resolved.
type QcCalibSource string

const (
	QcCalibExempt  QcCalibSource = "exempt"
	QcCalibExact   QcCalibSource = "exact"
	QcCalibFuzzy   QcCalibSource = "fuzzy"
	QcCalibDefault QcCalibSource = "default"
)

// VTTHRequirement is the calculated need for one consumable.
type VTTHRequirement struct {
	Name             string  `json:"name"`
	Specification    string  `json:"specification,omitempty"`
	Rate             float64 `json:"rate"`
	Headcount        int     `json:"headcount"`
	RequiredQuantity float64 `json:"required_quantity"`
	ConversionRatio  float64 `json:"conversion_ratio"`
	PurchaseQuantity int     `json:"purchase_quantity"`
	PurchaseUnit     string  `json:"purchase_unit"`
}

// ChemicalRequirement is the calculated need for one reagent.
type ChemicalRequirement struct {
	TestName         string        `json:"test_name"`
	Specification    string        `json:"specification,omitempty"`
	Headcount        int           `json:"headcount"`
	QCTests          float64       `json:"qc_tests"`
	CalibTests       float64       `json:"calib_tests"`
	TotalTests       float64       `json:"total_tests"`
	TestsPerVial     float64       `json:"tests_per_vial"`
	VialsPerBox      float64       `json:"vials_per_box"`
	ContainersNeeded int           `json:"containers_needed"`
	LargeVolume      bool          `json:"large_volume"`
	PurchaseQuantity int           `json:"purchase_quantity"`
	PurchaseUnit     string        `json:"purchase_unit"`
	QcCalibSource    QcCalibSource `json:"qc_calib_source"`
	QcCalibMatch     string        `json:"qc_calib_match,omitempty"`
}

// SupplementRequirement is a fixed QC/CALIB consumable added on top of the
// per-test chemicals.
type SupplementRequirement struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Unit     string `json:"unit"`
	Reason   string `json:"reason,omitempty"`
}

// ChemicalResult bundles the chemical calculation outputs.
type ChemicalResult struct {
	Chemicals   []ChemicalRequirement   `json:"chemicals"`
	Supplements []SupplementRequirement `json:"supplements"`
}

// ComparisonLine is the reconciliation outcome shared by every item family.
// Quantities are expressed in the family's comparison unit.
type ComparisonLine struct {
	Name                 string           `json:"name"`
	RequiredQuantity     float64          `json:"required_quantity"`
	InventoryQuantity    float64          `json:"inventory_quantity"`
	Shortage             float64          `json:"shortage"`
	PurchaseQuantity     int              `json:"purchase_quantity"`
	Unit                 string           `json:"unit"`
	Status               ComparisonStatus `json:"status"`
	MatchedInventoryName string           `json:"matched_inventory_name,omitempty"`
	MatchSimilarity      int              `json:"match_similarity,omitempty"`
}

type VTTHComparison struct {
	ComparisonLine
	Specification   string  `json:"specification,omitempty"`
	ConversionRatio float64 `json:"conversion_ratio"`
}

type ChemicalComparison struct {
	ComparisonLine
	Specification string  `json:"specification,omitempty"`
	TotalTests    float64 `json:"total_tests"`
	VialsPerBox   float64 `json:"vials_per_box"`
	LargeVolume   bool    `json:"large_volume"`
}

type SupplementComparison struct {
	ComparisonLine
}

// ComparisonSummary counts reconciled lines by status.
type ComparisonSummary struct {
	TotalItems     int `json:"total_items"`
	NeedToPurchase int `json:"need_to_purchase"`
	Sufficient     int `json:"sufficient"`
	NotFound       int `json:"not_found"`
}

// Add counts one line.
func (s *ComparisonSummary) Add(status ComparisonStatus) {
	s.TotalItems++
	switch status {
	case StatusSufficient:
		s.Sufficient++
	case StatusNeedToPurchase:
		s.NeedToPurchase++
	case StatusNotFound:
		s.NotFound++
	}
}

type ComparisonResult struct {
	VTTH                []VTTHComparison       `json:"vtth"`
	Chemicals           []ChemicalComparison   `json:"chemicals"`
	Supplements         []SupplementComparison `json:"supplements"`
	Summary             ComparisonSummary      `json:"summary"`
	InventoryCollisions int                    `json:"inventory_collisions"`
}

// POCategory groups purchase-order lines by item family.
type POCategory string

const (
	CategoryVTTH       POCategory = "vtth"
	CategoryChemical   POCategory = "chemical"
	CategorySupplement POCategory = "supplement"
)

// POMeta is the purchase-order header.
type POMeta struct {
	Number      string    `json:"po_number" db:"po_number"`
	Department  string    `json:"department" db:"department"`
	RequestedBy string    `json:"requested_by,omitempty" db:"requested_by"`
	ApprovedBy  string    `json:"approved_by,omitempty" db:"approved_by"`
	Notes       string    `json:"notes,omitempty" db:"notes"`
	CreatedDate time.Time `json:"created_date" db:"created_date"`
}

// POLine is one purchase-order line. Quantity is always in the item's
// purchasable unit.
type POLine struct {
	Seq           int              `json:"seq" db:"seq"`
	ProductName   string           `json:"product_name" db:"product_name"`
	Specification string           `json:"specification,omitempty" db:"specification"`
	Quantity      int              `json:"quantity" db:"quantity"`
	Unit          string           `json:"unit" db:"unit"`
	Category      POCategory       `json:"category" db:"category"`
	Status        ComparisonStatus `json:"status" db:"status"`
	Notes         string           `json:"notes,omitempty" db:"notes"`
}

type PurchaseOrder struct {
	Meta  POMeta   `json:"meta"`
	Lines []POLine `json:"lines"`
}

// TotalQuantity sums line quantities.
func (p PurchaseOrder) TotalQuantity() int {
	total := 0
	for _, l := range p.Lines {
		total += l.Quantity
	}
	return total
}

// PurchaseOrderRecord is a persisted purchase-order header.
type PurchaseOrderRecord struct {
	ID    uuid.UUID `json:"id" db:"id"`
	RunID uuid.UUID `json:"run_id" db:"run_id"`
	POMeta
	FilePath      string    `json:"file_path,omitempty" db:"file_path"`
	LineCount     int       `json:"line_count" db:"line_count"`
	TotalQuantity int       `json:"total_quantity" db:"total_quantity"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// FileMetadata describes a stored file.
type FileMetadata struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	MimeType     string    `json:"mime_type,omitempty"`
	Size         int64     `json:"size"`
	ModifiedTime time.Time `json:"modified_time"`
	IsFolder     bool      `json:"is_folder"`
}

// SearchCriteria narrows a file listing. Empty fields match everything.
type SearchCriteria struct {
	Path         string `json:"path,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	NameContains string `json:"name_contains,omitempty"`
}

const (
	MimeXLSX   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeCSV    = "text/csv"
	MimeFolder = "application/vnd.google-apps.folder"
)
