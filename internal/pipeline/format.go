package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andresuchdata/autopo-lab/internal/domain"
)

// FormatVTTH renders consumable requirements as markdown-like text.
func FormatVTTH(reqs []domain.VTTHRequirement, headcount int, tier domain.ServiceTier) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# VTTH Requirements - %s Package\n", strings.ToUpper(string(tier)))
	fmt.Fprintf(&b, "Number of Customers: %d\n", headcount)
	fmt.Fprintf(&b, "Total Items: %d\n\n---\n", len(reqs))

	for _, r := range reqs {
		fmt.Fprintf(&b, "\n## %s\n", r.Name)
		fmt.Fprintf(&b, "- Consumption Rate: %s (per customer)\n", num(r.Rate))
		fmt.Fprintf(&b, "- Required: %s (small unit)\n", num(r.RequiredQuantity))
		fmt.Fprintf(&b, "- Purchase: %d %s (%s per %s)\n", r.PurchaseQuantity, r.PurchaseUnit, num(r.ConversionRatio), r.PurchaseUnit)
	}
	return b.String()
}

func FormatChemicals(res domain.ChemicalResult, headcount int, tier domain.ServiceTier) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Chemical Requirements - %s Package\n", strings.ToUpper(string(tier)))
	fmt.Fprintf(&b, "Number of Customers: %d\n", headcount)
	fmt.Fprintf(&b, "Total Chemicals: %d\n", len(res.Chemicals))
	fmt.Fprintf(&b, "Supplements: %d\n\n---\n\n## Chemicals\n", len(res.Supplements))

	for _, c := range res.Chemicals {
		fmt.Fprintf(&b, "\n### %s\n", c.TestName)
		fmt.Fprintf(&b, "- Customer Tests: %d\n", c.Headcount)
		fmt.Fprintf(&b, "- QC Tests: %s\n", num(c.QCTests))
		fmt.Fprintf(&b, "- CALIB Tests: %s\n", num(c.CalibTests))
		fmt.Fprintf(&b, "- **Total Tests: %s**\n", num(c.TotalTests))
		fmt.Fprintf(&b, "- Tests per Vial: %s\n", num(c.TestsPerVial))
		fmt.Fprintf(&b, "- Containers Needed: %d\n", c.ContainersNeeded)
		fmt.Fprintf(&b, "- Vials per Box: %s\n", num(c.VialsPerBox))
		fmt.Fprintf(&b, "- **Purchase: %d %s**\n", c.PurchaseQuantity, c.PurchaseUnit)
	}

	if len(res.Supplements) > 0 {
		b.WriteString("\n---\n\n## QC/CALIB Supplements\n\n")
		for _, s := range res.Supplements {
			fmt.Fprintf(&b, "- %s: %d %s\n", s.Name, s.Quantity, s.Unit)
		}
	}
	return b.String()
}

func FormatComparison(cmp domain.ComparisonResult) string {
	var b strings.Builder
	b.WriteString("# Inventory Comparison Results\n\n## Summary\n")
	fmt.Fprintf(&b, "- Total Items: %d\n", cmp.Summary.TotalItems)
	fmt.Fprintf(&b, "- Need to Purchase: %d\n", cmp.Summary.NeedToPurchase)
	fmt.Fprintf(&b, "- Sufficient: %d\n", cmp.Summary.Sufficient)
	fmt.Fprintf(&b, "- Not Found in Inventory: %d\n", cmp.Summary.NotFound)
	if cmp.InventoryCollisions > 0 {
		fmt.Fprintf(&b, "- Duplicate inventory names: %d\n", cmp.InventoryCollisions)
	}

	section := func(title string, lines []domain.ComparisonLine) {
		if len(lines) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n---\n\n## %s\n", title)
		for _, l := range lines {
			fmt.Fprintf(&b, "\n### %s %s\n", statusMark(l.Status), l.Name)
			if l.MatchedInventoryName != "" {
				fmt.Fprintf(&b, "- Matched to: %q (%d%%)\n", l.MatchedInventoryName, l.MatchSimilarity)
			}
			fmt.Fprintf(&b, "- Required: %s\n", num(l.RequiredQuantity))
			fmt.Fprintf(&b, "- Inventory: %s\n", num(l.InventoryQuantity))
			fmt.Fprintf(&b, "- Shortage: %s\n", num(l.Shortage))
			fmt.Fprintf(&b, "- Status: %s\n", l.Status.Label())
			if l.Status.NeedsPurchase() {
				fmt.Fprintf(&b, "- **Purchase: %d %s**\n", l.PurchaseQuantity, l.Unit)
			}
		}
	}

	vtth := make([]domain.ComparisonLine, 0, len(cmp.VTTH))
	for _, c := range cmp.VTTH {
		vtth = append(vtth, c.ComparisonLine)
	}
	chems := make([]domain.ComparisonLine, 0, len(cmp.Chemicals))
	for _, c := range cmp.Chemicals {
		chems = append(chems, c.ComparisonLine)
	}
	supps := make([]domain.ComparisonLine, 0, len(cmp.Supplements))
	for _, c := range cmp.Supplements {
		supps = append(supps, c.ComparisonLine)
	}

	section("VTTH (Consumables)", vtth)
	section("Chemicals", chems)
	section("QC/CALIB Supplements", supps)
	return b.String()
}

func FormatPurchaseOrder(po domain.PurchaseOrder) string {
	var b strings.Builder
	b.WriteString("# Purchase Order\n\n## Metadata\n")
	fmt.Fprintf(&b, "- PO Number: %s\n", po.Meta.Number)
	fmt.Fprintf(&b, "- Department: %s\n", po.Meta.Department)
	fmt.Fprintf(&b, "- Created Date: %s\n", po.Meta.CreatedDate.Format("2006-01-02"))
	if po.Meta.RequestedBy != "" {
		fmt.Fprintf(&b, "- Requested By: %s\n", po.Meta.RequestedBy)
	}
	if po.Meta.ApprovedBy != "" {
		fmt.Fprintf(&b, "- Approved By: %s\n", po.Meta.ApprovedBy)
	}
	if po.Meta.Notes != "" {
		fmt.Fprintf(&b, "- Notes: %s\n", po.Meta.Notes)
	}

	fmt.Fprintf(&b, "\n---\n\n## Line Items\n\nTotal Items: %d\n", len(po.Lines))
	for _, l := range po.Lines {
		fmt.Fprintf(&b, "\n%d. **%s**\n", l.Seq, l.ProductName)
		fmt.Fprintf(&b, "   - Quantity: %d %s\n", l.Quantity, l.Unit)
		if l.Notes != "" {
			fmt.Fprintf(&b, "   - Notes: %s\n", l.Notes)
		}
	}
	return b.String()
}

// FormatPOList renders stored purchase-order files, annotated with the
// recorded line count when history is available.
func FormatPOList(folder string, files []domain.FileMetadata, history []domain.PurchaseOrderRecord) string {
	if len(files) == 0 {
		return fmt.Sprintf("No purchase orders found (%s/ folder is empty)", folder)
	}

	byPath := make(map[string]domain.PurchaseOrderRecord, len(history))
	for _, h := range history {
		byPath[h.FilePath] = h
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Purchase Orders\n\nFound %d purchase order(s):\n\n", len(files))
	for _, f := range files {
		fmt.Fprintf(&b, "- %s (%d bytes, modified: %s)", f.Name, f.Size, f.ModifiedTime.Format("2006-01-02"))
		if h, ok := byPath[f.Path]; ok {
			fmt.Fprintf(&b, " - %d lines, %d units", h.LineCount, h.TotalQuantity)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func statusMark(s domain.ComparisonStatus) string {
	switch s {
	case domain.StatusSufficient:
		return "[OK]"
	case domain.StatusNeedToPurchase:
		return "[BUY]"
	default:
		return "[MISSING]"
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
