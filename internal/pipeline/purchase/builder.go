// Package purchase turns reconciled lines into a purchase order and renders
// it as a workbook.
package purchase

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-lab/internal/domain"
)

const DefaultDepartment = "Phòng Lab"

// Line notes.
const (
	NoteNotFound           = "Không tìm thấy trong tồn kho"
	NoteSupplementNotFound = "Không tìm thấy trong tồn kho (QC/CALIB)"
	NoteSupplement         = "QC/CALIB supplement"
)

type Builder struct {
	department string
	requester  string
	now        func() time.Time
}

type BuilderOption func(*Builder)

// WithDefaults sets the department and requester used when the caller
// leaves them empty.
func WithDefaults(department, requester string) BuilderOption {
	return func(b *Builder) {
		if department != "" {
			b.department = department
		}
		b.requester = requester
	}
}

func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		department: DefaultDepartment,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// PONumber derives the default order number from a date.
func PONumber(t time.Time) string {
	return "PO-" + t.Format("20060102")
}

// FileName is the workbook name a purchase order is saved under.
func FileName(po domain.PurchaseOrder) string {
	return po.Meta.Number + ".xlsx"
}

// Meta fills the blanks in meta with generated defaults.
func (b *Builder) Meta(meta domain.POMeta) domain.POMeta {
	if meta.CreatedDate.IsZero() {
		meta.CreatedDate = b.now()
	}
	if meta.Number == "" {
		meta.Number = PONumber(meta.CreatedDate)
	}
	if meta.Department == "" {
		meta.Department = b.department
	}
	if meta.RequestedBy == "" {
		meta.RequestedBy = b.requester
	}
	return meta
}

// Build emits one line per item that needs purchasing, numbered 1..N in
// the order VTTH, chemicals, supplements. Sufficient items are skipped.
func (b *Builder) Build(cmp domain.ComparisonResult, meta domain.POMeta) domain.PurchaseOrder {
	po := domain.PurchaseOrder{
		Meta:  b.Meta(meta),
		Lines: []domain.POLine{},
	}

	add := func(line domain.ComparisonLine, spec string, category domain.POCategory, note string) {
		if !line.Status.NeedsPurchase() {
			return
		}
		po.Lines = append(po.Lines, domain.POLine{
			Seq:           len(po.Lines) + 1,
			ProductName:   line.Name,
			Specification: spec,
			Quantity:      max(0, line.PurchaseQuantity),
			Unit:          line.Unit,
			Category:      category,
			Status:        line.Status,
			Notes:         note,
		})
	}

	for _, c := range cmp.VTTH {
		add(c.ComparisonLine, c.Specification, domain.CategoryVTTH, itemNote(c.Status))
	}
	for _, c := range cmp.Chemicals {
		add(c.ComparisonLine, c.Specification, domain.CategoryChemical, itemNote(c.Status))
	}
	for _, c := range cmp.Supplements {
		note := NoteSupplement
		if c.Status == domain.StatusNotFound {
			note = NoteSupplementNotFound
		}
		add(c.ComparisonLine, "", domain.CategorySupplement, note)
	}

	log.Info().Str("po_number", po.Meta.Number).Int("lines", len(po.Lines)).Msg("built purchase order")
	return po
}

func itemNote(status domain.ComparisonStatus) string {
	if status == domain.StatusNotFound {
		return NoteNotFound
	}
	return ""
}
