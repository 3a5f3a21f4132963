package reconcile

import (
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-lab/internal/domain"
	"github.com/andresuchdata/autopo-lab/internal/matching"
	"github.com/andresuchdata/autopo-lab/internal/workbook"
)

const SheetInventory = "Inventory"

const (
	ColProductName = "Tên sản phẩm"
	ColQuantity    = "Số lượng"
	ColUnit        = "Đơn vị tính"
	ColUpdatedAt   = "Ngày cập nhật"
	ColNotes       = "Ghi chú"
)

var inventorySchema = workbook.Schema{
	Sheet: SheetInventory,
	Fields: []workbook.Field{
		{Header: ColProductName, Required: true},
		{Header: ColQuantity},
		{Header: ColUnit},
		{Header: ColUpdatedAt},
		{Header: ColNotes},
	},
}

// Inventory is the stock ledger keyed by normalized product name. When two
// rows normalize to the same key the later row wins and the collision is
// counted.
type Inventory struct {
	records    []domain.InventoryRecord
	byKey      map[string]int
	index      *matching.Index
	collisions int
}

func NewInventory(records []domain.InventoryRecord) *Inventory {
	inv := &Inventory{byKey: make(map[string]int, len(records))}

	for _, rec := range records {
		key := rec.NormalizedName
		if key == "" {
			key = matching.Normalize(rec.ProductName)
		}
		if key == "" {
			continue
		}
		rec.NormalizedName = key

		if i, ok := inv.byKey[key]; ok {
			inv.collisions++
			log.Warn().
				Str("key", key).
				Str("previous", inv.records[i].ProductName).
				Str("replacement", rec.ProductName).
				Msg("inventory name collision, keeping the later row")
			inv.records[i] = rec
			continue
		}
		inv.byKey[key] = len(inv.records)
		inv.records = append(inv.records, rec)
	}

	names := make([]string, len(inv.records))
	for i, rec := range inv.records {
		names[i] = rec.ProductName
	}
	inv.index = matching.NewIndex(names)

	return inv
}

// ParseInventory reads the Inventory sheet. A book without it yields an
// empty ledger.
func ParseInventory(book *workbook.Book) (*Inventory, error) {
	sheet, ok := book.Sheet(SheetInventory)
	if !ok {
		log.Warn().Str("sheet", SheetInventory).Msg("inventory sheet absent, treating stock as empty")
		return NewInventory(nil), nil
	}
	if err := inventorySchema.Check(sheet); err != nil {
		return nil, err
	}

	records := make([]domain.InventoryRecord, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		name, ok := inventorySchema.Text(row, ColProductName)
		if !ok {
			continue
		}
		qty := row.NumberOr(ColQuantity, 0)
		if qty < 0 {
			log.Warn().Str("sheet", SheetInventory).Int("line", row.Line).Str("item", name).Float64("quantity", qty).Msg("dropping row with negative quantity")
			continue
		}

		rec := domain.InventoryRecord{
			ProductName: name,
			Quantity:    qty,
			Unit:        row.Text(ColUnit),
			Notes:       row.Text(ColNotes),
		}
		if ts, ok := row.Time(ColUpdatedAt); ok {
			rec.LastUpdated = ts
		}
		records = append(records, rec)
	}

	return NewInventory(records), nil
}

func (inv *Inventory) Len() int {
	return len(inv.records)
}

// Records returns the deduplicated ledger in first-seen key order.
func (inv *Inventory) Records() []domain.InventoryRecord {
	out := make([]domain.InventoryRecord, len(inv.records))
	copy(out, inv.records)
	return out
}

// Collisions counts rows that replaced an earlier row with the same key.
func (inv *Inventory) Collisions() int {
	return inv.collisions
}

// Resolution is the outcome of looking a name up in the ledger.
type Resolution struct {
	Record     domain.InventoryRecord
	Fuzzy      bool
	Similarity int
}

// Resolve looks name up by exact normalized key, then by fuzzy match over
// product names at threshold.
func (inv *Inventory) Resolve(name string, threshold int) (Resolution, bool) {
	if i, ok := inv.byKey[matching.Normalize(name)]; ok {
		return Resolution{Record: inv.records[i], Similarity: 100}, true
	}

	m, ok := inv.index.Best(name, threshold)
	if !ok {
		return Resolution{}, false
	}

	log.Debug().Str("item", name).Str("match", m.Name).Int("similarity", m.Similarity).Msg("fuzzy inventory match")
	return Resolution{Record: inv.records[m.Index], Fuzzy: true, Similarity: m.Similarity}, true
}
