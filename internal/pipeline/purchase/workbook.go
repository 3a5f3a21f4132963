package purchase

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/autopo-lab/internal/domain"
)

const SimpleSheet = "Phiếu Mua Hàng"

// Template placeholders.
const (
	PlaceholderDate       = "{Ngaylap}"
	PlaceholderRequester  = "{Nguoidenghi}"
	PlaceholderDepartment = "{Bophan}"
	PlaceholderContent    = "{Noidungyeucau}"
	PlaceholderSeq        = "{Sothutu}"
	PlaceholderProduct    = "{Tensanpham}"
	PlaceholderSpec       = "{Quycach}"
	PlaceholderQuantity   = "{Soluong}"
	PlaceholderUnit       = "{donvi}"
)

const (
	vietnameseDateLayout = "2/1/2006"
	simpleDateLayout     = "2006-01-02"
)

// ErrNoLineItemRow is returned for templates without a {Sothutu} row.
var ErrNoLineItemRow = errors.New("template does not contain a line item row")

var placeholderPattern = regexp.MustCompile(`\{[^}]+\}`)

var simpleColumns = []struct {
	title string
	width float64
}{
	{"STT", 8},
	{"Tên sản phẩm", 45},
	{"Quy cách", 20},
	{"Số lượng", 12},
	{"Đơn vị", 12},
	{"Ghi chú", 40},
}

// WriteSimple renders po on a generated sheet.
func WriteSimple(po domain.PurchaseOrder) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SimpleSheet); err != nil {
		return nil, fmt.Errorf("failed to name PO sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	for i, col := range simpleColumns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SimpleSheet, name, name, col.width); err != nil {
			return nil, err
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(simpleColumns))
	if err := f.MergeCell(SimpleSheet, "A1", lastCol+"1"); err != nil {
		return nil, err
	}
	_ = f.SetCellStr(SimpleSheet, "A1", SimpleSheet)
	_ = f.SetCellStyle(SimpleSheet, "A1", "A1", title)

	meta := [][2]string{
		{"Số phiếu:", po.Meta.Number},
		{"Khoa/Phòng ban:", po.Meta.Department},
		{"Ngày lập:", po.Meta.CreatedDate.Format(simpleDateLayout)},
	}
	if po.Meta.RequestedBy != "" {
		meta = append(meta, [2]string{"Người yêu cầu:", po.Meta.RequestedBy})
	}
	if po.Meta.ApprovedBy != "" {
		meta = append(meta, [2]string{"Người duyệt:", po.Meta.ApprovedBy})
	}
	if po.Meta.Notes != "" {
		meta = append(meta, [2]string{"Ghi chú:", po.Meta.Notes})
	}

	row := 3
	for _, m := range meta {
		_ = f.SetCellStr(SimpleSheet, fmt.Sprintf("A%d", row), m[0])
		_ = f.SetCellStr(SimpleSheet, fmt.Sprintf("B%d", row), m[1])
		row++
	}

	row++
	for i, col := range simpleColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellStr(SimpleSheet, cell, col.title)
	}
	_ = f.SetCellStyle(SimpleSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), bold)

	for _, line := range po.Lines {
		row++
		values := []any{line.Seq, line.ProductName, line.Specification, line.Quantity, line.Unit, line.Notes}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SimpleSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write PO line %d: %w", line.Seq, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write PO workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// FillTemplate fills the first sheet of template. Metadata placeholders are
// replaced wherever they appear; the row holding {Sothutu} is repeated once
// per line and filled column by column.
func FillTemplate(template []byte, po domain.PurchaseOrder) ([]byte, error) {
	f, err := excelize.OpenReader(bytes.NewReader(template))
	if err != nil {
		return nil, fmt.Errorf("failed to open PO template: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("PO template has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read PO template: %w", err)
	}

	lineRow := -1
	for r, cols := range rows {
		for _, v := range cols {
			if strings.Contains(v, PlaceholderSeq) {
				lineRow = r + 1
				break
			}
		}
		if lineRow > 0 {
			break
		}
	}
	if lineRow < 0 {
		return nil, ErrNoLineItemRow
	}

	metadata := strings.NewReplacer(
		PlaceholderDate, po.Meta.CreatedDate.Format(vietnameseDateLayout),
		PlaceholderRequester, po.Meta.RequestedBy,
		PlaceholderDepartment, po.Meta.Department,
		PlaceholderContent, po.Meta.Notes,
	)

	lineCols := make(map[int]string)
	for r, cols := range rows {
		for c, v := range cols {
			if !placeholderPattern.MatchString(v) {
				continue
			}
			if r+1 == lineRow {
				lineCols[c+1] = placeholderPattern.FindString(v)
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellStr(sheet, cell, metadata.Replace(v)); err != nil {
				return nil, err
			}
		}
	}

	if len(po.Lines) == 0 {
		for col := range lineCols {
			cell, _ := excelize.CoordinatesToCellName(col, lineRow)
			_ = f.SetCellStr(sheet, cell, "")
		}
	}

	for i := 1; i < len(po.Lines); i++ {
		if err := f.DuplicateRow(sheet, lineRow); err != nil {
			return nil, fmt.Errorf("failed to expand PO line rows: %w", err)
		}
	}

	for i, line := range po.Lines {
		for col, placeholder := range lineCols {
			cell, _ := excelize.CoordinatesToCellName(col, lineRow+i)
			if err := f.SetCellValue(sheet, cell, lineValue(placeholder, line)); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write PO workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func lineValue(placeholder string, line domain.POLine) any {
	switch placeholder {
	case PlaceholderSeq:
		return line.Seq
	case PlaceholderProduct:
		return line.ProductName
	case PlaceholderSpec:
		return line.Specification
	case PlaceholderQuantity:
		return line.Quantity
	case PlaceholderUnit:
		return line.Unit
	default:
		return ""
	}
}

// Render fills template when one is given and falls back to the simple
// layout when it is absent or unusable. usedTemplate reports which path
// produced the buffer.
func Render(template []byte, po domain.PurchaseOrder) (data []byte, usedTemplate bool, err error) {
	if len(template) > 0 {
		data, err := FillTemplate(template, po)
		if err == nil {
			return data, true, nil
		}
		log.Warn().Err(err).Str("po_number", po.Meta.Number).Msg("PO template unusable, falling back to simple layout")
	}

	data, err = WriteSimple(po)
	return data, false, err
}
