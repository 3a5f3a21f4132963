package requirements

import (
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-lab/internal/domain"
	"github.com/andresuchdata/autopo-lab/internal/rules"
	"github.com/andresuchdata/autopo-lab/internal/workbook"
)

// Master data sheet names.
const (
	SheetVTTH      = "VTTH"
	SheetChemicals = "Hoa Chat Chi Tiet"
	SheetQcCalib   = "Hoa Chat"
)

// VTTH columns.
const (
	ColSeq             = "STT"
	ColSupplyName      = "Tên vật tư"
	ColLargeUnit       = "Đơn vị tính"
	ColConversionRatio = "Số lượng trong 1 ĐVT"
	ColSpecification   = "Quy cách"
	ColBasicRate       = "Gói đồng - Tiêu hao"
	ColGoldRate        = "Gói vàng - Tiêu hao"
	ColSilverRate      = "Gói bạc - Tiêu hao"
	ColNotes           = "Ghi chú"
)

// Chemical columns.
const (
	ColTestName     = "Tên xét nghiệm"
	ColChemicalType = "Loại hóa chất"
	ColVialsPerBox  = "Số lọ (Lọ/hộp)"
	ColTestsPerVial = "Số test (test/lọ)"
	ColGold         = "Gói vàng"
	ColBasic        = "Gói đồng"
	ColSilver       = "Gói bạc"
	ColCompassCode  = "Mã Compass"
	ColSupplierCode = "Mã NCC"
)

// QC/CALIB lookup columns.
const (
	ColTestType   = "Loại xét nghiệm"
	ColQCTests    = "Số test cho 1 lần QC"
	ColCalibTests = "Số test cho 1 lần calib"
)

var vtthSchema = workbook.Schema{
	Sheet: SheetVTTH,
	Fields: []workbook.Field{
		{Header: ColSupplyName, Required: true},
		{Header: ColConversionRatio, Required: true},
		{Header: ColLargeUnit},
		{Header: ColSpecification},
		{Header: ColBasicRate},
		{Header: ColGoldRate},
		{Header: ColSilverRate},
		{Header: ColNotes},
	},
}

var chemicalSchema = workbook.Schema{
	Sheet: SheetChemicals,
	Fields: []workbook.Field{
		{Header: ColTestName, Required: true},
		{Header: ColVialsPerBox, Required: true},
		{Header: ColTestsPerVial, Required: true},
		{Header: ColChemicalType},
		{Header: ColSpecification},
		{Header: ColGold},
		{Header: ColBasic},
		{Header: ColSilver},
		{Header: ColCompassCode},
		{Header: ColSupplierCode},
	},
}

func qcCalibSchema(r rules.Rules) workbook.Schema {
	return workbook.Schema{
		Sheet: SheetQcCalib,
		Fields: []workbook.Field{
			{Header: ColTestType, Required: true},
			{Header: ColQCTests, Default: r.DefaultQCTests},
			{Header: ColCalibTests, Default: r.DefaultCalibTests},
		},
	}
}

// ParseSupplies reads the VTTH sheet. Rows without a name or with a
// non-positive conversion ratio or negative rate are dropped with a warning.
func ParseSupplies(book *workbook.Book) ([]domain.SupplyItem, error) {
	sheet, err := book.RequireSheet(SheetVTTH)
	if err != nil {
		return nil, err
	}
	if err := vtthSchema.Check(sheet); err != nil {
		return nil, err
	}

	items := make([]domain.SupplyItem, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		name, ok := vtthSchema.Text(row, ColSupplyName)
		if !ok {
			dropRow(SheetVTTH, row, "", "name is blank")
			continue
		}

		ratio, ok := vtthSchema.Number(row, ColConversionRatio)
		if !ok || ratio <= 0 {
			dropRow(SheetVTTH, row, name, "conversion ratio must be greater than 0: "+row.Text(ColConversionRatio))
			continue
		}

		item := domain.SupplyItem{
			Row:             row.Line,
			Name:            name,
			Specification:   row.Text(ColSpecification),
			LargeUnit:       row.Text(ColLargeUnit),
			ConversionRatio: ratio,
			BasicRate:       row.NumberOr(ColBasicRate, 0),
			GoldRate:        row.NumberOr(ColGoldRate, 0),
			SilverRate:      row.NumberOr(ColSilverRate, 0),
			Notes:           row.Text(ColNotes),
		}
		if item.BasicRate < 0 || item.GoldRate < 0 || item.SilverRate < 0 {
			dropRow(SheetVTTH, row, name, "consumption rate must not be negative")
			continue
		}

		items = append(items, item)
	}

	log.Debug().Str("sheet", SheetVTTH).Int("rows", len(sheet.Rows)).Int("items", len(items)).Msg("parsed supplies")
	return items, nil
}

// ParseChemicals reads the primary chemical sheet. Rows with non-positive
// vials-per-box or tests-per-vial are dropped with a warning.
func ParseChemicals(book *workbook.Book) ([]domain.ChemicalItem, error) {
	sheet, err := book.RequireSheet(SheetChemicals)
	if err != nil {
		return nil, err
	}
	if err := chemicalSchema.Check(sheet); err != nil {
		return nil, err
	}

	items := make([]domain.ChemicalItem, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		name, ok := chemicalSchema.Text(row, ColTestName)
		if !ok {
			dropRow(SheetChemicals, row, "", "test name is blank")
			continue
		}

		vials, ok := chemicalSchema.Number(row, ColVialsPerBox)
		if !ok || vials <= 0 {
			dropRow(SheetChemicals, row, name, "vials per box must be greater than 0: "+row.Text(ColVialsPerBox))
			continue
		}
		tests, ok := chemicalSchema.Number(row, ColTestsPerVial)
		if !ok || tests <= 0 {
			dropRow(SheetChemicals, row, name, "tests per vial must be greater than 0: "+row.Text(ColTestsPerVial))
			continue
		}

		items = append(items, domain.ChemicalItem{
			Row:           row.Line,
			TestName:      name,
			ChemicalType:  row.Text(ColChemicalType),
			Specification: row.Text(ColSpecification),
			CompassCode:   row.Text(ColCompassCode),
			SupplierCode:  row.Text(ColSupplierCode),
			VialsPerBox:   vials,
			TestsPerVial:  tests,
			Gold:          row.Flag(ColGold),
			Basic:         row.Flag(ColBasic),
			Silver:        row.Flag(ColSilver),
		})
	}

	log.Debug().Str("sheet", SheetChemicals).Int("rows", len(sheet.Rows)).Int("items", len(items)).Msg("parsed chemicals")
	return items, nil
}

// ParseQcCalib reads the optional QC/CALIB lookup sheet. A missing sheet or
// a sheet without the test-type column yields an empty lookup. Blank counts
// take the rule defaults.
func ParseQcCalib(book *workbook.Book, r rules.Rules) []domain.QcCalibEntry {
	sheet, ok := book.Sheet(SheetQcCalib)
	if !ok {
		log.Debug().Str("sheet", SheetQcCalib).Msg("QC/CALIB sheet absent, using defaults")
		return nil
	}

	schema := qcCalibSchema(r)
	if err := schema.Check(sheet); err != nil {
		log.Warn().Err(err).Msg("ignoring QC/CALIB sheet")
		return nil
	}

	entries := make([]domain.QcCalibEntry, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		testType, ok := schema.Text(row, ColTestType)
		if !ok {
			continue
		}
		qc, _ := schema.Number(row, ColQCTests)
		calib, _ := schema.Number(row, ColCalibTests)
		if qc < 0 || calib < 0 {
			dropRow(SheetQcCalib, row, testType, "QC/CALIB tests must not be negative")
			continue
		}
		entries = append(entries, domain.QcCalibEntry{TestType: testType, QCTests: qc, CalibTests: calib})
	}
	return entries
}

func dropRow(sheet string, row workbook.Row, name, reason string) {
	log.Warn().
		Str("sheet", sheet).
		Int("line", row.Line).
		Str("item", name).
		Str("reason", reason).
		Msg("dropping invalid row")
}
