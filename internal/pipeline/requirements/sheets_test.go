package requirements

import (
	"errors"
	"testing"

	"github.com/andresuchdata/autopo-lab/internal/domain"
	"github.com/andresuchdata/autopo-lab/internal/rules"
	"github.com/andresuchdata/autopo-lab/internal/workbook"
)

func masterBook(t *testing.T, tables ...workbook.Table) *workbook.Book {
	t.Helper()

	data, err := workbook.Serialize(tables...)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	book, err := workbook.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return book
}

var vtthTable = workbook.Table{
	Name:   SheetVTTH,
	Header: []string{ColSeq, ColSupplyName, ColLargeUnit, ColConversionRatio, ColSpecification, ColBasicRate, ColGoldRate, ColSilverRate, ColNotes},
	Rows: [][]any{
		{1, "Kim tiêm 23G", "Hộp", 100, "100 cái/hộp", 1, 3, 2, ""},
		{2, "Bông gòn", "Gói", 0, "", 1, 1, 1, "ratio zero"},
		{3, "", "Hộp", 10, "", 1, 1, 1, "no name"},
		{4, "Găng tay", "Hộp", "n/a", "", 1, 1, 1, "bad ratio"},
		{5, "Ống nghiệm", "Khay", 50, "", "", 2, "", ""},
	},
}

func TestParseSupplies(t *testing.T) {
	items, err := ParseSupplies(masterBook(t, vtthTable))
	if err != nil {
		t.Fatalf("ParseSupplies: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 valid rows, got %d: %+v", len(items), items)
	}

	first := items[0]
	if first.Name != "Kim tiêm 23G" || first.ConversionRatio != 100 || first.GoldRate != 3 || first.Specification != "100 cái/hộp" {
		t.Errorf("first item = %+v", first)
	}
	if items[1].BasicRate != 0 || items[1].GoldRate != 2 {
		t.Errorf("blank rates should default to 0, got %+v", items[1])
	}
}

func TestParseSuppliesMissingSheet(t *testing.T) {
	book := masterBook(t, workbook.Table{Name: "Other", Header: []string{"A"}})

	_, err := ParseSupplies(book)
	if !errors.Is(err, domain.ErrMissingSheet) {
		t.Fatalf("expected ErrMissingSheet, got %v", err)
	}
}

func TestParseSuppliesMissingColumn(t *testing.T) {
	book := masterBook(t, workbook.Table{Name: SheetVTTH, Header: []string{ColSupplyName}})

	if _, err := ParseSupplies(book); err == nil {
		t.Fatal("expected missing column error")
	}
}

func TestParseChemicalsAndLookup(t *testing.T) {
	book := masterBook(t,
		workbook.Table{
			Name:   SheetChemicals,
			Header: []string{ColTestName, ColChemicalType, ColVialsPerBox, ColTestsPerVial, ColGold, ColBasic, ColSilver, ColSpecification},
			Rows: [][]any{
				{"Glucose", runSample, 2, 250, "x", "", "X", "2x50ml"},
				{"Broken", runSample, 0, 250, "x", "x", "x", ""},
				{"Broken 2", runSample, 2, -1, "x", "x", "x", ""},
				{"Cleaner", "Phụ trợ", 1, 500, "", "x", "", ""},
			},
		},
		workbook.Table{
			Name:   SheetQcCalib,
			Header: []string{ColTestType, ColQCTests, ColCalibTests},
			Rows: [][]any{
				{"Glucose", 3, ""},
				{"", 9, 9},
			},
		},
	)

	items, err := ParseChemicals(book)
	if err != nil {
		t.Fatalf("ParseChemicals: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 valid chemicals, got %+v", items)
	}
	glucose := items[0]
	if !glucose.Gold || glucose.Basic || !glucose.Silver || glucose.Specification != "2x50ml" {
		t.Errorf("glucose = %+v", glucose)
	}

	lookup := ParseQcCalib(book, rules.Default())
	if len(lookup) != 1 {
		t.Fatalf("expected 1 lookup entry, got %+v", lookup)
	}
	if lookup[0].QCTests != 3 || lookup[0].CalibTests != 4 {
		t.Errorf("blank calib should default to 4, got %+v", lookup[0])
	}
}

func TestParseQcCalibAbsent(t *testing.T) {
	book := masterBook(t, vtthTable)

	if got := ParseQcCalib(book, rules.Default()); len(got) != 0 {
		t.Errorf("expected empty lookup, got %+v", got)
	}
}

func TestParseChemicalsMissingSheet(t *testing.T) {
	_, err := ParseChemicals(masterBook(t, vtthTable))

	var sheetErr *domain.MissingSheetError
	if !errors.As(err, &sheetErr) || sheetErr.Sheet != SheetChemicals {
		t.Fatalf("expected missing %s, got %v", SheetChemicals, err)
	}
}
