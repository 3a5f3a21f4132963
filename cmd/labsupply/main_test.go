package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/autopo-lab/internal/config"
	"github.com/andresuchdata/autopo-lab/internal/pipeline"
	"github.com/andresuchdata/autopo-lab/internal/pipeline/reconcile"
	"github.com/andresuchdata/autopo-lab/internal/pipeline/requirements"
	"github.com/andresuchdata/autopo-lab/internal/workbook"
)

func seedRoot(t *testing.T) string {
	t.Helper()

	data, err := workbook.Serialize(
		workbook.Table{
			Name: requirements.SheetVTTH,
			Header: []string{
				requirements.ColSupplyName, requirements.ColLargeUnit, requirements.ColConversionRatio,
				requirements.ColBasicRate, requirements.ColGoldRate, requirements.ColSilverRate,
			},
			Rows: [][]any{{"Kim tiêm 23G", "Hộp", 100, 1, 3, 2}},
		},
		workbook.Table{
			Name: requirements.SheetChemicals,
			Header: []string{
				requirements.ColTestName, requirements.ColChemicalType, requirements.ColVialsPerBox,
				requirements.ColTestsPerVial, requirements.ColGold, requirements.ColBasic, requirements.ColSilver,
			},
			Rows: [][]any{{"Glucose", "Chạy mẫu", 2, 250, "x", "x", ""}},
		},
	)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	inventory, err := workbook.Serialize(workbook.Table{
		Name:   reconcile.SheetInventory,
		Header: []string{reconcile.ColProductName, reconcile.ColQuantity},
		Rows:   [][]any{{"Kim tiêm 23G", 83}},
	})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	root := t.TempDir()
	paths := config.Defaults().Paths
	writeFile(t, root, paths.MasterDataPath(), data)
	writeFile(t, root, paths.InventoryPath(), inventory)
	return root
}

func writeFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()

	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app := newApp(&out)
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"labsupply"}, args...))
	return out.String(), err
}

func TestVTTHCommand(t *testing.T) {
	root := seedRoot(t)

	out, err := runApp(t, "--storage", "local", "--root", root, "vtth", "-n", "50", "-p", "gold")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "# VTTH Requirements - GOLD Package") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "Purchase: 2 Hộp") {
		t.Fatalf("expected 2 boxes in output:\n%s", out)
	}
}

func TestChemicalsCommandJSON(t *testing.T) {
	root := seedRoot(t)

	out, err := runApp(t, "--storage", "local", "--root", root,
		"chemicals", "-n", "50", "-p", "gold", "--no-supplements", "--json")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var res pipeline.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if !res.Success || res.Payload == nil || res.Payload.Chemicals == nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := len(res.Payload.Chemicals.Supplements); got != 0 {
		t.Fatalf("supplements = %d, want 0", got)
	}
	if got := len(res.Payload.Chemicals.Chemicals); got != 1 {
		t.Fatalf("chemicals = %d, want 1", got)
	}
}

func TestWorkflowExitCodes(t *testing.T) {
	root := seedRoot(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"invalid headcount", []string{"vtth", "-n", "0", "-p", "gold"}, exitInvalidInput},
		{"invalid tier", []string{"vtth", "-n", "10", "-p", "platinum"}, exitInvalidInput},
		{"missing master", []string{"vtth", "-n", "10", "-p", "gold", "--master", "MasterData/none.xlsx"}, exitNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--storage", "local", "--root", root}, tt.args...)
			_, err := runApp(t, args...)

			var exitErr cli.ExitCoder
			if !errors.As(err, &exitErr) {
				t.Fatalf("expected exit error, got %v", err)
			}
			if exitErr.ExitCode() != tt.want {
				t.Fatalf("exit code = %d, want %d (%v)", exitErr.ExitCode(), tt.want, err)
			}
		})
	}
}

func TestPOCommandWritesWorkbook(t *testing.T) {
	root := seedRoot(t)
	dest := filepath.Join(t.TempDir(), "po.xlsx")

	_, err := runApp(t, "--storage", "local", "--root", root,
		"po", "-n", "50", "-p", "gold", "--po-number", "PO-TEST-1", "--xlsx", dest)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("local workbook not written: %v", err)
	}
	saved := filepath.Join(root, filepath.FromSlash(config.Defaults().Paths.POPath("PO-TEST-1.xlsx")))
	if _, err := os.Stat(saved); err != nil {
		t.Fatalf("purchase order not saved to storage: %v", err)
	}

	out, err := runApp(t, "--storage", "local", "--root", root, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "PO-TEST-1.xlsx") {
		t.Fatalf("list output missing saved PO:\n%s", out)
	}
}

func TestPullCommand(t *testing.T) {
	root := seedRoot(t)
	dest := t.TempDir()

	out, err := runApp(t, "--storage", "local", "--root", root, "pull", "--dest", dest)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if !strings.Contains(out, "Copied 2 files") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dest, filepath.FromSlash(config.Defaults().Paths.MasterDataPath()))); err != nil {
		t.Fatalf("master data not mirrored: %v", err)
	}
}

func TestSyncOnce(t *testing.T) {
	root := seedRoot(t)

	out, err := runApp(t, "--storage", "local", "--root", root, "sync", "--once")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !strings.Contains(out, `"type":"created"`) || !strings.Contains(out, "Master_Data.xlsx") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestRequestFromFlags(t *testing.T) {
	app := &cli.App{
		Commands: []*cli.Command{workflowCommand("po", "", pipeline.WorkflowGeneratePO)},
	}
	var got pipeline.Request
	app.Commands[0].Action = func(c *cli.Context) error {
		got = requestFromFlags(c, pipeline.WorkflowGeneratePO)
		return nil
	}

	err := app.Run([]string{"labsupply", "po", "-n", "20", "-p", "silver", "--no-save", "--department", "Khoa Xét nghiệm"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if got.Headcount != 20 || got.PackageType != "silver" {
		t.Fatalf("request = %+v", got)
	}
	if got.Save == nil || *got.Save {
		t.Fatalf("expected save disabled")
	}
	if got.IncludeSupplements != nil {
		t.Fatalf("supplements should keep the default")
	}
	if got.POMetadata == nil || got.POMetadata.Department != "Khoa Xét nghiệm" {
		t.Fatalf("po metadata = %+v", got.POMetadata)
	}
}
