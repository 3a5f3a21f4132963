package config

import "testing"

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Workflow.FuzzyThreshold != 85 {
		t.Errorf("FuzzyThreshold = %d, want 85", cfg.Workflow.FuzzyThreshold)
	}
	if cfg.Workflow.DefaultDepartment != "Phòng Lab" {
		t.Errorf("DefaultDepartment = %q", cfg.Workflow.DefaultDepartment)
	}
	if cfg.Storage.Backend != "local" {
		t.Errorf("Backend = %q, want local", cfg.Storage.Backend)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
}

func TestPathHelpers(t *testing.T) {
	p := Defaults().Paths

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"master data", p.MasterDataPath(), "MasterData/Master_Data.xlsx"},
		{"inventory", p.InventoryPath(), "CurrentInventory/Inventory.xlsx"},
		{"purchase order", p.POPath("PO_20240101.xlsx"), "PurchaseOrders/PO_20240101.xlsx"},
		{"template", p.TemplatePath(), "Templates/Template_Order.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
