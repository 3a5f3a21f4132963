// Package rules holds the business constants that shape chemical
// requirements: QC/CALIB exemptions, large-volume packaging, purchase
// units and the QC/CALIB supplement catalog. Defaults can be overridden
// from a TOML file.
package rules

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"

	"github.com/andresuchdata/autopo-lab/internal/domain"
	"github.com/andresuchdata/autopo-lab/internal/matching"
)

type Rules struct {
	RunSampleType      string       `toml:"run_sample_type"`
	SkipKeywords       []string     `toml:"skip_keywords"`
	LargeVolumeMarkers []string     `toml:"large_volume_markers"`
	ContainerUnit      string       `toml:"container_unit"`
	BoxUnit            string       `toml:"box_unit"`
	DefaultQCTests     float64      `toml:"default_qc_tests"`
	DefaultCalibTests  float64      `toml:"default_calib_tests"`
	QcCalibThreshold   int          `toml:"qc_calib_threshold"`
	Supplements        []Supplement `toml:"supplement"`
}

// Supplement is a fixed QC/CALIB consumable. When RequiresAny is non-empty
// the supplement applies only if some relevant test name contains one of
// the keywords (case-insensitive).
type Supplement struct {
	Name        string   `toml:"name"`
	Quantity    int      `toml:"quantity"`
	Unit        string   `toml:"unit"`
	Reason      string   `toml:"reason"`
	RequiresAny []string `toml:"requires_any"`
}

func Default() Rules {
	return Rules{
		RunSampleType:      "Chạy mẫu",
		SkipKeywords:       []string{"wash", "dung dịch", "diluit", "lyse", "clean", "dye", "tiểu"},
		LargeVolumeMarkers: []string{"20L", "20l", "20 L", "20 l"},
		ContainerUnit:      "Thùng",
		BoxUnit:            "Hộp",
		DefaultQCTests:     2,
		DefaultCalibTests:  4,
		QcCalibThreshold:   85,
		Supplements: []Supplement{
			{Name: "ERBA PATH", Quantity: 2, Unit: "vial", Reason: "QC bệnh lý"},
			{Name: "ERBA NORM Level-2", Quantity: 2, Unit: "vial", Reason: "QC bình thường"},
			{Name: "XL MULTICAL 4×3ml", Quantity: 2, Unit: "vial", Reason: "Calib đa thông số"},
			{Name: "HDL/LDL Cal", Quantity: 1, Unit: "vial", Reason: "Calib HDL/LDL", RequiresAny: []string{"hdl", "ldl"}},
		},
	}
}

// Load returns the defaults overlaid with the TOML file at path. An empty
// path yields the defaults. Keys present in the file replace the default
// value wholesale, lists included.
func Load(path string) (Rules, error) {
	if path == "" {
		return Default(), nil
	}

	var file Rules
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to decode rules file %s: %w", path, err)
	}

	r := overlay(Default(), file, md)
	if err := r.Validate(); err != nil {
		return Rules{}, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return r, nil
}

// Decode overlays TOML data on the defaults.
func Decode(data string) (Rules, error) {
	var file Rules
	md, err := toml.Decode(data, &file)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to decode rules: %w", err)
	}

	r := overlay(Default(), file, md)
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

func overlay(base, file Rules, md toml.MetaData) Rules {
	if md.IsDefined("run_sample_type") {
		base.RunSampleType = file.RunSampleType
	}
	if md.IsDefined("skip_keywords") {
		base.SkipKeywords = file.SkipKeywords
	}
	if md.IsDefined("large_volume_markers") {
		base.LargeVolumeMarkers = file.LargeVolumeMarkers
	}
	if md.IsDefined("container_unit") {
		base.ContainerUnit = file.ContainerUnit
	}
	if md.IsDefined("box_unit") {
		base.BoxUnit = file.BoxUnit
	}
	if md.IsDefined("default_qc_tests") {
		base.DefaultQCTests = file.DefaultQCTests
	}
	if md.IsDefined("default_calib_tests") {
		base.DefaultCalibTests = file.DefaultCalibTests
	}
	if md.IsDefined("qc_calib_threshold") {
		base.QcCalibThreshold = file.QcCalibThreshold
	}
	if md.IsDefined("supplement") {
		base.Supplements = file.Supplements
	}
	return base
}

func (r Rules) Validate() error {
	if strings.TrimSpace(r.RunSampleType) == "" {
		return fmt.Errorf("run_sample_type must not be empty")
	}
	if r.DefaultQCTests < 0 || r.DefaultCalibTests < 0 {
		return fmt.Errorf("default QC/CALIB tests must not be negative")
	}
	if r.QcCalibThreshold < 0 || r.QcCalibThreshold > 100 {
		return fmt.Errorf("qc_calib_threshold must be within 0..100, got %d", r.QcCalibThreshold)
	}
	for i, s := range r.Supplements {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("supplement %d has no name", i)
		}
		if s.Quantity < 0 {
			return fmt.Errorf("supplement %s has negative quantity", s.Name)
		}
	}
	return nil
}

// IsRunSample reports whether the chemical-type marker is the run-sample tag.
func (r Rules) IsRunSample(chemicalType string) bool {
	return norm.NFC.String(strings.TrimSpace(chemicalType)) == norm.NFC.String(r.RunSampleType)
}

// NeedsQcCalib is false for auxiliary reagents (wash, diluent, dye...).
func (r Rules) NeedsQcCalib(testName string) bool {
	return !containsAny(testName, r.SkipKeywords)
}

// IsLargeVolume reports whether the name carries a large-volume marker.
func (r Rules) IsLargeVolume(name string) bool {
	return containsAny(name, r.LargeVolumeMarkers)
}

// PurchaseUnit returns the purchasable unit label.
func (r Rules) PurchaseUnit(largeVolume bool) string {
	if largeVolume {
		return r.ContainerUnit
	}
	return r.BoxUnit
}

// ApplicableSupplements returns the catalog entries active for the given
// relevant test names, in catalog order.
func (r Rules) ApplicableSupplements(testNames []string) []domain.SupplementRequirement {
	out := make([]domain.SupplementRequirement, 0, len(r.Supplements))
	for _, s := range r.Supplements {
		if len(s.RequiresAny) > 0 && !anyContains(testNames, s.RequiresAny) {
			continue
		}
		out = append(out, domain.SupplementRequirement{
			Name:     s.Name,
			Quantity: s.Quantity,
			Unit:     s.Unit,
			Reason:   s.Reason,
		})
	}
	return out
}

// containsAny compares normalized forms, so punctuation and repeated
// spaces in either side do not defeat a keyword.
func containsAny(s string, keywords []string) bool {
	key := matching.Normalize(s)
	if key == "" {
		return false
	}
	for _, k := range keywords {
		nk := matching.Normalize(k)
		if nk == "" {
			continue
		}
		if strings.Contains(key, nk) {
			return true
		}
	}
	return false
}

func anyContains(names []string, keywords []string) bool {
	for _, n := range names {
		if containsAny(n, keywords) {
			return true
		}
	}
	return false
}
