package pipeline

import (
	"strings"

	"github.com/google/uuid"

	"github.com/andresuchdata/autopo-lab/internal/domain"
)

// Workflow selects which steps Execute runs.
type Workflow string

const (
	WorkflowCalculateVTTH      Workflow = "calculate_vtth"
	WorkflowCalculateChemicals Workflow = "calculate_chemicals"
	WorkflowCompare            Workflow = "compare_with_inventory"
	WorkflowGeneratePO         Workflow = "generate_po"
	WorkflowFullProcess        Workflow = "full_process"
	WorkflowListPO             Workflow = "list_po"
)

// Workflows lists the valid workflows in presentation order.
func Workflows() []Workflow {
	return []Workflow{
		WorkflowCalculateVTTH,
		WorkflowCalculateChemicals,
		WorkflowCompare,
		WorkflowGeneratePO,
		WorkflowFullProcess,
		WorkflowListPO,
	}
}

func ParseWorkflow(value string) (Workflow, error) {
	w := Workflow(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Workflows() {
		if w == known {
			return w, nil
		}
	}
	return "", domain.NewInvalidInput("workflow", "unknown workflow "+value)
}

func (w Workflow) needsInventory() bool {
	return w == WorkflowCompare || w == WorkflowGeneratePO || w == WorkflowFullProcess
}

// POMetaInput carries optional purchase-order header overrides.
type POMetaInput struct {
	PONumber    string `json:"poNumber,omitempty"`
	Department  string `json:"department,omitempty"`
	RequestedBy string `json:"requestedBy,omitempty"`
	ApprovedBy  string `json:"approvedBy,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

func (m *POMetaInput) toDomain() domain.POMeta {
	if m == nil {
		return domain.POMeta{}
	}
	return domain.POMeta{
		Number:      strings.TrimSpace(m.PONumber),
		Department:  strings.TrimSpace(m.Department),
		RequestedBy: strings.TrimSpace(m.RequestedBy),
		ApprovedBy:  strings.TrimSpace(m.ApprovedBy),
		Notes:       strings.TrimSpace(m.Notes),
	}
}

// Request is the single workflow entry point. File paths are relative to
// the store root; empty paths select the most recent workbook in the
// configured folder.
type Request struct {
	Workflow           Workflow     `json:"workflow"`
	Headcount          int          `json:"headcount"`
	PackageType        string       `json:"packageType"`
	MasterDataFile     string       `json:"masterDataFile,omitempty"`
	InventoryFile      string       `json:"inventoryFile,omitempty"`
	IncludeSupplements *bool        `json:"includeSupplements,omitempty"`
	POMetadata         *POMetaInput `json:"poMetadata,omitempty"`
	Save               *bool        `json:"save,omitempty"`
	OutputPath         string       `json:"outputPath,omitempty"`
}

func (r Request) includeSupplements() bool {
	return r.IncludeSupplements == nil || *r.IncludeSupplements
}

func (r Request) save() bool {
	return r.Save == nil || *r.Save
}

// ErrorKind classifies a failed run for callers mapping it to exit codes
// or HTTP statuses.
type ErrorKind string

const (
	ErrorInvalidInput ErrorKind = "invalid_input"
	ErrorMissingSheet ErrorKind = "missing_sheet"
	ErrorNotFound     ErrorKind = "not_found"
	ErrorIO           ErrorKind = "io"
)

// Payload holds the structured outputs of a run. Only the parts produced
// by the selected workflow are set.
type Payload struct {
	VTTH          []domain.VTTHRequirement     `json:"vtth,omitempty"`
	Chemicals     *domain.ChemicalResult       `json:"chemicals,omitempty"`
	Comparison    *domain.ComparisonResult     `json:"comparison,omitempty"`
	PurchaseOrder *domain.PurchaseOrder        `json:"purchaseOrder,omitempty"`
	Files         []domain.FileMetadata        `json:"files,omitempty"`
	History       []domain.PurchaseOrderRecord `json:"history,omitempty"`
	MasterData    string                       `json:"masterDataFile,omitempty"`
	Inventory     string                       `json:"inventoryFile,omitempty"`
}

// Result is the structured outcome of Execute. Failures never escape as
// errors; they are reported through Success, Message and Detail.
type Result struct {
	RunID     uuid.UUID `json:"runId"`
	Workflow  Workflow  `json:"workflow"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Detail    string    `json:"detail,omitempty"`
	ErrorKind ErrorKind `json:"errorKind,omitempty"`
	Text      string    `json:"text,omitempty"`
	Payload   *Payload  `json:"payload,omitempty"`

	// PO is the rendered purchase-order workbook for PO-producing workflows.
	PO           []byte `json:"-"`
	FileName     string `json:"fileName,omitempty"`
	SavedPath    string `json:"savedPath,omitempty"`
	UsedTemplate bool   `json:"usedTemplate,omitempty"`
}
