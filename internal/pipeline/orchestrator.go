// Package pipeline sequences the requirement, reconciliation and purchase
// order steps behind a single workflow entry point.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/autopo-lab/internal/config"
	"github.com/andresuchdata/autopo-lab/internal/domain"
	"github.com/andresuchdata/autopo-lab/internal/pipeline/purchase"
	"github.com/andresuchdata/autopo-lab/internal/pipeline/reconcile"
	"github.com/andresuchdata/autopo-lab/internal/pipeline/requirements"
	"github.com/andresuchdata/autopo-lab/internal/repository"
	"github.com/andresuchdata/autopo-lab/internal/rules"
	"github.com/andresuchdata/autopo-lab/internal/storage"
	"github.com/andresuchdata/autopo-lab/internal/workbook"
)

// Orchestrator runs workflows against a file store.
type Orchestrator struct {
	store      storage.FileStore
	repo       repository.PurchaseOrderRepository
	paths      config.PathsConfig
	calc       *requirements.Calculator
	reconciler *reconcile.Reconciler
	builder    *purchase.Builder
	newID      func() uuid.UUID
}

type Option func(*Orchestrator)

func WithPaths(paths config.PathsConfig) Option {
	return func(o *Orchestrator) {
		o.paths = paths
	}
}

func WithRules(r rules.Rules) Option {
	return func(o *Orchestrator) {
		o.calc = requirements.NewCalculator(r)
	}
}

func WithThreshold(threshold int) Option {
	return func(o *Orchestrator) {
		o.reconciler = reconcile.NewReconciler(reconcile.WithThreshold(threshold))
	}
}

func WithBuilder(b *purchase.Builder) Option {
	return func(o *Orchestrator) {
		o.builder = b
	}
}

// WithRepository records generated purchase orders. A nil repository
// disables history.
func WithRepository(repo repository.PurchaseOrderRepository) Option {
	return func(o *Orchestrator) {
		o.repo = repo
	}
}

func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(o *Orchestrator) {
		o.newID = newID
	}
}

func NewOrchestrator(store storage.FileStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		paths:      config.Defaults().Paths,
		calc:       requirements.NewCalculator(rules.Default()),
		reconciler: reconcile.NewReconciler(),
		builder:    purchase.NewBuilder(),
		newID:      uuid.New,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewFromConfig wires an orchestrator from application configuration.
func NewFromConfig(cfg *config.Config, store storage.FileStore, repo repository.PurchaseOrderRepository) (*Orchestrator, error) {
	r := rules.Default()
	if cfg.Workflow.RulesFile != "" {
		loaded, err := rules.Load(cfg.Workflow.RulesFile)
		if err != nil {
			return nil, err
		}
		r = loaded
	}

	return NewOrchestrator(store,
		WithPaths(cfg.Paths),
		WithRules(r),
		WithThreshold(cfg.Workflow.FuzzyThreshold),
		WithBuilder(purchase.NewBuilder(purchase.WithDefaults(cfg.Workflow.DefaultDepartment, cfg.Workflow.DefaultRequester))),
		WithRepository(repo),
	), nil
}

// Execute runs one workflow. Invalid parameters are rejected before any
// file is read.
func (o *Orchestrator) Execute(ctx context.Context, req Request) Result {
	res := Result{RunID: o.newID(), Workflow: req.Workflow}
	logger := log.With().Str("run_id", res.RunID.String()).Str("workflow", string(req.Workflow)).Logger()
	start := time.Now()

	err := o.run(ctx, req, &res, logger)
	if err != nil {
		res.Success = false
		res.ErrorKind = classify(err)
		res.Message = failureMessage(res.ErrorKind)
		res.Detail = err.Error()
		logger.Error().Err(err).Str("kind", string(res.ErrorKind)).Msg("workflow failed")
		return res
	}

	res.Success = true
	logger.Info().Dur("elapsed", time.Since(start)).Msg(res.Message)
	return res
}

func (o *Orchestrator) run(ctx context.Context, req Request, res *Result, logger zerolog.Logger) error {
	wf, err := ParseWorkflow(string(req.Workflow))
	if err != nil {
		return err
	}
	req.Workflow, res.Workflow = wf, wf

	if req.Workflow == WorkflowListPO {
		return o.listPO(ctx, res, logger)
	}

	tier, err := validate(req)
	if err != nil {
		return err
	}

	in, err := o.load(ctx, req)
	if err != nil {
		return err
	}
	res.Payload = &Payload{MasterData: in.masterPath, Inventory: in.inventoryPath}

	switch req.Workflow {
	case WorkflowCalculateVTTH:
		vtth, err := o.vtth(in, req.Headcount, tier)
		if err != nil {
			return err
		}
		res.Payload.VTTH = vtth
		res.Text = FormatVTTH(vtth, req.Headcount, tier)
		res.Message = fmt.Sprintf("Calculated %d VTTH items", len(vtth))

	case WorkflowCalculateChemicals:
		chem, err := o.chemicals(in, req.Headcount, tier, req.includeSupplements())
		if err != nil {
			return err
		}
		res.Payload.Chemicals = &chem
		res.Text = FormatChemicals(chem, req.Headcount, tier)
		res.Message = fmt.Sprintf("Calculated %d chemicals and %d supplements", len(chem.Chemicals), len(chem.Supplements))

	case WorkflowCompare:
		_, _, cmp, err := o.compare(in, req, tier)
		if err != nil {
			return err
		}
		res.Payload.Comparison = &cmp
		res.Text = FormatComparison(cmp)
		res.Message = fmt.Sprintf("Compared %d items with inventory", cmp.Summary.TotalItems)

	case WorkflowGeneratePO:
		_, _, cmp, err := o.compare(in, req, tier)
		if err != nil {
			return err
		}
		res.Payload.Comparison = &cmp
		if err := o.generatePO(ctx, req, cmp, res, logger); err != nil {
			return err
		}
		res.Text = FormatPurchaseOrder(*res.Payload.PurchaseOrder) + "\n\n---\n\n" + saveNote(res.SavedPath)

	case WorkflowFullProcess:
		vtth, chem, cmp, err := o.compare(in, req, tier)
		if err != nil {
			return err
		}
		res.Payload.VTTH = vtth
		res.Payload.Chemicals = &chem
		res.Payload.Comparison = &cmp
		if err := o.generatePO(ctx, req, cmp, res, logger); err != nil {
			return err
		}

		var b strings.Builder
		b.WriteString("# Step 1: VTTH Requirements\n\n")
		b.WriteString(FormatVTTH(vtth, req.Headcount, tier))
		b.WriteString("\n\n# Step 2: Chemical Requirements\n\n")
		b.WriteString(FormatChemicals(chem, req.Headcount, tier))
		b.WriteString("\n\n# Step 3: Inventory Comparison\n\n")
		b.WriteString(FormatComparison(cmp))
		b.WriteString("\n\n# Step 4: Purchase Order\n\n")
		b.WriteString(FormatPurchaseOrder(*res.Payload.PurchaseOrder))
		b.WriteString("\n\n---\n\n")
		b.WriteString(saveNote(res.SavedPath))
		res.Text = b.String()
	}

	if res.Message == "" {
		po := res.Payload.PurchaseOrder
		res.Message = fmt.Sprintf("Generated purchase order %s with %d lines", po.Meta.Number, len(po.Lines))
	}
	return nil
}

func validate(req Request) (domain.ServiceTier, error) {
	if req.Headcount <= 0 {
		return "", domain.NewInvalidInput("headcount", "must be a positive integer")
	}
	return domain.ParseServiceTier(req.PackageType)
}

type inputs struct {
	master        *workbook.Book
	inventory     *reconcile.Inventory
	masterPath    string
	inventoryPath string
}

// load resolves and fetches the master workbook, plus the inventory when
// the workflow reconciles. Both fetches run concurrently.
func (o *Orchestrator) load(ctx context.Context, req Request) (*inputs, error) {
	in := &inputs{}

	masterPath, err := storage.ResolvePath(ctx, o.store, req.MasterDataFile, o.paths.MasterDataFolder, o.paths.MasterDataPath())
	if err != nil {
		return nil, fmt.Errorf("resolve master data file: %w", err)
	}
	in.masterPath = masterPath

	if req.Workflow.needsInventory() {
		inventoryPath, err := storage.ResolvePath(ctx, o.store, req.InventoryFile, o.paths.InventoryFolder, o.paths.InventoryPath(),
			domain.MimeXLSX, domain.MimeCSV)
		if err != nil {
			return nil, fmt.Errorf("resolve inventory file: %w", err)
		}
		in.inventoryPath = inventoryPath
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := o.store.GetFileContent(gctx, in.masterPath)
		if err != nil {
			return fmt.Errorf("read master data %s: %w", in.masterPath, err)
		}
		book, err := workbook.Parse(data)
		if err != nil {
			return fmt.Errorf("parse master data %s: %w", in.masterPath, err)
		}
		in.master = book
		return nil
	})
	if in.inventoryPath != "" {
		g.Go(func() error {
			data, err := o.store.GetFileContent(gctx, in.inventoryPath)
			if err != nil {
				return fmt.Errorf("read inventory %s: %w", in.inventoryPath, err)
			}

			var book *workbook.Book
			if strings.EqualFold(path.Ext(in.inventoryPath), ".csv") {
				book, err = workbook.ParseCSV(data, reconcile.SheetInventory)
			} else {
				book, err = workbook.Parse(data)
			}
			if err != nil {
				return fmt.Errorf("parse inventory %s: %w", in.inventoryPath, err)
			}

			inv, err := reconcile.ParseInventory(book)
			if err != nil {
				return fmt.Errorf("inventory %s: %w", in.inventoryPath, err)
			}
			in.inventory = inv
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

func (o *Orchestrator) vtth(in *inputs, headcount int, tier domain.ServiceTier) ([]domain.VTTHRequirement, error) {
	items, err := requirements.ParseSupplies(in.master)
	if err != nil {
		return nil, err
	}
	return o.calc.VTTH(items, headcount, tier)
}

func (o *Orchestrator) chemicals(in *inputs, headcount int, tier domain.ServiceTier, includeSupplements bool) (domain.ChemicalResult, error) {
	items, err := requirements.ParseChemicals(in.master)
	if err != nil {
		return domain.ChemicalResult{}, err
	}
	lookup := requirements.ParseQcCalib(in.master, o.calc.Rules())
	return o.calc.Chemicals(items, lookup, headcount, tier, includeSupplements)
}

// compare computes both requirement families once and reconciles them.
func (o *Orchestrator) compare(in *inputs, req Request, tier domain.ServiceTier) ([]domain.VTTHRequirement, domain.ChemicalResult, domain.ComparisonResult, error) {
	vtth, err := o.vtth(in, req.Headcount, tier)
	if err != nil {
		return nil, domain.ChemicalResult{}, domain.ComparisonResult{}, err
	}
	chem, err := o.chemicals(in, req.Headcount, tier, req.includeSupplements())
	if err != nil {
		return nil, domain.ChemicalResult{}, domain.ComparisonResult{}, err
	}
	return vtth, chem, o.reconciler.Compare(vtth, chem, in.inventory), nil
}

func (o *Orchestrator) generatePO(ctx context.Context, req Request, cmp domain.ComparisonResult, res *Result, logger zerolog.Logger) error {
	po := o.builder.Build(cmp, req.POMetadata.toDomain())

	data, usedTemplate, err := purchase.Render(o.template(ctx, logger), po)
	if err != nil {
		return fmt.Errorf("render purchase order %s: %w", po.Meta.Number, err)
	}

	res.Payload.PurchaseOrder = &po
	res.PO = data
	res.FileName = purchase.FileName(po)
	res.UsedTemplate = usedTemplate

	if !req.save() {
		return nil
	}

	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath = o.paths.POPath(res.FileName)
	}
	meta, err := o.store.WriteFile(ctx, outputPath, data)
	if err != nil {
		return fmt.Errorf("save purchase order %s: %w", outputPath, err)
	}
	res.SavedPath = meta.Path
	logger.Info().Str("path", meta.Path).Int("bytes", len(data)).Msg("saved purchase order")

	if o.repo != nil {
		if _, err := o.repo.SavePurchaseOrder(ctx, res.RunID, po, meta.Path); err != nil {
			logger.Warn().Err(err).Str("po_number", po.Meta.Number).Msg("failed to record purchase order history")
		}
	}
	return nil
}

// template returns the configured PO template, or nil when it cannot be
// read.
func (o *Orchestrator) template(ctx context.Context, logger zerolog.Logger) []byte {
	data, err := o.store.GetFileContent(ctx, o.paths.TemplatePath())
	switch {
	case err == nil:
		return data
	case errors.Is(err, domain.ErrFileNotFound):
		logger.Debug().Str("path", o.paths.TemplatePath()).Msg("no PO template, using simple layout")
	default:
		logger.Warn().Err(err).Str("path", o.paths.TemplatePath()).Msg("failed to read PO template, using simple layout")
	}
	return nil
}

func (o *Orchestrator) listPO(ctx context.Context, res *Result, logger zerolog.Logger) error {
	files, err := o.store.Search(ctx, domain.SearchCriteria{Path: o.paths.POFolder, MimeType: domain.MimeXLSX})
	if err != nil {
		return fmt.Errorf("list purchase orders: %w", err)
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModifiedTime.After(files[j].ModifiedTime)
	})

	var history []domain.PurchaseOrderRecord
	if o.repo != nil {
		history, err = o.repo.ListPurchaseOrders(ctx, 0)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to load purchase order history")
			history = nil
		}
	}

	res.Payload = &Payload{Files: files, History: history}
	res.Text = FormatPOList(o.paths.POFolder, files, history)
	res.Message = fmt.Sprintf("Found %d purchase orders", len(files))
	return nil
}

func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return ErrorInvalidInput
	case errors.Is(err, domain.ErrMissingSheet):
		return ErrorMissingSheet
	case errors.Is(err, domain.ErrFileNotFound):
		return ErrorNotFound
	default:
		return ErrorIO
	}
}

func failureMessage(kind ErrorKind) string {
	switch kind {
	case ErrorInvalidInput:
		return "Invalid request"
	case ErrorMissingSheet:
		return "Workbook is missing a required sheet or column"
	case ErrorNotFound:
		return "Input file not found"
	default:
		return "Workflow failed"
	}
}

func saveNote(savedPath string) string {
	if savedPath == "" {
		return "Purchase order generated (not saved)"
	}
	return "Purchase order saved to: " + savedPath
}
