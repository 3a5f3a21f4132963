package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/autopo-lab/internal/cache"
	"github.com/andresuchdata/autopo-lab/internal/config"
	"github.com/andresuchdata/autopo-lab/internal/pipeline"
	"github.com/andresuchdata/autopo-lab/internal/repository"
	"github.com/andresuchdata/autopo-lab/internal/repository/postgres"
	"github.com/andresuchdata/autopo-lab/internal/storage"
)

func jsonFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Print the structured result as JSON instead of text",
	}
}

func workflowCommand(name, usage string, workflow pipeline.Workflow) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:     "headcount",
				Aliases:  []string{"n"},
				Usage:    "Number of patients",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "package",
				Aliases:  []string{"p"},
				Usage:    "Service tier (gold, basic, silver)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "master",
				Usage: "Master data workbook path; defaults to the most recent file in the master data folder",
			},
			&cli.StringFlag{
				Name:  "inventory",
				Usage: "Inventory workbook or CSV path; defaults to the most recent file in the inventory folder",
			},
			&cli.BoolFlag{
				Name:  "no-supplements",
				Usage: "Leave out the fixed QC/CALIB supplements",
			},
			&cli.BoolFlag{
				Name:  "no-save",
				Usage: "Do not write the purchase order to storage",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Storage path for the purchase order",
			},
			&cli.StringFlag{
				Name:  "xlsx",
				Usage: "Also write the purchase order workbook to this local file",
			},
			&cli.StringFlag{Name: "po-number", Usage: "Purchase order number"},
			&cli.StringFlag{Name: "department", Usage: "Requesting department"},
			&cli.StringFlag{Name: "requested-by", Usage: "Requester name"},
			&cli.StringFlag{Name: "approved-by", Usage: "Approver name"},
			&cli.StringFlag{Name: "notes", Usage: "Purchase order notes"},
			jsonFlag(),
		},
		Action: func(c *cli.Context) error {
			return runWorkflow(c, requestFromFlags(c, workflow))
		},
	}
}

func requestFromFlags(c *cli.Context, workflow pipeline.Workflow) pipeline.Request {
	req := pipeline.Request{
		Workflow:       workflow,
		Headcount:      c.Int("headcount"),
		PackageType:    c.String("package"),
		MasterDataFile: c.String("master"),
		InventoryFile:  c.String("inventory"),
		OutputPath:     c.String("output"),
	}
	if c.Bool("no-supplements") {
		off := false
		req.IncludeSupplements = &off
	}
	if c.Bool("no-save") {
		off := false
		req.Save = &off
	}

	meta := pipeline.POMetaInput{
		PONumber:    c.String("po-number"),
		Department:  c.String("department"),
		RequestedBy: c.String("requested-by"),
		ApprovedBy:  c.String("approved-by"),
		Notes:       c.String("notes"),
	}
	if meta != (pipeline.POMetaInput{}) {
		req.POMetadata = &meta
	}
	return req
}

func runList(c *cli.Context) error {
	return runWorkflow(c, pipeline.Request{Workflow: pipeline.WorkflowListPO})
}

func runWorkflow(c *cli.Context, req pipeline.Request) error {
	cfg := loadConfig(c)

	orchestrator, cleanup, err := openOrchestrator(c.Context, cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitIO)
	}
	defer cleanup()

	res := orchestrator.Execute(c.Context, req)

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	} else if res.Success {
		fmt.Fprintln(c.App.Writer, res.Text)
	}

	if !res.Success {
		msg := res.Message
		if res.Detail != "" {
			msg = fmt.Sprintf("%s: %s", res.Message, res.Detail)
		}
		return cli.Exit(msg, exitCode(res.ErrorKind))
	}

	if dest := c.String("xlsx"); dest != "" && len(res.PO) > 0 {
		if err := os.WriteFile(dest, res.PO, 0o644); err != nil {
			return cli.Exit(fmt.Sprintf("failed to write %s: %v", dest, err), exitIO)
		}
	}
	return nil
}

const (
	exitIO           = 1
	exitInvalidInput = 2
	exitMissingSheet = 3
	exitNotFound     = 4
)

func exitCode(kind pipeline.ErrorKind) int {
	switch kind {
	case pipeline.ErrorInvalidInput:
		return exitInvalidInput
	case pipeline.ErrorMissingSheet:
		return exitMissingSheet
	case pipeline.ErrorNotFound:
		return exitNotFound
	default:
		return exitIO
	}
}

// openOrchestrator wires storage and, when enabled, the history database.
func openOrchestrator(ctx context.Context, cfg *config.Config) (*pipeline.Orchestrator, func(), error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	var repo repository.PurchaseOrderRepository
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		cleanup = func() { db.Close() }
		repo = postgres.NewPORepository(db)
	}

	orchestrator, err := pipeline.NewFromConfig(cfg, store, repo)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return orchestrator, cleanup, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*storage.CachedStore, error) {
	listings, err := cache.NewListingCache(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize listing cache: %w", err)
	}
	return storage.Open(ctx, cfg.Storage, listings)
}
