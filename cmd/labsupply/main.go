package main

import (
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/autopo-lab/internal/config"
	"github.com/andresuchdata/autopo-lab/internal/pipeline"
	"github.com/andresuchdata/autopo-lab/pkg/logger"
)

func main() {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not load .env file: %v", err)
	}

	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "labsupply",
		Usage:  "Calculate lab supply requirements and build purchase orders",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "storage",
				Usage:   "Storage backend (local, s3, minio, gdrive); defaults to STORAGE_BACKEND",
				Aliases: []string{"s"},
			},
			&cli.StringFlag{
				Name:  "root",
				Usage: "Root directory for the local storage backend; defaults to STORAGE_LOCAL_ROOT",
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			workflowCommand("vtth", "Calculate consumable (VTTH) requirements", pipeline.WorkflowCalculateVTTH),
			workflowCommand("chemicals", "Calculate chemical requirements with QC/CALIB overhead", pipeline.WorkflowCalculateChemicals),
			workflowCommand("compare", "Compare requirements with current inventory", pipeline.WorkflowCompare),
			workflowCommand("po", "Generate a purchase order", pipeline.WorkflowGeneratePO),
			workflowCommand("full", "Run every step and generate a purchase order", pipeline.WorkflowFullProcess),
			{
				Name:   "list",
				Usage:  "List stored purchase orders",
				Flags:  []cli.Flag{jsonFlag()},
				Action: runList,
			},
			pullCommand(),
			syncCommand(),
			migrateCommand(),
		},
	}
}

// loadConfig applies the global storage overrides on top of the
// environment configuration.
func loadConfig(c *cli.Context) *config.Config {
	cfg := *config.Load()
	if backend := c.String("storage"); backend != "" {
		cfg.Storage.Backend = backend
	}
	if root := c.String("root"); root != "" {
		cfg.Storage.LocalRoot = root
	}
	return &cfg
}
