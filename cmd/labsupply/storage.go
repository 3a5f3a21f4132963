package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/autopo-lab/internal/storage"
	"github.com/andresuchdata/autopo-lab/internal/syncer"
)

func pullCommand() *cli.Command {
	return &cli.Command{
		Name:  "pull",
		Usage: "Copy master data, inventory and purchase orders into a local directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dest",
				Usage:   "Local directory to copy into",
				Value:   "./data/mirror",
				EnvVars: []string{"PULL_DEST_DIR"},
			},
		},
		Action: runPull,
	}
}

func runPull(c *cli.Context) error {
	cfg := loadConfig(c)

	src, err := openStore(c.Context, cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitIO)
	}
	dst, err := storage.NewLocalStore(c.String("dest"))
	if err != nil {
		return cli.Exit(err.Error(), exitIO)
	}

	copied, err := storage.Mirror(c.Context, src, dst, storage.MirrorOptions{
		Folders: []string{
			cfg.Paths.MasterDataFolder,
			cfg.Paths.InventoryFolder,
			cfg.Paths.POFolder,
			cfg.Paths.TemplateFolder,
		},
		Extensions: []string{".xlsx", ".csv"},
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("pull failed: %v", err), exitIO)
	}

	for _, p := range copied {
		fmt.Fprintln(c.App.Writer, p)
	}
	fmt.Fprintf(c.App.Writer, "Copied %d files to %s\n", len(copied), c.String("dest"))
	return nil
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Watch the data folders and print change events as JSON lines",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Polling interval; defaults to SYNC_INTERVAL_SECONDS",
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Poll a single time and exit",
			},
		},
		Action: runSync,
	}
}

func runSync(c *cli.Context) error {
	cfg := loadConfig(c)

	store, err := openStore(c.Context, cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitIO)
	}

	strategy := syncer.NewPollingStrategy(store.Backend(),
		cfg.Paths.MasterDataFolder,
		cfg.Paths.InventoryFolder,
		cfg.Paths.POFolder,
	)
	enc := json.NewEncoder(c.App.Writer)

	if c.Bool("once") {
		events, _, err := strategy.Changes(c.Context, syncer.Cursor{})
		if err != nil {
			return cli.Exit(fmt.Sprintf("sync failed: %v", err), exitIO)
		}
		for _, ev := range events {
			if err := enc.Encode(ev); err != nil {
				return err
			}
		}
		return nil
	}

	interval := c.Duration("interval")
	if interval <= 0 {
		interval = time.Duration(cfg.Sync.IntervalSeconds) * time.Second
	}
	if interval <= 0 {
		return cli.Exit("sync interval must be positive", exitInvalidInput)
	}

	for ev := range syncer.Watch(c.Context, strategy, interval, syncer.Cursor{}) {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	return nil
}
