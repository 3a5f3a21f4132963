package main

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/autopo-lab/internal/migrations"
	"github.com/andresuchdata/autopo-lab/internal/repository/postgres"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string; defaults to the DB_* settings",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the purchase order history schema",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations",
				Flags: []cli.Flag{newDBURLFlag()},
				Action: func(c *cli.Context) error {
					return withDB(c, migrations.Up)
				},
			},
			{
				Name:  "status",
				Usage: "Print migration status",
				Flags: []cli.Flag{newDBURLFlag()},
				Action: func(c *cli.Context) error {
					return withDB(c, migrations.Status)
				},
			},
		},
	}
}

func withDB(c *cli.Context, fn func(*sql.DB) error) error {
	dsn := c.String("db-url")
	if dsn == "" {
		dsn = postgres.DSN(loadConfig(c).Database)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Test the connection
	if err := db.PingContext(c.Context); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return fn(db)
}
