package postgres

import (
	"testing"

	"github.com/andresuchdata/autopo-lab/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "lab",
		Password: "secret",
		DBName:   "autopo_lab",
		SSLMode:  "disable",
	}

	want := "host=db port=5432 user=lab password=secret dbname=autopo_lab sslmode=disable"
	if got := DSN(cfg); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
