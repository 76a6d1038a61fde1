// Package seed inserts the rows the application expects on a fresh database:
// the admin login, the cost settings singleton and a default supplier.
package seed

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultSupplierName         = "Fornecedor padrão"
	defaultSupplierDefectRate   = 2.0
	defaultUnitInspectionCost   = 1.5
	defaultRejectedLotExpense   = 500.0
	defaultBusinessDaysPerMonth = 22
	defaultCostPerKm            = 0.0
	defaultCurrency             = "R$"
)

// Config carries the admin credentials; an empty email or password skips
// the admin row.
type Config struct {
	AdminEmail    string
	AdminPassword string
}

// Stats reports what a run inserted.
type Stats struct {
	Inserts int
	Seeded  []string
}

type step struct {
	name string
	run  func(ctx context.Context, tx *sql.Tx) (sql.Result, error)
}

// Run inserts missing rows in one transaction. Existing rows are never
// updated, so running it on every start is safe.
func Run(ctx context.Context, db *sql.DB, cfg Config) (Stats, error) {
	steps, err := plan(cfg)
	if err != nil {
		return Stats{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var stats Stats
	for _, s := range steps {
		res, err := s.run(ctx, tx)
		if err != nil {
			return Stats{}, fmt.Errorf("seed %s: %w", s.name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return Stats{}, fmt.Errorf("seed %s rows affected: %w", s.name, err)
		}
		if n > 0 {
			stats.Inserts += int(n)
			stats.Seeded = append(stats.Seeded, s.name)
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}
	return stats, nil
}

func plan(cfg Config) ([]step, error) {
	var steps []step

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		steps = append(steps, step{"admin", func(ctx context.Context, tx *sql.Tx) (sql.Result, error) {
			return tx.ExecContext(ctx, `
				INSERT INTO users (email, password_hash) VALUES (?, ?)
				ON CONFLICT(email) DO NOTHING
			`, cfg.AdminEmail, string(hash))
		}})
	}

	steps = append(steps,
		step{"cost_settings", func(ctx context.Context, tx *sql.Tx) (sql.Result, error) {
			return tx.ExecContext(ctx, `
				INSERT INTO cost_settings (id, unit_inspection_cost, rejected_lot_expense, business_days_per_month, cost_per_km, currency)
				VALUES (1, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO NOTHING
			`, defaultUnitInspectionCost, defaultRejectedLotExpense, defaultBusinessDaysPerMonth, defaultCostPerKm, defaultCurrency)
		}},
		step{"supplier", func(ctx context.Context, tx *sql.Tx) (sql.Result, error) {
			return tx.ExecContext(ctx, `
				INSERT INTO suppliers (name, historical_defect_rate, travel_distance_km, visits_per_month, notes, active)
				VALUES (?, ?, 0, 0, '', 1)
				ON CONFLICT(name) DO NOTHING
			`, defaultSupplierName, defaultSupplierDefectRate)
		}},
	)
	return steps, nil
}
