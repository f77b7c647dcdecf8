// Command seed populates a development database with an org, vehicles,
// drivers and a pool of waybill blanks.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type config struct {
	dsn        string
	orgID      string
	vehicles   int
	drivers    int
	blanks     int
	series     string
	department string
}

func main() {
	cfg := parseFlags()
	logger := log.New(os.Stdout, "seed: ", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.dsn)
	if err != nil {
		logger.Fatalf("db open: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping: %v", err)
	}

	ctx := context.Background()
	if err := seedOrg(ctx, db, cfg); err != nil {
		logger.Fatalf("seed org: %v", err)
	}
	if err := seedVehicles(ctx, db, cfg); err != nil {
		logger.Fatalf("seed vehicles: %v", err)
	}
	if err := seedDrivers(ctx, db, cfg); err != nil {
		logger.Fatalf("seed drivers: %v", err)
	}
	if err := seedBlanks(ctx, db, cfg); err != nil {
		logger.Fatalf("seed blanks: %v", err)
	}
	logger.Printf("seeded org %s: %d vehicles, %d drivers, %d blanks", cfg.orgID, cfg.vehicles, cfg.drivers, cfg.blanks)
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.dsn, "dsn", os.Getenv("DATABASE_URL"), "postgres dsn (defaults to DATABASE_URL)")
	flag.StringVar(&cfg.orgID, "org", "org-demo", "org id to seed")
	flag.IntVar(&cfg.vehicles, "vehicles", 5, "vehicles to create")
	flag.IntVar(&cfg.drivers, "drivers", 5, "drivers to create")
	flag.IntVar(&cfg.blanks, "blanks", 100, "blanks to create")
	flag.StringVar(&cfg.series, "series", "AB", "blank series")
	flag.StringVar(&cfg.department, "department", "dep-1", "department id for drivers and blanks")
	flag.Parse()
	if cfg.dsn == "" {
		log.Fatal("dsn is required (flag -dsn or DATABASE_URL)")
	}
	return cfg
}

func seedOrg(ctx context.Context, db *sql.DB, cfg config) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO org_settings (org_id, season_mode, summer_month, summer_day, winter_month, winter_day)
VALUES ($1, 'recurring', 4, 1, 11, 1)
ON CONFLICT (org_id) DO NOTHING`, cfg.orgID)
	return err
}

func seedVehicles(ctx context.Context, db *sql.DB, cfg config) error {
	now := time.Now().UTC()
	for i := 1; i <= cfg.vehicles; i++ {
		id := fmt.Sprintf("veh-%s-%03d", cfg.orgID, i)
		plate := fmt.Sprintf("A%03dBC", i)
		_, err := db.ExecContext(ctx, `
INSERT INTO vehicles (id, org_id, plate_number, model, department_id,
	summer_rate, winter_rate, city_increase, warming_increase, mountain_increase,
	tank_capacity, active, created_at, updated_at)
VALUES ($1, $2, $3, 'GAZ-3302', $4, 12.5, 14.0, 0.10, 0.05, 0.15, 80, true, $5, $5)
ON CONFLICT (id) DO NOTHING`, id, cfg.orgID, plate, cfg.department, now)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedDrivers(ctx context.Context, db *sql.DB, cfg config) error {
	now := time.Now().UTC()
	for i := 1; i <= cfg.drivers; i++ {
		id := fmt.Sprintf("drv-%s-%03d", cfg.orgID, i)
		name := fmt.Sprintf("Driver %03d", i)
		code := fmt.Sprintf("P%04d", i)
		_, err := db.ExecContext(ctx, `
INSERT INTO drivers (id, org_id, full_name, personnel_code, department_id, license_number, active, created_at)
VALUES ($1, $2, $3, $4, $5, '', true, $6)
ON CONFLICT (id) DO NOTHING`, id, cfg.orgID, name, code, cfg.department, now)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedBlanks(ctx context.Context, db *sql.DB, cfg config) error {
	now := time.Now().UTC()
	for i := 1; i <= cfg.blanks; i++ {
		id := fmt.Sprintf("blank-%s-%s-%05d", cfg.orgID, cfg.series, i)
		_, err := db.ExecContext(ctx, `
INSERT INTO waybill_blanks (id, org_id, series, number, driver_id, department_id, status, created_at)
VALUES ($1, $2, $3, $4, NULL, $5, 'available', $6)
ON CONFLICT (id) DO NOTHING`, id, cfg.orgID, cfg.series, i, cfg.department, now)
		if err != nil {
			return err
		}
	}
	return nil
}
