package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ruralhealth/pharmacy-discovery/internal/adapters/database"
	"github.com/ruralhealth/pharmacy-discovery/internal/application/services"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/clients/postgres"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/observability"
	"github.com/ruralhealth/pharmacy-discovery/pkg/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS medicines (
	id           TEXT PRIMARY KEY,
	name         TEXT,
	generic_name TEXT,
	dosage       TEXT,
	price        NUMERIC(10,2),
	stock        INTEGER,
	category     TEXT,
	prescription BOOLEAN,
	description  TEXT,
	usage        TEXT,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS orders (
	id              TEXT PRIMARY KEY,
	pharmacy_id     TEXT NOT NULL,
	pharmacy_name   TEXT NOT NULL DEFAULT '',
	payment_method  TEXT NOT NULL,
	prescription_id TEXT,
	status          TEXT NOT NULL,
	full_name       TEXT NOT NULL,
	phone           TEXT NOT NULL,
	address         TEXT NOT NULL,
	city            TEXT NOT NULL,
	pincode         TEXT NOT NULL,
	subtotal        NUMERIC(12,2) NOT NULL,
	delivery_fee    NUMERIC(12,2) NOT NULL,
	tax             NUMERIC(12,2) NOT NULL,
	total           NUMERIC(12,2) NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS order_lines (
	order_id              TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	line_no               INTEGER NOT NULL,
	medicine_id           TEXT NOT NULL,
	medicine_name         TEXT NOT NULL,
	unit_price            NUMERIC(10,2) NOT NULL,
	quantity              INTEGER NOT NULL,
	prescription_required BOOLEAN NOT NULL,
	PRIMARY KEY (order_id, line_no)
);
`

// seedStock is the shelf count written for every seeded medicine
const seedStock = 100

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitLogger("pharmacy-seed", cfg.Logging.Env, cfg.Logging.Level)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	if _, err := pgClient.DB().ExecContext(ctx, schema); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE order_lines, orders, medicines`); err != nil {
			log.Fatal().Err(err).Msg("failed to reset tables")
		}
	}

	catalog := database.NewMedicineCatalogAdapter(pgClient)
	namespace := uuid.NewSHA1(uuid.NameSpaceURL, []byte("pharmacy-discovery/catalog"))

	seeded := 0
	for _, base := range services.BaseMedicines {
		id := uuid.NewSHA1(namespace, []byte(base.Name)).String()
		row := &entities.CatalogMedicine{
			ID:           &id,
			Name:         strPtr(base.Name),
			GenericName:  strPtr(base.GenericName),
			Dosage:       strPtr(base.Dosage),
			Price:        &base.BasePrice,
			Stock:        intPtr(seedStock),
			Category:     strPtr(base.Category),
			Prescription: boolPtr(base.Prescription),
			Description:  strPtr(base.Description),
		}
		if err := catalog.Upsert(ctx, row); err != nil {
			log.Error().Err(err).Str("medicine", base.Name).Msg("failed to seed medicine")
			continue
		}
		seeded++
	}

	log.Info().Int("seeded", seeded).Int("total", len(services.BaseMedicines)).Msg("catalog seeding complete")
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }
