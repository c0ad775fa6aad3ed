package postgres

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS pharmacies (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT,
		phone TEXT,
		email TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS pharmacy_staff (
		id UUID PRIMARY KEY,
		pharmacy_id UUID NOT NULL REFERENCES pharmacies(id) ON DELETE CASCADE,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('admin', 'staff')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (pharmacy_id, email)
	);`,
	`CREATE TABLE IF NOT EXISTS medicines (
		id UUID PRIMARY KEY,
		pharmacy_id UUID NOT NULL REFERENCES pharmacies(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		category TEXT,
		description TEXT,
		buying_price NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (buying_price >= 0),
		selling_price NUMERIC(12,2) NOT NULL CHECK (selling_price >= 0),
		stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
		low_stock_threshold INTEGER NOT NULL DEFAULT 10 CHECK (low_stock_threshold >= 0),
		expiry_date DATE,
		created_by UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_medicines_pharmacy ON medicines (pharmacy_id, name);`,
	`CREATE TABLE IF NOT EXISTS receipts (
		id UUID PRIMARY KEY,
		pharmacy_id UUID NOT NULL REFERENCES pharmacies(id),
		staff_id UUID NOT NULL,
		customer_name TEXT,
		payment_method TEXT NOT NULL CHECK (payment_method IN ('cash', 'mobile-wallet', 'debt', 'card')),
		total_amount NUMERIC(12,2) NOT NULL CHECK (total_amount >= 0),
		request_token TEXT,
		request_hash TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		debt_paid_at TIMESTAMPTZ,
		debt_paid_by UUID
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_receipts_request_token
		ON receipts (pharmacy_id, request_token) WHERE request_token IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_receipts_pharmacy_created ON receipts (pharmacy_id, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS receipt_items (
		id UUID PRIMARY KEY,
		receipt_id UUID NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
		medicine_id UUID NOT NULL REFERENCES medicines(id) ON DELETE RESTRICT,
		medicine_name TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		buying_price NUMERIC(12,2) NOT NULL,
		selling_price NUMERIC(12,2) NOT NULL,
		profit NUMERIC(12,2) NOT NULL,
		total NUMERIC(12,2) NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_receipt_items_receipt ON receipt_items (receipt_id);`,
	`CREATE TABLE IF NOT EXISTS admin_debts (
		id UUID PRIMARY KEY,
		person_name TEXT NOT NULL,
		phone_number TEXT,
		amount NUMERIC(12,2) NOT NULL CHECK (amount > 0),
		expected_payment_date DATE,
		notes TEXT,
		is_paid BOOLEAN NOT NULL DEFAULT FALSE,
		paid_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		pharmacy_id UUID NOT NULL REFERENCES pharmacies(id) ON DELETE CASCADE,
		medicine_id UUID NOT NULL REFERENCES medicines(id) ON DELETE CASCADE,
		type TEXT NOT NULL CHECK (type IN ('expiring', 'low_stock')),
		message TEXT NOT NULL,
		days_remaining INTEGER,
		is_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		confirmed_by UUID,
		confirmed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (medicine_id, type)
	);`,
}

// Migrate creates the schema. Every statement is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	log.Info().Int("statements", len(schema)).Msg("database schema up to date")
	return nil
}
