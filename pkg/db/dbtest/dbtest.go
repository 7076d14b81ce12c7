// Package dbtest opens throwaway sqlite databases carrying the storefront schema.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Abhijit5011/Electromart/pkg/db"
)

// schema mirrors pkg/migrate/migrations using sqlite-compatible types.
var schema = []string{
	`CREATE TABLE profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'user',
		is_banned BOOLEAN NOT NULL DEFAULT false,
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT profiles_email_key UNIQUE (email)
	)`,
	`CREATE TABLE addresses (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		address_line TEXT NOT NULL,
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		pincode TEXT NOT NULL,
		is_default BOOLEAN NOT NULL DEFAULT false,
		created_at DATETIME
	)`,
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC NOT NULL,
		discount_price NUMERIC,
		category TEXT NOT NULL,
		specs TEXT NOT NULL DEFAULT '[]',
		images TEXT NOT NULL DEFAULT '[]',
		rating NUMERIC NOT NULL DEFAULT 0,
		stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
		delivery_charge NUMERIC NOT NULL DEFAULT 0,
		delivery_days INTEGER NOT NULL DEFAULT 3,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE cart_items (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 1),
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT cart_items_user_product_key UNIQUE (user_id, product_id)
	)`,
	`CREATE TABLE favorites (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		created_at DATETIME,
		CONSTRAINT favorites_user_product_key UNIQUE (user_id, product_id)
	)`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		total_amount NUMERIC NOT NULL,
		status TEXT NOT NULL DEFAULT 'Placed',
		address TEXT NOT NULL,
		items_summary TEXT NOT NULL,
		fulfillment_applied BOOLEAN NOT NULL DEFAULT false,
		idempotency_key TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT orders_user_idempotency_key UNIQUE (user_id, idempotency_key)
	)`,
	`CREATE TABLE order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		price_at_purchase NUMERIC NOT NULL
	)`,
	`CREATE TABLE reviews (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		rating INTEGER NOT NULL,
		comment TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE feedback (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		message TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Pending',
		created_at DATETIME
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
	`CREATE TABLE outbox_dlq (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		error_reason TEXT NOT NULL,
		error_message TEXT,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		failed_at DATETIME
	)`,
}

// Open returns a gorm handle on a fresh in-memory database private to the test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "_" + uuid.NewString()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=off", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// shared cache + single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return conn
}

// OpenClient wraps Open in the application's db.Client.
func OpenClient(t testing.TB) *db.Client {
	t.Helper()
	return db.NewFromGorm(Open(t))
}
