package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"

	"github.com/codedlook/storefront/internal/domain"
)

// SQLiteStore keeps every storage key as a JSON-encoded row in a single
// kv table. It is the embedded stand-in for browser local storage.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Products(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := s.getJSON(ctx, keyProducts, &products); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return products, nil
}

func (s *SQLiteStore) SaveProducts(ctx context.Context, products []domain.Product) error {
	return s.putJSON(ctx, keyProducts, products)
}

func (s *SQLiteStore) Tombstones(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.getJSON(ctx, keyDeleted, &ids); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ids, nil
}

func (s *SQLiteStore) SaveTombstones(ctx context.Context, ids []int64) error {
	return s.putJSON(ctx, keyDeleted, ids)
}

func (s *SQLiteStore) Wishlist(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.getJSON(ctx, keyWishlist, &ids); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ids, nil
}

func (s *SQLiteStore) SaveWishlist(ctx context.Context, ids []int64) error {
	return s.putJSON(ctx, keyWishlist, ids)
}

func (s *SQLiteStore) Cart(ctx context.Context) (map[int64]int, error) {
	items := make(map[int64]int)
	if err := s.getJSON(ctx, keyCart, &items); err != nil {
		if errors.Is(err, ErrNotFound) {
			return make(map[int64]int), nil
		}
		return nil, err
	}
	return items, nil
}

func (s *SQLiteStore) SaveCart(ctx context.Context, items map[int64]int) error {
	return s.putJSON(ctx, keyCart, items)
}

func (s *SQLiteStore) Orders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := s.getJSON(ctx, keyOrders, &orders); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return orders, nil
}

func (s *SQLiteStore) SaveOrders(ctx context.Context, orders []domain.Order) error {
	return s.putJSON(ctx, keyOrders, orders)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) getJSON(ctx context.Context, key string, out interface{}) error {
	var value string
	row := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = $1`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read key %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(value), out); err != nil {
		return fmt.Errorf("failed to decode key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) putJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode key %s: %w", key, err)
	}

	query := `
		INSERT INTO kv (key, value) VALUES ($1, $2)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := s.db.ExecContext(ctx, query, key, string(data)); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}
