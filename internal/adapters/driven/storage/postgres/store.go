// Package postgres provides a catalog store backed by PostgreSQL, for
// deployments where the query layer reads a shared database.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
)

// DefaultMaxConns bounds the pool. Reloads are sequential per store, so a
// handful of connections is plenty.
const DefaultMaxConns = 4

const schema = `
CREATE TABLE IF NOT EXISTS category (
    id          TEXT PRIMARY KEY,
    category    TEXT NOT NULL DEFAULT '',
    subcategory TEXT NOT NULL DEFAULT '',
    UNIQUE (category, subcategory)
);

CREATE TABLE IF NOT EXISTS product (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    store       TEXT NOT NULL,
    price_unit  NUMERIC(12, 4),
    price_kg    NUMERIC(12, 4),
    price_l     NUMERIC(12, 4),
    price_item  NUMERIC(12, 4),
    image       TEXT NOT NULL DEFAULT '',
    product_url TEXT NOT NULL DEFAULT '',
    UNIQUE (store, title)
);

CREATE INDEX IF NOT EXISTS idx_product_store ON product(store);

CREATE TABLE IF NOT EXISTS product_category (
    product_id  TEXT NOT NULL REFERENCES product(id) ON DELETE CASCADE,
    category_id TEXT NOT NULL REFERENCES category(id),
    PRIMARY KEY (product_id, category_id)
);

CREATE INDEX IF NOT EXISTS idx_product_category_category ON product_category(category_id);
`

// Ensure Store implements the interface.
var _ driven.CatalogStore = (*Store)(nil)

// Store is the PostgreSQL catalog store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to dsn and ensures the schema exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is empty", domain.ErrInvalidInput)
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}
	if cfg.MaxConns <= 0 || cfg.MaxConns > DefaultMaxConns {
		cfg.MaxConns = DefaultMaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Replace swaps one store's products and links in a single transaction.
func (s *Store) Replace(ctx context.Context, store string, snap domain.CatalogSnapshot) (*domain.ReloadReport, error) {
	for _, p := range snap.Products {
		if p.Store != store {
			return nil, fmt.Errorf("%w: product %q belongs to %q, not %q", domain.ErrInvalidInput, p.Title, p.Store, store)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	report := &domain.ReloadReport{Store: store}

	if _, err := tx.Exec(ctx, `
		DELETE FROM product_category
		WHERE product_id IN (SELECT id FROM product WHERE store = $1)
	`, store); err != nil {
		return nil, fmt.Errorf("deleting links: %w", err)
	}
	tag, err := tx.Exec(ctx, "DELETE FROM product WHERE store = $1", store)
	if err != nil {
		return nil, fmt.Errorf("deleting products: %w", err)
	}
	report.ProductsRemoved = int(tag.RowsAffected())

	products := &pgx.Batch{}
	for _, p := range snap.Products {
		products.Queue(`
			INSERT INTO product (id, title, store, price_unit, price_kg, price_l, price_item, image, product_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			p.ID, p.Title, p.Store, p.PriceUnit, p.PriceKg, p.PriceL, p.PriceItem, p.Image, p.ProductURL)
	}
	if report.ProductsInserted, err = sendBatch(ctx, tx, products); err != nil {
		return nil, fmt.Errorf("inserting products: %w", err)
	}

	categories := &pgx.Batch{}
	for _, c := range snap.Categories {
		categories.Queue(`
			INSERT INTO category (id, category, subcategory) VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`,
			c.ID, c.Category, c.Subcategory)
	}
	if report.CategoriesCreated, err = sendBatch(ctx, tx, categories); err != nil {
		return nil, fmt.Errorf("upserting categories: %w", err)
	}

	links := &pgx.Batch{}
	for _, l := range snap.Links {
		links.Queue(`
			INSERT INTO product_category (product_id, category_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			l.ProductID, l.CategoryID)
	}
	if report.LinksCreated, err = sendBatch(ctx, tx, links); err != nil {
		return nil, fmt.Errorf("inserting links: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return report, nil
}

// sendBatch runs b and returns the total rows affected.
func sendBatch(ctx context.Context, tx pgx.Tx, b *pgx.Batch) (int, error) {
	if b.Len() == 0 {
		return 0, nil
	}
	br := tx.SendBatch(ctx, b)
	total := 0
	for i := 0; i < b.Len(); i++ {
		tag, err := br.Exec()
		if err != nil {
			return total, errors.Join(err, br.Close())
		}
		total += int(tag.RowsAffected())
	}
	return total, br.Close()
}

// Products returns a store's products ordered by title.
func (s *Store) Products(ctx context.Context, store string) ([]domain.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, store, price_unit, price_kg, price_l, price_item, image, product_url
		FROM product WHERE store = $1 ORDER BY title, id
	`, store)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Store,
			&p.PriceUnit, &p.PriceKg, &p.PriceL, &p.PriceItem, &p.Image, &p.ProductURL); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Categories returns every category.
func (s *Store) Categories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, category, subcategory FROM category ORDER BY category, subcategory
	`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Category, error) {
		var c domain.Category
		err := row.Scan(&c.ID, &c.Category, &c.Subcategory)
		return c, err
	})
}

// Links returns the links of a store's products.
func (s *Store) Links(ctx context.Context, store string) ([]domain.ProductCategoryLink, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pc.product_id, pc.category_id
		FROM product_category pc JOIN product p ON p.id = pc.product_id
		WHERE p.store = $1
		ORDER BY pc.product_id, pc.category_id
	`, store)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ProductCategoryLink, error) {
		var l domain.ProductCategoryLink
		err := row.Scan(&l.ProductID, &l.CategoryID)
		return l, err
	})
}

// Summaries returns product and linked category counts per store.
func (s *Store) Summaries(ctx context.Context) ([]domain.StoreSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.store, COUNT(DISTINCT p.id), COUNT(DISTINCT pc.category_id)
		FROM product p LEFT JOIN product_category pc ON pc.product_id = p.id
		GROUP BY p.store ORDER BY p.store
	`)
	if err != nil {
		return nil, fmt.Errorf("querying summaries: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.StoreSummary, error) {
		var sum domain.StoreSummary
		err := row.Scan(&sum.Store, &sum.Products, &sum.Categories)
		return sum, err
	})
}
