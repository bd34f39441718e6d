package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/AlbertoRQ/Baratazo/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
)

// DatabaseFile is the catalog file name inside the data directory.
const DatabaseFile = "catalog.db"

// Store is the SQLite catalog store.
type Store struct {
	db   *sql.DB
	path string
}

// Ensure Store implements the interface.
var _ driven.CatalogStore = (*Store)(nil)

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.baratazo/data/catalog.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".baratazo", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Pragmas in the DSN apply to every pooled connection.
	db, err := sql.Open("sqlite", dbPath+
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_catalog.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Replace swaps the store's products and links in one transaction.
func (s *Store) Replace(ctx context.Context, store string, snap domain.CatalogSnapshot) (*domain.ReloadReport, error) {
	if err := checkSnapshot(store, snap); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	report := &domain.ReloadReport{Store: store}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM product_category
		WHERE product_id IN (SELECT id FROM product WHERE store = ?)
	`, store); err != nil {
		return nil, fmt.Errorf("deleting links: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM product WHERE store = ?", store)
	if err != nil {
		return nil, fmt.Errorf("deleting products: %w", err)
	}
	report.ProductsRemoved = affected(res)

	productStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO product (id, title, store, price_unit, price_kg, price_l, price_item, image, product_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing product insert: %w", err)
	}
	defer productStmt.Close()

	for _, p := range snap.Products {
		if _, err := productStmt.ExecContext(ctx, p.ID, p.Title, p.Store,
			p.PriceUnit, p.PriceKg, p.PriceL, p.PriceItem, p.Image, p.ProductURL); err != nil {
			return nil, fmt.Errorf("inserting product %q: %w", p.Title, err)
		}
		report.ProductsInserted++
	}

	categoryStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO category (id, category, subcategory) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing category insert: %w", err)
	}
	defer categoryStmt.Close()

	for _, c := range snap.Categories {
		res, err := categoryStmt.ExecContext(ctx, c.ID, c.Category, c.Subcategory)
		if err != nil {
			return nil, fmt.Errorf("upserting category %q > %q: %w", c.Category, c.Subcategory, err)
		}
		report.CategoriesCreated += affected(res)
	}

	linkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO product_category (product_id, category_id) VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing link insert: %w", err)
	}
	defer linkStmt.Close()

	for _, l := range snap.Links {
		res, err := linkStmt.ExecContext(ctx, l.ProductID, l.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("inserting link %s -> %s: %w", l.ProductID, l.CategoryID, err)
		}
		report.LinksCreated += affected(res)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return report, nil
}

// Products returns a store's products ordered by title.
func (s *Store) Products(ctx context.Context, store string) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, store, price_unit, price_kg, price_l, price_item, image, product_url
		FROM product WHERE store = ? ORDER BY title, id
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
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, subcategory FROM category ORDER BY category, subcategory
	`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Category, &c.Subcategory); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Links returns the links of a store's products.
func (s *Store) Links(ctx context.Context, store string) ([]domain.ProductCategoryLink, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pc.product_id, pc.category_id
		FROM product_category pc JOIN product p ON p.id = pc.product_id
		WHERE p.store = ?
		ORDER BY pc.product_id, pc.category_id
	`, store)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	defer rows.Close()

	var links []domain.ProductCategoryLink
	for rows.Next() {
		var l domain.ProductCategoryLink
		if err := rows.Scan(&l.ProductID, &l.CategoryID); err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// Summaries returns product and linked category counts per store.
func (s *Store) Summaries(ctx context.Context) ([]domain.StoreSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.store, COUNT(DISTINCT p.id), COUNT(DISTINCT pc.category_id)
		FROM product p LEFT JOIN product_category pc ON pc.product_id = p.id
		GROUP BY p.store ORDER BY p.store
	`)
	if err != nil {
		return nil, fmt.Errorf("querying summaries: %w", err)
	}
	defer rows.Close()

	var out []domain.StoreSummary
	for rows.Next() {
		var sum domain.StoreSummary
		if err := rows.Scan(&sum.Store, &sum.Products, &sum.Categories); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// checkSnapshot rejects products filed under another store.
func checkSnapshot(store string, snap domain.CatalogSnapshot) error {
	for _, p := range snap.Products {
		if p.Store != store {
			return fmt.Errorf("%w: product %q belongs to %q, not %q", domain.ErrInvalidInput, p.Title, p.Store, store)
		}
	}
	return nil
}

func affected(res sql.Result) int {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}
