package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"
)

// list columns (tags, features, aliases) hold JSON arrays
const createProductsTable = `CREATE TABLE IF NOT EXISTS products (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	price          REAL NOT NULL DEFAULT 0,
	original_price REAL NOT NULL DEFAULT 0,
	discount       INTEGER NOT NULL DEFAULT 0,
	tags           TEXT,
	features       TEXT,
	release_date   TEXT,
	rating         REAL NOT NULL DEFAULT 0,
	aliases        TEXT,
	pinyin         TEXT,
	position       INTEGER NOT NULL DEFAULT 0
)`

const selectProducts = `SELECT id, title, price, original_price, discount, tags, features,
	release_date, rating, aliases, pinyin FROM products ORDER BY position, rowid`

// LoadSQLite reads the products table of a SQLite database.
// Row order follows the position column, which keeps the curated order.
func LoadSQLite(ctx context.Context, path string) ([]Product, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, selectProducts)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var (
			p                               Product
			tags, features, aliases, pinyin sql.NullString
			releaseDate                     sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Price, &p.OriginalPrice, &p.Discount,
			&tags, &features, &releaseDate, &p.Rating, &aliases, &pinyin); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.ReleaseDate = releaseDate.String
		p.Pinyin = pinyin.String
		p.Tags = decodeList(p.ID, "tags", tags)
		p.Features = decodeList(p.ID, "features", features)
		p.Aliases = decodeList(p.ID, "aliases", aliases)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// SaveSQLite writes products into the products table, replacing rows with the
// same id.
func SaveSQLite(ctx context.Context, path string, products []Product) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createProductsTable); err != nil {
		return fmt.Errorf("create products table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO products
		(id, title, price, original_price, discount, tags, features, release_date, rating, aliases, pinyin, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range products {
		if _, err := stmt.ExecContext(ctx, p.ID, p.Title, p.Price, p.OriginalPrice, p.Discount,
			encodeList(p.Tags), encodeList(p.Features), p.ReleaseDate, p.Rating,
			encodeList(p.Aliases), p.Pinyin, i); err != nil {
			return fmt.Errorf("insert product %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func decodeList(id, column string, raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw.String), &out); err != nil {
		log.Warnf("Product %s: bad %s column %q: %v", id, column, raw.String, err)
		return nil
	}
	return out
}

func encodeList(values []string) sql.NullString {
	if len(values) == 0 {
		return sql.NullString{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(data), Valid: true}
}
