// Package inventory persists Confluence scan results in a DuckDB file
// so large instances can be inventoried and queried without holding
// everything in memory.
package inventory

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"sync"

	"github.com/marcboeker/go-duckdb"

	"github.com/gliffy-migrator/backend/internal/confluence"
)

// Diagram is one Gliffy diagram occurrence tied to its page.
type Diagram struct {
	PageID       string `json:"page_id"`
	Name         string `json:"name"`
	AttachmentID string `json:"attachment_id"`
	Outcome      string `json:"outcome"`
}

// Summary aggregates a finished scan.
type Summary struct {
	Pages           int            `json:"pages"`
	PagesWithGliffy int            `json:"pages_with_gliffy"`
	Diagrams        int            `json:"diagrams"`
	BySpace         map[string]int `json:"by_space"`
	Outcomes        map[string]int `json:"outcomes"`
}

// Store is a DuckDB-backed scan inventory. Writes are batched through
// the native Appender; call Finalize before querying.
type Store struct {
	db     *sql.DB
	dbPath string

	mu         sync.Mutex
	pageBatch  []confluence.PageInfo
	diagBatch  []Diagram
	pageCount  int
	batchLimit int
}

// NewStore creates (or truncates) the inventory database at path.
func NewStore(dbPath string) (*Store, error) {
	// A stale file would make CREATE TABLE fail.
	os.Remove(dbPath)

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='512MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create duckdb connector: %w", err)
	}

	db := sql.OpenDB(connector)

	_, err = db.Exec(`
		CREATE TABLE pages (
			id            VARCHAR PRIMARY KEY,
			title         VARCHAR NOT NULL,
			space_key     VARCHAR NOT NULL,
			space_name    VARCHAR,
			status        VARCHAR,
			version       INTEGER,
			created_date  VARCHAR,
			created_by    VARCHAR,
			updated_date  VARCHAR,
			updated_by    VARCHAR,
			parent_id     VARCHAR,
			parent_title  VARCHAR,
			url           VARCHAR,
			gliffy_count  INTEGER
		)
	`)
	if err == nil {
		_, err = db.Exec(`
			CREATE TABLE diagrams (
				page_id       VARCHAR NOT NULL,
				name          VARCHAR NOT NULL,
				attachment_id VARCHAR,
				outcome       VARCHAR
			)
		`)
	}
	if err != nil {
		db.Close()
		os.Remove(dbPath)
		return nil, fmt.Errorf("create inventory schema: %w", err)
	}

	return &Store{
		db:         db,
		dbPath:     dbPath,
		batchLimit: 1000,
	}, nil
}

// OpenStore opens an existing inventory database read-only style, for
// serving summaries of a previous scan.
func OpenStore(dbPath string) (*Store, error) {
	connector, err := duckdb.NewConnector(dbPath, nil)
	if err != nil {
		return nil, fmt.Errorf("open duckdb connector: %w", err)
	}
	db := sql.OpenDB(connector)

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM pages").Scan(&count); err != nil {
		db.Close()
		return nil, fmt.Errorf("inventory schema missing: %w", err)
	}

	return &Store{db: db, dbPath: dbPath, pageCount: count, batchLimit: 1000}, nil
}

// AddPage queues a scanned page and its Gliffy diagrams for insertion.
func (s *Store) AddPage(info confluence.PageInfo, macros []confluence.GliffyMacro) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pageBatch = append(s.pageBatch, info)
	s.pageCount++
	for _, m := range macros {
		s.diagBatch = append(s.diagBatch, Diagram{
			PageID:       info.ID,
			Name:         m.Name,
			AttachmentID: m.AttachmentID(),
			Outcome:      "pending",
		})
	}

	if len(s.pageBatch) >= s.batchLimit {
		return s.flushLocked()
	}
	return nil
}

// flushLocked writes both batches through the Appender API.
func (s *Store) flushLocked() error {
	if len(s.pageBatch) == 0 && len(s.diagBatch) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("not a duckdb connection")
		}

		if len(s.pageBatch) > 0 {
			appender, err := duckdb.NewAppenderFromConn(dConn, "", "pages")
			if err != nil {
				return fmt.Errorf("pages appender: %w", err)
			}
			for _, p := range s.pageBatch {
				err := appender.AppendRow(
					p.ID, p.Title, p.SpaceKey, p.SpaceName, p.Status,
					int32(p.Version), p.CreatedDate, p.CreatedBy,
					p.UpdatedDate, p.UpdatedBy, p.ParentID, p.ParentTitle,
					p.URL, int32(p.GliffyCount),
				)
				if err != nil {
					appender.Close()
					return fmt.Errorf("append page %s: %w", p.ID, err)
				}
			}
			if err := appender.Close(); err != nil {
				return fmt.Errorf("flush pages: %w", err)
			}
		}

		if len(s.diagBatch) > 0 {
			appender, err := duckdb.NewAppenderFromConn(dConn, "", "diagrams")
			if err != nil {
				return fmt.Errorf("diagrams appender: %w", err)
			}
			for _, d := range s.diagBatch {
				if err := appender.AppendRow(d.PageID, d.Name, d.AttachmentID, d.Outcome); err != nil {
					appender.Close()
					return fmt.Errorf("append diagram %s/%s: %w", d.PageID, d.Name, err)
				}
			}
			if err := appender.Close(); err != nil {
				return fmt.Errorf("flush diagrams: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.pageBatch = s.pageBatch[:0]
	s.diagBatch = s.diagBatch[:0]
	return nil
}

// Finalize flushes pending rows and creates the query indexes.
func (s *Store) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flushLocked(); err != nil {
		return err
	}
	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_pages_space ON pages(space_key)"); err != nil {
		return fmt.Errorf("index pages: %w", err)
	}
	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_diag_page ON diagrams(page_id)"); err != nil {
		return fmt.Errorf("index diagrams: %w", err)
	}
	return nil
}

// RecordOutcome marks a diagram's conversion result (converted, failed,
// skipped).
func (s *Store) RecordOutcome(ctx context.Context, pageID, name, outcome string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE diagrams SET outcome = ? WHERE page_id = ? AND name = ?",
		outcome, pageID, name)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// Pages returns the scanned pages, Gliffy-bearing ones first.
func (s *Store) Pages(ctx context.Context) ([]confluence.PageInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, space_key, space_name, status, version,
		       created_date, created_by, updated_date, updated_by,
		       parent_id, parent_title, url, gliffy_count
		FROM pages
		ORDER BY gliffy_count DESC, space_key, title
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []confluence.PageInfo
	for rows.Next() {
		var p confluence.PageInfo
		err := rows.Scan(&p.ID, &p.Title, &p.SpaceKey, &p.SpaceName,
			&p.Status, &p.Version, &p.CreatedDate, &p.CreatedBy,
			&p.UpdatedDate, &p.UpdatedBy, &p.ParentID, &p.ParentTitle,
			&p.URL, &p.GliffyCount)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// Diagrams returns the diagram rows for one page, or all pages when
// pageID is empty.
func (s *Store) Diagrams(ctx context.Context, pageID string) ([]Diagram, error) {
	query := "SELECT page_id, name, attachment_id, outcome FROM diagrams"
	var args []interface{}
	if pageID != "" {
		query += " WHERE page_id = ?"
		args = append(args, pageID)
	}
	query += " ORDER BY page_id, name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var diagrams []Diagram
	for rows.Next() {
		var d Diagram
		if err := rows.Scan(&d.PageID, &d.Name, &d.AttachmentID, &d.Outcome); err != nil {
			return nil, err
		}
		diagrams = append(diagrams, d)
	}
	return diagrams, rows.Err()
}

// Summarize aggregates the inventory.
func (s *Store) Summarize(ctx context.Context) (*Summary, error) {
	sum := &Summary{
		BySpace:  make(map[string]int),
		Outcomes: make(map[string]int),
	}

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(*) FILTER (WHERE gliffy_count > 0) FROM pages").
		Scan(&sum.Pages, &sum.PagesWithGliffy)
	if err != nil {
		return nil, fmt.Errorf("page totals: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM diagrams").Scan(&sum.Diagrams); err != nil {
		return nil, fmt.Errorf("diagram total: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT space_key, SUM(gliffy_count) FROM pages GROUP BY space_key HAVING SUM(gliffy_count) > 0")
	if err != nil {
		return nil, fmt.Errorf("space breakdown: %w", err)
	}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			rows.Close()
			return nil, err
		}
		sum.BySpace[key] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		"SELECT outcome, COUNT(*) FROM diagrams GROUP BY outcome")
	if err != nil {
		return nil, fmt.Errorf("outcome breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		sum.Outcomes[outcome] = n
	}
	return sum, rows.Err()
}

// Len returns the number of pages recorded, including unflushed rows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageCount
}

// Close closes the database, keeping the file for later OpenStore.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
