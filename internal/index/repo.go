package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/apperr"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/recipe"
)

// RecipeRow represents a row in the recipes table.
type RecipeRow struct {
	Slug              string
	Path              string
	Title             string
	Description       string
	Category          string
	Difficulty        string
	KubernetesVersion string
	TimeToComplete    string
	Author            string
	PublishDate       string
	Tags              []string
	Checksum          string
	UpdatedAt         time.Time
}

// Filter narrows a catalog listing.
type Filter struct {
	Category   string
	Difficulty string
	Tag        string
	Sort       string // updated_at (default), title, slug, publish_date
	Limit      int
	Offset     int
}

// SearchResult represents one search hit.
type SearchResult struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Facet is a value with its recipe count, for category and tag listings.
type Facet struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// GraphNode is a recipe in the relation graph.
type GraphNode struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	Category string `json:"category,omitempty"`
}

// GraphLink is a directed relatedRecipes edge.
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

const recipeColumns = `slug, path, title, description, category, difficulty,
	kubernetes_version, time_to_complete, author, publish_date, tags, checksum, updated_at`

// UpsertRecipe inserts or replaces a recipe, its FTS entry, and its
// relatedRecipes edges within a transaction.
func (db *DB) UpsertRecipe(r RecipeRow, body string, related []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(r.Tags)

	_, err = tx.Exec(`
		INSERT INTO recipes (slug, path, title, description, category, difficulty,
			kubernetes_version, time_to_complete, author, publish_date, tags,
			checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			path               = excluded.path,
			title              = excluded.title,
			description        = excluded.description,
			category           = excluded.category,
			difficulty         = excluded.difficulty,
			kubernetes_version = excluded.kubernetes_version,
			time_to_complete   = excluded.time_to_complete,
			author             = excluded.author,
			publish_date       = excluded.publish_date,
			tags               = excluded.tags,
			checksum           = excluded.checksum,
			body               = excluded.body,
			updated_at         = excluded.updated_at
	`, r.Slug, r.Path, r.Title, r.Description, r.Category, r.Difficulty,
		r.KubernetesVersion, r.TimeToComplete, r.Author, r.PublishDate,
		string(tagsJSON), r.Checksum, body, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert recipe: %w", err)
	}

	if err := ftsUpsert(tx, r.Slug, r.Title, r.Description, body, r.Tags); err != nil {
		return err
	}

	// Replace relations: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM relations WHERE source = ?`, r.Slug)
	if len(related) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO relations (source, target) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare relation insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range related {
			if _, err := stmt.Exec(r.Slug, target); err != nil {
				return fmt.Errorf("index: insert relation: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteRecipe removes a recipe, its FTS entry, and its outgoing relations.
func (db *DB) DeleteRecipe(slug string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, slug)
	_, _ = tx.Exec(`DELETE FROM relations WHERE source = ?`, slug)
	_, _ = tx.Exec(`DELETE FROM recipes WHERE slug = ?`, slug)

	return tx.Commit()
}

// GetRecipe returns the indexed row for a slug.
func (db *DB) GetRecipe(slug string) (*RecipeRow, error) {
	row := db.conn.QueryRow(`SELECT `+recipeColumns+` FROM recipes WHERE slug = ?`, slug)
	r, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("index: get recipe: %w", err)
	}
	return r, nil
}

// GetChecksum returns the stored checksum for a path, or empty string if
// the path is not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM recipes WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// ListRecipes returns a filtered, paginated page of recipes plus the total
// count matching the filter.
func (db *DB) ListRecipes(f Filter) ([]RecipeRow, int, error) {
	where := ` WHERE 1=1`
	var args []any
	if f.Category != "" {
		where += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.Difficulty != "" {
		where += ` AND difficulty = ?`
		args = append(args, f.Difficulty)
	}
	if f.Tag != "" {
		// Tags are stored as a JSON array of strings.
		where += ` AND tags LIKE ?`
		args = append(args, `%"`+f.Tag+`"%`)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM recipes`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count recipes: %w", err)
	}

	order := ` ORDER BY updated_at DESC`
	switch f.Sort {
	case "title":
		order = ` ORDER BY title COLLATE NOCASE ASC`
	case "slug":
		order = ` ORDER BY slug ASC`
	case "publish_date":
		order = ` ORDER BY publish_date DESC`
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := db.conn.Query(`SELECT `+recipeColumns+` FROM recipes`+where+order+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list recipes: %w", err)
	}
	defer rows.Close()

	var out []RecipeRow
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	return out, total, rows.Err()
}

// Categories returns distinct categories with recipe counts.
func (db *DB) Categories() ([]Facet, error) {
	rows, err := db.conn.Query(`
		SELECT category, count(*) FROM recipes
		WHERE category != ''
		GROUP BY category
		ORDER BY count(*) DESC, category ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("index: categories: %w", err)
	}
	defer rows.Close()

	var out []Facet
	for rows.Next() {
		var f Facet
		if err := rows.Scan(&f.Value, &f.Count); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// TagFacets returns every tag with its recipe count. Tags live in a JSON
// column, so aggregation happens in Go rather than SQL.
func (db *DB) TagFacets() ([]Facet, error) {
	rows, err := db.conn.Query(`SELECT tags FROM recipes`)
	if err != nil {
		return nil, fmt.Errorf("index: tag facets: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			continue
		}
		for _, t := range tags {
			counts[t]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Facet, 0, len(counts))
	for v, c := range counts {
		out = append(out, Facet{Value: v, Count: c})
	}
	sortFacets(out)
	return out, nil
}

// Related returns the outgoing relatedRecipes targets of a slug.
func (db *DB) Related(slug string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT target FROM relations WHERE source = ? ORDER BY target`, slug)
	if err != nil {
		return nil, fmt.Errorf("index: related: %w", err)
	}
	return scanStrings(rows)
}

// Backlinks returns all slugs whose relatedRecipes reference the given slug.
// Relations may reference either the full slug or its base name.
func (db *DB) Backlinks(slug string) ([]string, error) {
	rows, err := db.conn.Query(
		`SELECT source FROM relations WHERE target IN (?, ?) ORDER BY source`,
		slug, recipe.BaseSlug(slug))
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	return scanStrings(rows)
}

// Graph returns every recipe as a node and every relation as a link.
func (db *DB) Graph() ([]GraphNode, []GraphLink, error) {
	nodeRows, err := db.conn.Query(`SELECT slug, title, category FROM recipes ORDER BY slug`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph nodes: %w", err)
	}
	defer nodeRows.Close()

	var nodes []GraphNode
	for nodeRows.Next() {
		var n GraphNode
		if err := nodeRows.Scan(&n.ID, &n.Title, &n.Category); err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, n)
	}
	if err := nodeRows.Err(); err != nil {
		return nil, nil, err
	}

	linkRows, err := db.conn.Query(`SELECT source, target FROM relations ORDER BY source, target`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph links: %w", err)
	}
	defer linkRows.Close()

	var links []GraphLink
	for linkRows.Next() {
		var l GraphLink
		if err := linkRows.Scan(&l.Source, &l.Target); err != nil {
			return nil, nil, err
		}
		links = append(links, l)
	}
	return nodes, links, linkRows.Err()
}

// AllSlugs returns every indexed slug.
func (db *DB) AllSlugs() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT slug FROM recipes`)
	if err != nil {
		return nil, fmt.Errorf("index: all slugs: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out[s] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path → checksum for every indexed recipe.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM recipes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (*RecipeRow, error) {
	var r RecipeRow
	var tagsJSON string
	err := row.Scan(&r.Slug, &r.Path, &r.Title, &r.Description, &r.Category,
		&r.Difficulty, &r.KubernetesVersion, &r.TimeToComplete, &r.Author,
		&r.PublishDate, &tagsJSON, &r.Checksum, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &r.Tags); err != nil {
		r.Tags = nil
	}
	return &r, nil
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// sortFacets orders by count descending, then value ascending.
func sortFacets(fs []Facet) {
	sort.Slice(fs, func(i, j int) bool {
		if fs[i].Count != fs[j].Count {
			return fs[i].Count > fs[j].Count
		}
		return fs[i].Value < fs[j].Value
	})
}
