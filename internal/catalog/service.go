// Package catalog coordinates storage, index, parser, linter, and renderer
// into the recipe service used by the API and MCP surfaces.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	slug "github.com/goliatone/go-slug"

	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/apperr"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/checksum"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/index"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/lint"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/models"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/recipe"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/render"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/storage"
)

// RecipeDetail is the full representation of a recipe.
type RecipeDetail struct {
	Slug        string             `json:"slug"`
	Path        string             `json:"path"`
	Title       string             `json:"title"`
	Content     string             `json:"content"`
	Checksum    string             `json:"checksum"`
	Frontmatter models.Frontmatter `json:"frontmatter"`
	CodeBlocks  []models.CodeBlock `json:"codeBlocks"`
	Related     []string           `json:"related"`
	Backlinks   []string           `json:"backlinks"`
	Findings    []lint.Finding     `json:"findings"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// RecipeListItem is a lightweight item in a list response.
type RecipeListItem struct {
	Slug        string    `json:"slug"`
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category,omitempty"`
	Difficulty  string    `json:"difficulty,omitempty"`
	Tags        []string  `json:"tags"`
	Checksum    string    `json:"checksum"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Service coordinates content storage and the catalog index.
type Service struct {
	store    storage.Provider
	db       *index.DB
	linter   *lint.Linter
	renderer *render.Renderer
}

// NewService creates a new catalog service.
func NewService(store storage.Provider, db *index.DB, linter *lint.Linter) *Service {
	return &Service{
		store:    store,
		db:       db,
		linter:   linter,
		renderer: render.New(),
	}
}

// GetRecipe reads a recipe from storage, parses it, and enriches it with
// relations, backlinks, and lint findings.
func (s *Service) GetRecipe(_ context.Context, slugOrPath string) (*RecipeDetail, error) {
	path := normalizePath(slugOrPath)
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildDetail(path, data)
}

// CreateRecipe writes a new recipe and indexes it.
func (s *Service) CreateRecipe(_ context.Context, slugOrPath string, content []byte) (*RecipeDetail, error) {
	path := normalizePath(slugOrPath)
	if err := validateSlugPath(path); err != nil {
		return nil, err
	}
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.IndexDocument(path, content); err != nil {
		return nil, err
	}
	return s.buildDetail(path, content)
}

// UpdateRecipe writes updated content with optimistic concurrency: when
// ifMatch is non-empty it must equal the current content checksum.
func (s *Service) UpdateRecipe(_ context.Context, slugOrPath string, content []byte, ifMatch string) (*RecipeDetail, error) {
	path := normalizePath(slugOrPath)
	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.IndexDocument(path, content); err != nil {
		return nil, err
	}
	return s.buildDetail(path, content)
}

// DeleteRecipe removes a recipe from storage and the catalog.
func (s *Service) DeleteRecipe(_ context.Context, slugOrPath string) error {
	path := normalizePath(slugOrPath)
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	return s.db.DeleteRecipe(recipe.SlugFromPath(path))
}

// ListRecipes returns a filtered, paginated catalog page.
func (s *Service) ListRecipes(_ context.Context, f index.Filter) ([]RecipeListItem, int, error) {
	rows, total, err := s.db.ListRecipes(f)
	if err != nil {
		return nil, 0, err
	}
	items := make([]RecipeListItem, len(rows))
	for i, r := range rows {
		items[i] = RecipeListItem{
			Slug:        r.Slug,
			Path:        r.Path,
			Title:       r.Title,
			Description: r.Description,
			Category:    r.Category,
			Difficulty:  r.Difficulty,
			Tags:        nonNilSlice(r.Tags),
			Checksum:    r.Checksum,
			UpdatedAt:   r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Categories returns the category facets of the catalog.
func (s *Service) Categories(_ context.Context) ([]index.Facet, error) {
	return s.db.Categories()
}

// Tags returns the tag facets of the catalog.
func (s *Service) Tags(_ context.Context) ([]index.Facet, error) {
	return s.db.TagFacets()
}

// Graph returns all nodes and relation edges for graph visualization.
func (s *Service) Graph(_ context.Context) ([]index.GraphNode, []index.GraphLink, error) {
	return s.db.Graph()
}

// Related returns the outgoing relations of a recipe.
func (s *Service) Related(_ context.Context, slugValue string) ([]string, error) {
	return s.db.Related(recipe.SlugFromPath(normalizePath(slugValue)))
}

// Backlinks returns all recipes whose relatedRecipes reference the slug.
func (s *Service) Backlinks(_ context.Context, slugValue string) ([]string, error) {
	return s.db.Backlinks(recipe.SlugFromPath(normalizePath(slugValue)))
}

// LintRecipe lints a single recipe, resolving cross-references against the
// indexed corpus.
func (s *Service) LintRecipe(_ context.Context, slugOrPath string) ([]lint.Finding, error) {
	path := normalizePath(slugOrPath)
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	slugs, err := s.knownSlugs()
	if err != nil {
		return nil, err
	}
	return nonNilSlice(s.linter.LintDocument(recipe.Parse(path, data), slugs)), nil
}

// LintCorpus lints every recipe in the content store.
func (s *Service) LintCorpus(_ context.Context) (*lint.Report, error) {
	return s.linter.LintCorpus(s.store)
}

// RenderHTML renders a recipe body (frontmatter stripped) to HTML.
func (s *Service) RenderHTML(_ context.Context, slugOrPath string) ([]byte, error) {
	path := normalizePath(slugOrPath)
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	doc := recipe.Parse(path, data)
	return s.renderer.HTML([]byte(doc.Body))
}

// IndexDocument parses data and upserts it into the catalog.
// Exported so that sync and the MCP server can reuse it.
func (s *Service) IndexDocument(path string, data []byte) error {
	doc := recipe.Parse(path, data)
	return s.db.UpsertRecipe(index.RecipeRow{
		Slug:              doc.Slug,
		Path:              path,
		Title:             doc.Title,
		Description:       doc.Meta.Description,
		Category:          doc.Meta.Category,
		Difficulty:        doc.Meta.Difficulty,
		KubernetesVersion: doc.Meta.KubernetesVersion,
		TimeToComplete:    doc.Meta.TimeToComplete,
		Author:            doc.Meta.Author,
		PublishDate:       doc.Meta.PublishDate,
		Tags:              nonNilSlice(doc.Meta.Tags),
		Checksum:          checksum.Sum(data),
		UpdatedAt:         time.Now(),
	}, doc.Body, doc.Meta.RelatedRecipes)
}

// buildDetail constructs a RecipeDetail from raw data without re-reading
// the file.
func (s *Service) buildDetail(path string, data []byte) (*RecipeDetail, error) {
	doc := recipe.Parse(path, data)
	related, err := s.db.Related(doc.Slug)
	if err != nil {
		return nil, err
	}
	backlinks, err := s.db.Backlinks(doc.Slug)
	if err != nil {
		return nil, err
	}
	slugs, err := s.knownSlugs()
	if err != nil {
		return nil, err
	}
	return &RecipeDetail{
		Slug:        doc.Slug,
		Path:        path,
		Title:       doc.Title,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Frontmatter: doc.Meta,
		CodeBlocks:  nonNilSlice(doc.CodeBlocks),
		Related:     nonNilSlice(related),
		Backlinks:   nonNilSlice(backlinks),
		Findings:    nonNilSlice(s.linter.LintDocument(doc, slugs)),
		UpdatedAt:   time.Now(),
	}, nil
}

// knownSlugs returns the resolution set for relatedRecipes: every indexed
// slug in both full and base form.
func (s *Service) knownSlugs() (map[string]struct{}, error) {
	slugs, err := s.db.AllSlugs()
	if err != nil {
		return nil, err
	}
	for sl := range slugs {
		slugs[recipe.BaseSlug(sl)] = struct{}{}
	}
	return slugs, nil
}

// normalizePath accepts either a slug or a .md path and returns the
// content-relative path.
func normalizePath(slugOrPath string) string {
	if strings.HasSuffix(slugOrPath, ".md") {
		return strings.Trim(slugOrPath, "/")
	}
	return recipe.PathFromSlug(slugOrPath)
}

// validateSlugPath checks that every path element of a new recipe is a
// well-formed slug.
func validateSlugPath(path string) error {
	p := recipe.SlugFromPath(path)
	for _, part := range strings.Split(p, "/") {
		if !slug.IsValid(part) {
			return fmt.Errorf("%w: %q", apperr.ErrInvalidSlug, part)
		}
	}
	return nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
