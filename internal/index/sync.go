package index

import (
	"log/slog"
	"time"

	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/checksum"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/recipe"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/storage"
)

// Sync walks the content root and brings the catalog up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the catalog
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteRecipe(recipe.SlugFromPath(p)); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses data and upserts it into the catalog.
func indexFile(db *DB, path string, data []byte) error {
	doc := recipe.Parse(path, data)
	row := RecipeRow{
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
		Tags:              doc.Meta.Tags,
		Checksum:          checksum.Sum(data),
		UpdatedAt:         time.Now(),
	}
	return db.UpsertRecipe(row, doc.Body, doc.Meta.RelatedRecipes)
}
