// Package storage defines the content-root file-system abstraction.
package storage

import "github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/models"

// Provider is the interface for content file operations. All paths are
// relative to the content root.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.RecipeMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}
