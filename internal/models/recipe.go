// Package models defines the domain types for the recipes catalog.
package models

import "time"

// Difficulty levels a recipe may declare in frontmatter.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Frontmatter is the typed YAML header of a recipe document. Keys that are
// not part of the schema are collected into Extra.
type Frontmatter struct {
	Title             string         `yaml:"title" json:"title"`
	Description       string         `yaml:"description" json:"description"`
	Category          string         `yaml:"category" json:"category,omitempty"`
	Difficulty        string         `yaml:"difficulty" json:"difficulty,omitempty"`
	TimeToComplete    string         `yaml:"timeToComplete" json:"timeToComplete,omitempty"`
	KubernetesVersion string         `yaml:"kubernetesVersion" json:"kubernetesVersion,omitempty"`
	Prerequisites     []string       `yaml:"prerequisites" json:"prerequisites,omitempty"`
	RelatedRecipes    []string       `yaml:"relatedRecipes" json:"relatedRecipes,omitempty"`
	Tags              []string       `yaml:"tags" json:"tags,omitempty"`
	PublishDate       string         `yaml:"publishDate" json:"publishDate,omitempty"`
	Author            string         `yaml:"author" json:"author,omitempty"`
	Extra             map[string]any `yaml:",inline" json:"-"`
}

// CodeBlock is a fenced code block found in a recipe body.
type CodeBlock struct {
	Language string `json:"language"`
	Line     int    `json:"line"` // 1-based line of the opening fence
	Code     string `json:"-"`
}

// Recipe represents a parsed recipe document in the content store.
type Recipe struct {
	Slug        string      `json:"slug"`
	Path        string      `json:"path"`
	Title       string      `json:"title"`
	Frontmatter Frontmatter `json:"frontmatter"`
	Body        string      `json:"body"`
	CodeBlocks  []CodeBlock `json:"codeBlocks,omitempty"`
	Checksum    string      `json:"checksum"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// RecipeMetadata is a lightweight representation returned by store listings.
type RecipeMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Relation is a directed edge between two recipes, derived from the
// relatedRecipes frontmatter field.
type Relation struct {
	Source string `json:"source"`
	Target string `json:"target"`
}
