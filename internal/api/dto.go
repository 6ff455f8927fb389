package api

import (
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/catalog"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/index"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/lint"
)

// CreateRecipeRequest is the request body for creating a recipe.
type CreateRecipeRequest struct {
	Slug    string `json:"slug"`
	Content string `json:"content"`
}

// UpdateRecipeRequest is the request body for updating a recipe.
type UpdateRecipeRequest struct {
	Content string `json:"content"`
}

// RecipeDetail is the full recipe response type (aliased from the domain layer).
type RecipeDetail = catalog.RecipeDetail

// RecipeListItem is a lightweight item in a list response (aliased from the domain layer).
type RecipeListItem = catalog.RecipeListItem

// RecipeListResponse wraps paginated recipe listings.
type RecipeListResponse struct {
	Recipes []RecipeListItem `json:"recipes"`
	Total   int              `json:"total"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results"`
}

// FacetResponse wraps category or tag facets.
type FacetResponse struct {
	Facets []index.Facet `json:"facets"`
}

// GraphResponse wraps the relation graph.
type GraphResponse struct {
	Nodes []index.GraphNode `json:"nodes"`
	Links []index.GraphLink `json:"links"`
}

// RelatedResponse wraps the relations of one recipe.
type RelatedResponse struct {
	Related   []string `json:"related"`
	Backlinks []string `json:"backlinks"`
}

// LintResponse wraps lint findings for a single recipe.
type LintResponse struct {
	Findings []lint.Finding `json:"findings"`
}
