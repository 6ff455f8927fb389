package index

// Catalog defines the interface for recipe indexing operations.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type Catalog interface {
	UpsertRecipe(r RecipeRow, body string, related []string) error
	DeleteRecipe(slug string) error
	GetRecipe(slug string) (*RecipeRow, error)
	GetChecksum(path string) (string, error)
	ListRecipes(f Filter) ([]RecipeRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Categories() ([]Facet, error)
	TagFacets() ([]Facet, error)
	Related(slug string) ([]string, error)
	Backlinks(slug string) ([]string, error)
	Graph() ([]GraphNode, []GraphLink, error)
	AllSlugs() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)
