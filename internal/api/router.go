package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/catalog"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// contentRoot is used to resolve the assets directory.
func NewRouter(svc *catalog.Service, authEnabled bool, token string, sseHandler http.Handler, contentRoot string) chi.Router {
	h := NewHandler(svc)
	ah := NewAssetHandler(contentRoot)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Recipes CRUD.
	r.Get("/recipes", h.ListRecipes)
	r.Post("/recipes", h.CreateRecipe)
	r.Get("/recipes/*", h.GetRecipe)
	r.Put("/recipes/*", h.UpdateRecipe)
	r.Delete("/recipes/*", h.DeleteRecipe)

	// Search and facets.
	r.Get("/search", h.Search)
	r.Get("/categories", h.Categories)
	r.Get("/tags", h.Tags)

	// Relation graph.
	r.Get("/graph", h.Graph)
	r.Get("/related/*", h.Related)

	// Content hygiene.
	r.Get("/lint", h.LintCorpus)
	r.Get("/lint/*", h.LintRecipe)

	// Assets (diagrams, screenshots).
	r.Post("/assets", ah.Upload)
	r.Get("/assets/{filename}", ah.ServeFile)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
