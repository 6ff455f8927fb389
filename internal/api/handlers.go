package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/apperr"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/catalog"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/index"
)

const maxBodyBytes = 10 << 20 // 10 MB per recipe document

// Handler holds API route handlers.
type Handler struct {
	svc *catalog.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{svc: svc}
}

// recipeSlug extracts the slug from a wildcard URL. Supports encoded
// slashes from OpenAPI clients (e.g. networking%2Fgateway-api).
func recipeSlug(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListRecipes handles GET /api/recipes.
func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListRecipes(r.Context(), index.Filter{
		Category:   q.Get("category"),
		Difficulty: q.Get("difficulty"),
		Tag:        q.Get("tag"),
		Sort:       q.Get("sort"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		slog.Error("list recipes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if items == nil {
		items = []RecipeListItem{}
	}
	writeJSON(w, http.StatusOK, RecipeListResponse{Recipes: items, Total: total})
}

// GetRecipe handles GET /api/recipes/*. With ?format=html the rendered
// body is returned instead of the JSON detail.
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	slug := recipeSlug(r)
	if slug == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slug is required"))
		return
	}

	if r.URL.Query().Get("format") == "html" {
		out, err := h.svc.RenderHTML(r.Context(), slug)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				writeJSON(w, http.StatusNotFound, errorBody("not found"))
			} else {
				slog.Error("render failed", slog.String("slug", slug), slog.String("error", err.Error()))
				writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
			}
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out)
		return
	}

	detail, err := h.svc.GetRecipe(r.Context(), slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get recipe failed", slog.String("slug", slug), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.Header().Set("ETag", `"`+detail.Checksum+`"`)
	writeJSON(w, http.StatusOK, detail)
}

// CreateRecipe handles POST /api/recipes.
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CreateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Slug == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slug and content are required"))
		return
	}
	detail, err := h.svc.CreateRecipe(r.Context(), req.Slug, []byte(req.Content))
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrAlreadyExists):
			writeJSON(w, http.StatusConflict, errorBody("recipe already exists"))
		case errors.Is(err, apperr.ErrInvalidSlug):
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		default:
			slog.Error("create recipe failed", slog.String("slug", req.Slug), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// UpdateRecipe handles PUT /api/recipes/* with optimistic concurrency via
// the If-Match header (SHA-256 content checksum).
func (h *Handler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	slug := recipeSlug(r)
	if slug == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slug is required"))
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}

	var req UpdateRecipeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	detail, err := h.svc.UpdateRecipe(r.Context(), slug, []byte(req.Content), ifMatch)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		default:
			slog.Error("update recipe failed", slog.String("slug", slug), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.Header().Set("ETag", `"`+detail.Checksum+`"`)
	writeJSON(w, http.StatusOK, detail)
}

// DeleteRecipe handles DELETE /api/recipes/*.
func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	slug := recipeSlug(r)
	if slug == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slug is required"))
		return
	}
	if err := h.svc.DeleteRecipe(r.Context(), slug); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("delete recipe failed", slog.String("slug", slug), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Categories handles GET /api/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	facets, err := h.svc.Categories(r.Context())
	if err != nil {
		slog.Error("categories failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if facets == nil {
		facets = []index.Facet{}
	}
	writeJSON(w, http.StatusOK, FacetResponse{Facets: facets})
}

// Tags handles GET /api/tags.
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	facets, err := h.svc.Tags(r.Context())
	if err != nil {
		slog.Error("tags failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if facets == nil {
		facets = []index.Facet{}
	}
	writeJSON(w, http.StatusOK, FacetResponse{Facets: facets})
}

// Graph handles GET /api/graph.
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	nodes, links, err := h.svc.Graph(r.Context())
	if err != nil {
		slog.Error("graph failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if nodes == nil {
		nodes = []index.GraphNode{}
	}
	if links == nil {
		links = []index.GraphLink{}
	}
	writeJSON(w, http.StatusOK, GraphResponse{Nodes: nodes, Links: links})
}

// Related handles GET /api/related/*.
func (h *Handler) Related(w http.ResponseWriter, r *http.Request) {
	slug := recipeSlug(r)
	if slug == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slug is required"))
		return
	}
	related, err := h.svc.Related(r.Context(), slug)
	if err != nil {
		slog.Error("related failed", slog.String("slug", slug), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	backlinks, err := h.svc.Backlinks(r.Context(), slug)
	if err != nil {
		slog.Error("backlinks failed", slog.String("slug", slug), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if related == nil {
		related = []string{}
	}
	if backlinks == nil {
		backlinks = []string{}
	}
	writeJSON(w, http.StatusOK, RelatedResponse{Related: related, Backlinks: backlinks})
}

// LintCorpus handles GET /api/lint.
func (h *Handler) LintCorpus(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.LintCorpus(r.Context())
	if err != nil {
		slog.Error("lint corpus failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// LintRecipe handles GET /api/lint/*.
func (h *Handler) LintRecipe(w http.ResponseWriter, r *http.Request) {
	slug := recipeSlug(r)
	if slug == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slug is required"))
		return
	}
	findings, err := h.svc.LintRecipe(r.Context(), slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("lint recipe failed", slog.String("slug", slug), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, LintResponse{Findings: findings})
}
