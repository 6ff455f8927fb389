// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the recipe catalog as tools for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/catalog"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/index"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/storage"
)

// Server wraps the MCP server with recipe catalog tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *catalog.Service
	store storage.Provider
}

// New creates a new MCP server with all catalog tools registered.
func New(svc *catalog.Service, store storage.Provider) *Server {
	s := &Server{svc: svc, store: store}

	s.mcp = server.NewMCPServer(
		"KubernetesRecipes",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_recipes",
		mcp.WithDescription("Full-text search through recipe titles, descriptions, bodies and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchRecipes)

	s.mcp.AddTool(mcp.NewTool("read_recipe",
		mcp.WithDescription("Read the full Markdown content of a recipe."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Recipe slug (e.g. networking/expose-service-with-ingress)")),
	), s.readRecipe)

	s.mcp.AddTool(mcp.NewTool("create_recipe",
		mcp.WithDescription("Create a new Markdown recipe at the specified slug. "+
			"Content MUST follow the canonical recipe format (YAML frontmatter with title, "+
			"description, category, difficulty, tags and language-tagged code fences). "+
			"Read the contract first via the get_recipe_contract tool or the "+
			"kuberecipes://recipe-format resource."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Slug for the new recipe (lowercase kebab-case, path separators OK)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content following the recipe format contract")),
	), s.createRecipe)

	s.mcp.AddTool(mcp.NewTool("get_recipe_contract",
		mcp.WithDescription("Returns the canonical recipe format contract. "+
			"Call this before creating or updating recipes to ensure correct structure."),
	), s.getRecipeContract)

	s.mcp.AddTool(mcp.NewTool("list_recipes",
		mcp.WithDescription("List recipes, optionally filtered by category or difficulty."),
		mcp.WithString("category", mcp.Description("Optional category filter")),
		mcp.WithString("difficulty", mcp.Description("Optional difficulty filter (beginner, intermediate, advanced)")),
	), s.listRecipes)

	s.mcp.AddTool(mcp.NewTool("get_related",
		mcp.WithDescription("Find recipes related to the given one: outgoing relations and backlinks."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Slug of the recipe to find relations for")),
	), s.getRelated)

	s.mcp.AddTool(mcp.NewTool("lint_recipe",
		mcp.WithDescription("Check a recipe against the content rules: required frontmatter fields, "+
			"valid difficulty and dates, resolvable relations, language-tagged code fences."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Slug of the recipe to lint")),
	), s.lintRecipe)

	s.mcp.AddTool(mcp.NewTool("upload_asset",
		mcp.WithDescription("Upload an image or document asset from a URL or data URI into the "+
			"shared assets directory. Returns a Markdown image reference ready to paste into a recipe."),
		mcp.WithString("url", mcp.Required(), mcp.Description("HTTP(S) URL or base64 data URI of the asset")),
		mcp.WithString("filename", mcp.Description("Optional filename override")),
	), s.uploadAsset)

	// Resource: recipe format contract.
	s.mcp.AddResource(
		mcp.NewResource("kuberecipes://recipe-format", "Recipe Format Contract",
			mcp.WithResourceDescription("Canonical Markdown recipe format that all recipes must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecipeFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchRecipes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetRecipe(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	return mcp.NewToolResultText(detail.Content), nil
}

func (s *Server) createRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	detail, err := s.svc.CreateRecipe(ctx, slug, []byte(content))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", detail.Slug)), nil
}

func (s *Server) listRecipes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := index.Filter{}
	if v, err := req.RequireString("category"); err == nil {
		f.Category = v
	}
	if v, err := req.RequireString("difficulty"); err == nil {
		f.Difficulty = v
	}

	items, _, err := s.svc.ListRecipes(ctx, f)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var lines []string
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("%s\t%s", it.Slug, it.Title))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getRelated(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	related, err := s.svc.Related(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	backlinks, err := s.svc.Backlinks(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(related) == 0 && len(backlinks) == 0 {
		return mcp.NewToolResultText("no related recipes found"), nil
	}
	out, _ := json.MarshalIndent(map[string][]string{
		"related":   related,
		"backlinks": backlinks,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) lintRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	findings, err := s.svc.LintRecipe(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(findings) == 0 {
		return mcp.NewToolResultText("no findings"), nil
	}
	out, _ := json.MarshalIndent(findings, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getRecipeContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecipeFormatContract), nil
}

func (s *Server) readRecipeFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "kuberecipes://recipe-format",
			MIMEType: "text/markdown",
			Text:     RecipeFormatContract,
		},
	}, nil
}
