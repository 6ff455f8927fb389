package mcpserver

import (
	"context"
	"encoding/base64"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/catalog"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/index"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/lint"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/storage"
)

const recipeContent = `---
title: "Expose a Service with Ingress"
description: "Route HTTP traffic to a Service."
category: networking
difficulty: beginner
tags: [ingress]
---

# Expose a Service with Ingress

Body text.
`

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	contentDir := t.TempDir()
	store, err := storage.NewFS(contentDir)
	if err != nil {
		t.Fatal(err)
	}

	dbFile, err := os.CreateTemp("", "recipes-mcp-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	svc := catalog.NewService(store, db, lint.New())
	srv := New(svc, store)
	return srv, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call
	// the tool handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_recipes":
		result, err = srv.searchRecipes(ctx, req)
	case "read_recipe":
		result, err = srv.readRecipe(ctx, req)
	case "create_recipe":
		result, err = srv.createRecipe(ctx, req)
	case "list_recipes":
		result, err = srv.listRecipes(ctx, req)
	case "get_related":
		result, err = srv.getRelated(ctx, req)
	case "lint_recipe":
		result, err = srv.lintRecipe(ctx, req)
	case "get_recipe_contract":
		result, err = srv.getRecipeContract(ctx, req)
	case "upload_asset":
		result, err = srv.uploadAsset(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadRecipe(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_recipe", map[string]interface{}{
		"slug":    "networking/expose-service-with-ingress",
		"content": recipeContent,
	})
	text := resultText(r)
	if text != "created: networking/expose-service-with-ingress" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "read_recipe", map[string]interface{}{
		"slug": "networking/expose-service-with-ingress",
	})
	text = resultText(r)
	if !strings.Contains(text, "Expose a Service with Ingress") {
		t.Errorf("read result = %q", text)
	}
}

func TestCreateRecipe_InvalidSlug(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_recipe", map[string]interface{}{
		"slug":    "Bad Slug!",
		"content": recipeContent,
	})
	if !r.IsError {
		t.Error("expected error for invalid slug")
	}
}

func TestListRecipes(t *testing.T) {
	srv, _ := testServer(t)

	callTool(t, srv, "create_recipe", map[string]interface{}{
		"slug":    "a",
		"content": recipeContent,
	})
	callTool(t, srv, "create_recipe", map[string]interface{}{
		"slug":    "b",
		"content": recipeContent,
	})

	r := callTool(t, srv, "list_recipes", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "a\t") || !strings.Contains(text, "b\t") {
		t.Errorf("list = %q", text)
	}

	r = callTool(t, srv, "list_recipes", map[string]interface{}{"category": "storage"})
	if resultText(r) != "" {
		t.Errorf("filtered list = %q, want empty", resultText(r))
	}
}

func TestReadRecipeMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_recipe", map[string]interface{}{"slug": "nope"})
	if !r.IsError {
		t.Error("expected error for missing recipe")
	}
}

func TestSearchRecipes(t *testing.T) {
	srv, _ := testServer(t)

	callTool(t, srv, "create_recipe", map[string]interface{}{
		"slug":    "find-me",
		"content": strings.Replace(recipeContent, "Body text.", "Body with zebratoken.", 1),
	})

	r := callTool(t, srv, "search_recipes", map[string]interface{}{"query": "zebratoken"})
	if !strings.Contains(resultText(r), "find-me") {
		t.Errorf("search = %q", resultText(r))
	}
}

func TestGetRelated(t *testing.T) {
	srv, _ := testServer(t)

	linked := strings.Replace(recipeContent, "tags: [ingress]",
		"tags: [ingress]\nrelatedRecipes: [target]", 1)
	callTool(t, srv, "create_recipe", map[string]interface{}{
		"slug":    "source",
		"content": linked,
	})
	callTool(t, srv, "create_recipe", map[string]interface{}{
		"slug":    "target",
		"content": recipeContent,
	})

	r := callTool(t, srv, "get_related", map[string]interface{}{"slug": "target"})
	if !strings.Contains(resultText(r), "source") {
		t.Errorf("related = %q, want backlink from source", resultText(r))
	}
}

func TestLintRecipe(t *testing.T) {
	srv, store := testServer(t)

	// Written directly to bypass the service, so the catalog must re-read it.
	_ = store.Write("broken.md", []byte("No frontmatter here.\n"))

	r := callTool(t, srv, "lint_recipe", map[string]interface{}{"slug": "broken"})
	if !strings.Contains(resultText(r), "frontmatter-missing") {
		t.Errorf("lint = %q", resultText(r))
	}

	callTool(t, srv, "create_recipe", map[string]interface{}{
		"slug":    "clean",
		"content": recipeContent,
	})
	r = callTool(t, srv, "lint_recipe", map[string]interface{}{"slug": "clean"})
	if resultText(r) != "no findings" {
		t.Errorf("clean lint = %q", resultText(r))
	}
}

func TestGetRecipeContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_recipe_contract", map[string]interface{}{})
	if !strings.Contains(resultText(r), "frontmatter") {
		t.Error("contract missing frontmatter rules")
	}
}

func TestUploadAsset_DataURI(t *testing.T) {
	srv, store := testServer(t)

	// Minimal valid PNG header so magic byte validation passes.
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	r := callTool(t, srv, "upload_asset", map[string]interface{}{
		"url":      uri,
		"filename": "pixel.png",
	})
	if r.IsError {
		t.Fatalf("upload error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "/assets/pixel.png") {
		t.Errorf("upload result = %q", resultText(r))
	}

	if _, err := store.Read("assets/pixel.png"); err != nil {
		t.Errorf("asset not stored: %v", err)
	}
}

func TestUploadAsset_BadExtension(t *testing.T) {
	srv, _ := testServer(t)

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("x"))
	r := callTool(t, srv, "upload_asset", map[string]interface{}{
		"url":      uri,
		"filename": "evil.exe",
	})
	if !r.IsError {
		t.Error("expected error for disallowed extension")
	}
}
