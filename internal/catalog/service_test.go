package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/apperr"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/index"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/lint"
	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/testutil"
)

const ingressRecipe = `---
title: "Expose a Service with Ingress"
description: "Route HTTP traffic to a Service."
category: networking
difficulty: beginner
tags: [ingress, http]
relatedRecipes:
  - security/install-cert-manager
publishDate: "2024-02-10"
---

# Expose a Service with Ingress

Apply the manifest:

` + "```yaml" + `
kind: Ingress
` + "```" + `
`

const certManagerRecipe = `---
title: "Install cert-manager"
description: "Deploy cert-manager with Helm."
category: security
difficulty: intermediate
tags: [cert-manager, tls]
---

# Install cert-manager

Body.
`

func testService(t *testing.T) *Service {
	t.Helper()
	_, store := testutil.TestContent(t)
	db := testutil.TestDB(t)
	return NewService(store, db, lint.New())
}

func TestCreateAndGetRecipe(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	created, err := svc.CreateRecipe(ctx, "networking/expose-service-with-ingress", []byte(ingressRecipe))
	if err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}
	if created.Slug != "networking/expose-service-with-ingress" {
		t.Errorf("slug = %q", created.Slug)
	}
	if created.Checksum == "" {
		t.Error("missing checksum")
	}

	got, err := svc.GetRecipe(ctx, "networking/expose-service-with-ingress")
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if got.Title != "Expose a Service with Ingress" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Frontmatter.Difficulty != "beginner" {
		t.Errorf("difficulty = %q", got.Frontmatter.Difficulty)
	}
	if len(got.CodeBlocks) != 1 || got.CodeBlocks[0].Language != "yaml" {
		t.Errorf("code blocks = %+v", got.CodeBlocks)
	}
	// Relation target missing, so the detail carries a lint finding.
	if len(got.Related) != 1 || got.Related[0] != "security/install-cert-manager" {
		t.Errorf("related = %v", got.Related)
	}
	if len(got.Findings) == 0 {
		t.Error("expected unresolved-relation finding")
	}
}

func TestGetRecipe_AcceptsPathForm(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateRecipe(ctx, "basics/first-pod", []byte(certManagerRecipe)); err != nil {
		t.Fatal(err)
	}
	got, err := svc.GetRecipe(ctx, "basics/first-pod.md")
	if err != nil {
		t.Fatalf("GetRecipe by path: %v", err)
	}
	if got.Slug != "basics/first-pod" {
		t.Errorf("slug = %q", got.Slug)
	}
}

func TestCreateRecipe_Validation(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateRecipe(ctx, "Bad Slug!", []byte(ingressRecipe)); !errors.Is(err, apperr.ErrInvalidSlug) {
		t.Errorf("invalid slug err = %v", err)
	}

	if _, err := svc.CreateRecipe(ctx, "dup", []byte(ingressRecipe)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateRecipe(ctx, "dup", []byte(ingressRecipe)); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate err = %v", err)
	}
}

func TestUpdateRecipe_OptimisticConcurrency(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	created, err := svc.CreateRecipe(ctx, "lock", []byte(certManagerRecipe))
	if err != nil {
		t.Fatal(err)
	}

	v2 := []byte(certManagerRecipe + "\nMore.\n")
	if _, err := svc.UpdateRecipe(ctx, "lock", v2, created.Checksum); err != nil {
		t.Fatalf("update with current checksum: %v", err)
	}
	if _, err := svc.UpdateRecipe(ctx, "lock", v2, created.Checksum); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale checksum err = %v", err)
	}
	if _, err := svc.UpdateRecipe(ctx, "lock", v2, ""); err != nil {
		t.Errorf("update without If-Match: %v", err)
	}
	if _, err := svc.UpdateRecipe(ctx, "ghost", v2, ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("update missing err = %v", err)
	}
}

func TestDeleteRecipe(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateRecipe(ctx, "bye", []byte(certManagerRecipe)); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteRecipe(ctx, "bye"); err != nil {
		t.Fatalf("DeleteRecipe: %v", err)
	}
	if _, err := svc.GetRecipe(ctx, "bye"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get after delete err = %v", err)
	}
	if err := svc.DeleteRecipe(ctx, "bye"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("double delete err = %v", err)
	}
}

func TestRelationsResolveByBaseSlug(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateRecipe(ctx, "security/install-cert-manager", []byte(certManagerRecipe)); err != nil {
		t.Fatal(err)
	}
	created, err := svc.CreateRecipe(ctx, "networking/expose-service-with-ingress", []byte(ingressRecipe))
	if err != nil {
		t.Fatal(err)
	}
	// Relation target now exists, so no unresolved-relation finding.
	for _, f := range created.Findings {
		if f.Rule == lint.RuleRelatedUnresolved {
			t.Errorf("unexpected finding: %+v", f)
		}
	}

	backlinks, err := svc.Backlinks(ctx, "security/install-cert-manager")
	if err != nil {
		t.Fatal(err)
	}
	if len(backlinks) != 1 || backlinks[0] != "networking/expose-service-with-ingress" {
		t.Errorf("backlinks = %v", backlinks)
	}
}

func TestListAndFacets(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateRecipe(ctx, "networking/ingress", []byte(ingressRecipe)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateRecipe(ctx, "security/cert-manager", []byte(certManagerRecipe)); err != nil {
		t.Fatal(err)
	}

	items, total, err := svc.ListRecipes(ctx, index.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("total = %d, items = %d", total, len(items))
	}

	items, _, err = svc.ListRecipes(ctx, index.Filter{Category: "security"})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Slug != "security/cert-manager" {
		t.Errorf("filtered items = %+v", items)
	}

	cats, err := svc.Categories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 2 {
		t.Errorf("categories = %+v", cats)
	}

	tags, err := svc.Tags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 4 {
		t.Errorf("tags = %+v", tags)
	}
}

func TestGraph(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateRecipe(ctx, "security/install-cert-manager", []byte(certManagerRecipe)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateRecipe(ctx, "networking/ingress", []byte(ingressRecipe)); err != nil {
		t.Fatal(err)
	}

	nodes, links, err := svc.Graph(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 {
		t.Errorf("nodes = %+v", nodes)
	}
	if len(links) != 1 {
		t.Errorf("links = %+v", links)
	}
}

func TestRenderHTML(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateRecipe(ctx, "render", []byte(ingressRecipe)); err != nil {
		t.Fatal(err)
	}
	html, err := svc.RenderHTML(ctx, "render")
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	out := string(html)
	if !strings.Contains(out, "<h1") {
		t.Errorf("missing heading: %s", out)
	}
	if strings.Contains(out, "publishDate") {
		t.Error("frontmatter leaked into rendered HTML")
	}
}

func TestLintCorpus(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateRecipe(ctx, "clean", []byte(certManagerRecipe)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateRecipe(ctx, "broken", []byte("No frontmatter.\n")); err != nil {
		t.Fatal(err)
	}

	report, err := svc.LintCorpus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.Checked != 2 {
		t.Errorf("checked = %d", report.Checked)
	}
	if !report.HasErrors() {
		t.Error("expected errors from recipe without frontmatter")
	}
}
