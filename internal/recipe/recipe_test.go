package recipe

import (
	"testing"
)

const sampleDoc = `---
title: Configure Alertmanager
description: Route Prometheus alerts to Slack.
category: observability
difficulty: intermediate
timeToComplete: 20 minutes
kubernetesVersion: "1.29"
prerequisites:
  - A running Prometheus stack
relatedRecipes:
  - prometheus-operator-install
tags:
  - alertmanager
  - monitoring
publishDate: 2024-03-01
author: Ops Team
---
# Configure Alertmanager

Intro text.

` + "```yaml" + `
apiVersion: v1
kind: ConfigMap
` + "```" + `

Run it:

` + "```bash" + `
kubectl apply -f alertmanager.yaml
` + "```" + `
`

func TestParse_Frontmatter(t *testing.T) {
	doc := Parse("configure-alertmanager.md", []byte(sampleDoc))
	if doc.MetaErr != nil {
		t.Fatalf("unexpected meta error: %v", doc.MetaErr)
	}
	if !doc.HasFrontmatter {
		t.Error("expected HasFrontmatter")
	}
	if doc.Slug != "configure-alertmanager" {
		t.Errorf("slug = %q", doc.Slug)
	}
	if doc.Title != "Configure Alertmanager" {
		t.Errorf("title = %q", doc.Title)
	}
	if doc.Meta.Category != "observability" {
		t.Errorf("category = %q", doc.Meta.Category)
	}
	if doc.Meta.Difficulty != "intermediate" {
		t.Errorf("difficulty = %q", doc.Meta.Difficulty)
	}
	if len(doc.Meta.RelatedRecipes) != 1 || doc.Meta.RelatedRecipes[0] != "prometheus-operator-install" {
		t.Errorf("relatedRecipes = %v", doc.Meta.RelatedRecipes)
	}
	if len(doc.Meta.Tags) != 2 {
		t.Errorf("tags = %v", doc.Meta.Tags)
	}
}

func TestParse_CodeBlocks(t *testing.T) {
	doc := Parse("configure-alertmanager.md", []byte(sampleDoc))
	if len(doc.CodeBlocks) != 2 {
		t.Fatalf("code blocks = %d, want 2", len(doc.CodeBlocks))
	}
	if doc.CodeBlocks[0].Language != "yaml" {
		t.Errorf("first block language = %q", doc.CodeBlocks[0].Language)
	}
	if doc.CodeBlocks[1].Language != "bash" {
		t.Errorf("second block language = %q", doc.CodeBlocks[1].Language)
	}
	// Lines are file lines, counting the frontmatter block.
	if doc.CodeBlocks[0].Line != 28 {
		t.Errorf("first block line = %d, want 28", doc.CodeBlocks[0].Line)
	}
	if doc.CodeBlocks[1].Line != 35 {
		t.Errorf("second block line = %d, want 35", doc.CodeBlocks[1].Line)
	}
}

func TestParse_CodeBlockLineCountsFrontmatter(t *testing.T) {
	input := "---\n" + // 1
		"title: T\n" + // 2
		"description: D\n" + // 3
		"---\n" + // 4
		"\n" + // 5
		"Intro.\n" + // 6
		"```\n" + // 7
		"no language\n" + // 8
		"```\n" // 9
	doc := Parse("x.md", []byte(input))
	if len(doc.CodeBlocks) != 1 {
		t.Fatalf("code blocks = %d, want 1", len(doc.CodeBlocks))
	}
	if doc.CodeBlocks[0].Line != 7 {
		t.Errorf("fence line = %d, want 7", doc.CodeBlocks[0].Line)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	doc := Parse("plain.md", []byte("# Just a heading\nSome text.\n"))
	if doc.HasFrontmatter {
		t.Error("expected no frontmatter")
	}
	if doc.Title != "Just a heading" {
		t.Errorf("title = %q", doc.Title)
	}
	if doc.Body == "" {
		t.Error("body should be preserved")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: bad: yaml: {{{\n---\nBody text\n")
	doc := Parse("bad.md", input)
	if doc.MetaErr == nil {
		t.Fatal("expected MetaErr for invalid YAML")
	}
	// The whole file becomes the body so the recipe is still readable.
	if doc.Body != string(input) {
		t.Errorf("body = %q", doc.Body)
	}
}

func TestParse_MissingLanguageTag(t *testing.T) {
	body := "text\n```\nno language\n```\n"
	doc := Parse("x.md", []byte(body))
	if len(doc.CodeBlocks) != 1 {
		t.Fatalf("code blocks = %d, want 1", len(doc.CodeBlocks))
	}
	if doc.CodeBlocks[0].Language != "" {
		t.Errorf("language = %q, want empty", doc.CodeBlocks[0].Language)
	}
}

func TestParse_UnterminatedFence(t *testing.T) {
	doc := Parse("x.md", []byte("```yaml\nkey: value\n"))
	if len(doc.CodeBlocks) != 1 {
		t.Fatalf("code blocks = %d, want 1", len(doc.CodeBlocks))
	}
}

func TestSlugFromPath(t *testing.T) {
	cases := map[string]string{
		"configure-rbac.md":          "configure-rbac",
		"networking/gateway-api.md":  "networking/gateway-api",
		"networking\\gateway-api.md": "networking/gateway-api",
	}
	for in, want := range cases {
		if got := SlugFromPath(in); got != want {
			t.Errorf("SlugFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBaseSlug(t *testing.T) {
	if got := BaseSlug("networking/gateway-api"); got != "gateway-api" {
		t.Errorf("BaseSlug = %q", got)
	}
}

func TestDecodeFrontmatter(t *testing.T) {
	meta, err := DecodeFrontmatter([]byte("title: T\ndescription: D\ntags: [a, b]\n"))
	if err != nil {
		t.Fatalf("DecodeFrontmatter: %v", err)
	}
	if meta.Title != "T" || len(meta.Tags) != 2 {
		t.Errorf("meta = %+v", meta)
	}
}

func TestDeriveTitle_FrontmatterWins(t *testing.T) {
	if got := deriveTitle("FM Title", "# H1 Title\ntext"); got != "FM Title" {
		t.Errorf("title = %q", got)
	}
}
