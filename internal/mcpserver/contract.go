package mcpserver

// RecipeFormatContract describes the canonical Markdown recipe format that
// LLM consumers should follow when creating or updating recipes.
const RecipeFormatContract = `# Kubernetes Recipe Format Contract

Every Markdown recipe stored in the catalog MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: "Human-readable title"        # REQUIRED – used in search, lists, graph
description: "One-sentence summary"  # REQUIRED – shown in listings and search
category: networking                 # OPTIONAL – e.g. networking, security, storage
difficulty: intermediate             # OPTIONAL – beginner | intermediate | advanced
timeToComplete: "30 minutes"         # OPTIONAL – free-form duration
kubernetesVersion: "1.28+"           # OPTIONAL – minimum or tested version
prerequisites:                       # OPTIONAL – YAML list of plain strings
  - "A running cluster"
  - "kubectl configured"
relatedRecipes:                      # OPTIONAL – slugs of other recipes
  - security/install-cert-manager
tags: [ingress, tls]                 # OPTIONAL – lowercase, kebab-case
publishDate: "2024-03-01"            # OPTIONAL – YYYY-MM-DD
author: "Jane Doe"                   # OPTIONAL
---

# Title repeated as H1

Body text in standard Markdown.
` + "```" + `

## Rules

1. **YAML frontmatter is mandatory.** The ` + "`" + `---` + "`" + ` fences must be the first
   thing in the file (no leading blank lines).
2. **` + "`" + `title` + "`" + ` and ` + "`" + `description` + "`" + ` are required.** Everything else is optional.
3. **Difficulty** must be one of ` + "`" + `beginner` + "`" + `, ` + "`" + `intermediate` + "`" + `, ` + "`" + `advanced` + "`" + ` when present.
4. **Slugs** are the file path without the ` + "`" + `.md` + "`" + ` extension, lowercase
   kebab-case per path element (e.g. ` + "`" + `networking/expose-service-with-ingress` + "`" + `).
5. **relatedRecipes** entries reference other recipes by slug; the full
   slug (` + "`" + `security/install-cert-manager` + "`" + `) or the base name
   (` + "`" + `install-cert-manager` + "`" + `) both resolve.
6. **Code fences** MUST declare a language tag: ` + "```" + `yaml, ` + "```" + `bash, ` + "```" + `go, etc.
   Untagged fences are a lint error.
7. **publishDate** uses the ` + "`" + `YYYY-MM-DD` + "`" + ` format.
8. **Encoding** is UTF-8 with a trailing newline.

## Assets & Images

- Upload assets via the ` + "`" + `upload_asset` + "`" + ` tool. It returns a ` + "`" + `markdownImage` + "`" + `
  field ready to paste into the recipe body.
- Assets are stored in the shared ` + "`" + `assets/` + "`" + ` directory (flat, no sub-folders).
- Reference in recipes using the absolute path: ` + "`" + `![description](/assets/filename.png)` + "`" + `
- Supported formats: png, jpg, jpeg, gif, webp, svg, pdf.
- Do **not** use relative paths like ` + "`" + `./assets/...` + "`" + ` — always use ` + "`" + `/assets/filename` + "`" + `.

## Example

` + "```" + `markdown
---
title: "Expose a Service with Ingress"
description: "Route external HTTP traffic to a Service using an Ingress resource."
category: networking
difficulty: beginner
timeToComplete: "15 minutes"
kubernetesVersion: "1.25+"
tags: [ingress, http]
relatedRecipes:
  - security/install-cert-manager
publishDate: "2024-02-10"
---

# Expose a Service with Ingress

![Traffic flow](/assets/ingress-flow.png)

Apply the Ingress manifest in a fenced yaml block, then verify with
kubectl in a fenced bash block.
` + "```" + `
`
