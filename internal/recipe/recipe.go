// Package recipe parses Markdown recipe documents: YAML frontmatter,
// fenced code blocks, and slug/title derivation.
package recipe

import (
	"bytes"
	"path"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/greg4fun/kubernetesrecipes.github.io-sub001/internal/models"
)

const frontmatterDelim = "---"

// Document holds the output of parsing a recipe file.
type Document struct {
	Slug           string
	Path           string
	Title          string
	Meta           models.Frontmatter
	Body           string
	CodeBlocks     []models.CodeBlock
	HasFrontmatter bool
	// MetaErr is set when a frontmatter block is present but is not valid
	// YAML. The document is still usable; the linter reports the error.
	MetaErr error
}

// Parse extracts frontmatter, body, and code blocks from raw Markdown bytes.
// Invalid frontmatter does not fail the parse: the whole file becomes the
// body and MetaErr records the decode error.
func Parse(filePath string, data []byte) *Document {
	doc := &Document{
		Slug: SlugFromPath(filePath),
		Path: filePath,
	}

	doc.HasFrontmatter = hasFrontmatter(data)

	var meta models.Frontmatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err == nil {
		doc.Meta = meta
		doc.Body = string(body)
	} else if block, rest, ok := splitFrontmatter(data); ok {
		// Split the block by hand and decode it directly; this salvages
		// documents the combined parser rejects on format grounds.
		if m, derr := DecodeFrontmatter(block); derr == nil {
			doc.Meta = m
			doc.Body = string(rest)
		} else {
			doc.MetaErr = derr
			doc.Body = string(data)
		}
	} else {
		doc.MetaErr = err
		doc.Body = string(data)
	}

	// Fence lines are reported against the file, not the stripped body,
	// so carry the number of lines the frontmatter block consumed.
	bodyOffset := strings.Count(string(data), "\n") - strings.Count(doc.Body, "\n")

	doc.Title = deriveTitle(doc.Meta.Title, doc.Body)
	doc.CodeBlocks = extractCodeBlocks(doc.Body, bodyOffset)
	return doc
}

// splitFrontmatter splits data into the raw YAML block between the
// delimiters and the remaining body. ok is false when no complete
// delimiter pair opens the file.
func splitFrontmatter(data []byte) (block, body []byte, ok bool) {
	rest := bytes.TrimLeft(data, "\r\n")
	lines := strings.Split(string(rest), "\n")
	if len(lines) < 2 || strings.TrimRight(lines[0], "\r") != frontmatterDelim {
		return nil, nil, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r") == frontmatterDelim {
			block = []byte(strings.Join(lines[1:i], "\n"))
			body = []byte(strings.Join(lines[i+1:], "\n"))
			return block, body, true
		}
	}
	return nil, nil, false
}

// SlugFromPath converts a content-relative path into a recipe slug:
// forward slashes, no .md extension.
func SlugFromPath(p string) string {
	s := strings.ReplaceAll(p, "\\", "/")
	s = strings.TrimSuffix(s, ".md")
	return strings.Trim(s, "/")
}

// PathFromSlug is the inverse of SlugFromPath.
func PathFromSlug(slug string) string {
	return strings.Trim(slug, "/") + ".md"
}

// BaseSlug returns the final path element of a slug. relatedRecipes entries
// in the corpus reference recipes by base slug regardless of directory.
func BaseSlug(slug string) string {
	return path.Base(slug)
}

func hasFrontmatter(data []byte) bool {
	trimmed := bytes.TrimLeft(data, "\n\r")
	return bytes.HasPrefix(trimmed, []byte(frontmatterDelim))
}

// deriveTitle returns the frontmatter title if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(metaTitle, body string) string {
	if metaTitle != "" {
		return metaTitle
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// extractCodeBlocks scans the body for fenced code blocks and records the
// declared language (first word of the info string) and the 1-based file
// line number of the opening fence. lineOffset is the number of file lines
// preceding the body (the frontmatter block).
func extractCodeBlocks(body string, lineOffset int) []models.CodeBlock {
	var out []models.CodeBlock
	var open *models.CodeBlock
	var fence string
	var buf strings.Builder

	for i, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimLeft(line, " ")
		marker := fenceMarker(trimmed)

		if open == nil {
			if marker == "" {
				continue
			}
			fence = marker
			info := strings.TrimSpace(strings.TrimPrefix(trimmed, marker))
			lang := info
			if j := strings.IndexAny(info, " \t"); j >= 0 {
				lang = info[:j]
			}
			open = &models.CodeBlock{
				Language: strings.ToLower(lang),
				Line:     lineOffset + i + 1,
			}
			buf.Reset()
			continue
		}

		// Closing fence must use the same marker character and be at least
		// as long as the opener, with no info string.
		if marker != "" && marker[0] == fence[0] && len(marker) >= len(fence) &&
			strings.TrimSpace(strings.TrimLeft(trimmed, string(marker[0]))) == "" {
			open.Code = buf.String()
			out = append(out, *open)
			open = nil
			continue
		}

		buf.WriteString(line)
		buf.WriteString("\n")
	}

	// Unterminated fence still counts as a block for linting purposes.
	if open != nil {
		open.Code = buf.String()
		out = append(out, *open)
	}
	return out
}

// fenceMarker returns the leading run of fence characters (``` or ~~~),
// or empty string when the line does not open or close a fence.
func fenceMarker(line string) string {
	for _, c := range []byte{'`', '~'} {
		n := 0
		for n < len(line) && line[n] == c {
			n++
		}
		if n >= 3 {
			return line[:n]
		}
	}
	return ""
}

// DecodeFrontmatter decodes a raw YAML frontmatter block into a typed
// Frontmatter. Parse uses it as the fallback decoder for blocks the
// combined frontmatter parser rejects.
func DecodeFrontmatter(block []byte) (models.Frontmatter, error) {
	var meta models.Frontmatter
	err := yaml.Unmarshal(block, &meta)
	return meta, err
}
