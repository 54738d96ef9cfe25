package parser

import (
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Sprint\ntags:\n  - work\n  - kanban\n---\n# Sprint\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Sprint" {
		t.Errorf("title = %q, want %q", r.Title, "Sprint")
	}
	if len(r.Tags) < 2 || r.Tags[0] != "work" || r.Tags[1] != "kanban" {
		t.Errorf("tags = %v, want [work kanban]", r.Tags)
	}
	if r.Body != "# Sprint\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	r, err := Parse([]byte("# Just a heading\nSome text.\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q", r.Title)
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	r, err := Parse([]byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
}

func TestExtractTags_IgnoresFencedCode(t *testing.T) {
	body := "Planning #beta\n\n```kanban\n// owner #inside\n[]\n```\n"
	tags := extractTags(body, map[string]any{"tags": []any{"alpha"}})
	if len(tags) != 2 || tags[0] != "alpha" || tags[1] != "beta" {
		t.Errorf("tags = %v, want [alpha beta]", tags)
	}
}

func TestDeriveTitle_FrontmatterOverH1(t *testing.T) {
	title := deriveTitle(map[string]any{"title": "FM Title"}, "# H1 Title\ntext")
	if title != "FM Title" {
		t.Errorf("title = %q", title)
	}
}

func TestFences_SpansAndLanguage(t *testing.T) {
	doc := "# Plan\n\n```kanban\n[]\n```\n\n```go\nfunc main() {}\n```\n\n``` KanBan \n{\"tasks\":[]}\n```\n"
	fences := Fences([]byte(doc), "kanban")
	if len(fences) != 2 {
		t.Fatalf("len = %d, want 2", len(fences))
	}
	if got := doc[fences[0].Start:fences[0].End]; got != "[]\n" {
		t.Errorf("first inner = %q", got)
	}
	if got := doc[fences[1].Start:fences[1].End]; got != "{\"tasks\":[]}\n" {
		t.Errorf("second inner = %q", got)
	}
	if fences[0].Nested || fences[1].Nested {
		t.Error("top-level fences reported nested")
	}
}

func TestFences_EmptyBlock(t *testing.T) {
	doc := "```kanban\n```\ntail\n"
	fences := Fences([]byte(doc), "kanban")
	if len(fences) != 1 {
		t.Fatalf("len = %d", len(fences))
	}
	f := fences[0]
	if f.Start != f.End || f.Start != len("```kanban\n") {
		t.Errorf("empty span = [%d,%d)", f.Start, f.End)
	}
}

func TestFences_IgnoresFenceInsideOtherFence(t *testing.T) {
	doc := "~~~markdown\n```kanban\n[]\n```\n~~~\n"
	if fences := Fences([]byte(doc), "kanban"); len(fences) != 0 {
		t.Errorf("fence inside code reported: %+v", fences)
	}
}

func TestFences_NestedInBlockquote(t *testing.T) {
	doc := "> ```kanban\n> []\n> ```\n"
	fences := Fences([]byte(doc), "kanban")
	if len(fences) != 1 || !fences[0].Nested {
		t.Errorf("fences = %+v, want one nested", fences)
	}
}
