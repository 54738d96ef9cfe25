package filter

import (
	"testing"

	"github.com/starford/kanbo/internal/board"
)

func TestVisible(t *testing.T) {
	task := &board.Task{Title: "Write API Docs"}
	cases := map[string]bool{
		"":          true,
		"   ":       true,
		"api":       true,
		"  DOCS ":   true,
		"write api": true,
		"spec":      false,
	}
	for raw, want := range cases {
		if got := NewQuery(raw).Visible(task); got != want {
			t.Errorf("query %q: visible = %v, want %v", raw, got, want)
		}
	}
}

func TestHidden_FollowsRename(t *testing.T) {
	b := board.New()
	_ = b.AddTask(&board.Task{Title: "alpha"})
	_ = b.AddTask(&board.Task{Title: "beta"})
	q := NewQuery("alp")

	if h := q.Hidden(b); !h["beta"] || h["alpha"] {
		t.Errorf("hidden = %v", h)
	}
	_ = b.RenameTask("beta", "alpine")
	if h := q.Hidden(b); len(h) != 0 {
		t.Errorf("after rename hidden = %v", h)
	}
}
