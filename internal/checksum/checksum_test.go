package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256("")
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %s", got)
	}
	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Error("different inputs share a digest")
	}
}

func TestRevision(t *testing.T) {
	data := []byte("```kanban\n[]\n```\n")
	rev := Revision(data)
	if len(rev) != revisionLen {
		t.Fatalf("len = %d", len(rev))
	}
	if rev != Sum(data)[:revisionLen] {
		t.Errorf("revision %s is not a prefix of the digest", rev)
	}
}
