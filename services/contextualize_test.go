package services

import (
	"strings"
	"testing"
)

func TestContextualizePrependsProvenance(t *testing.T) {
	got := Contextualize("segment body", "Lecture 1", "lecture1.pdf", nil)

	if !strings.HasPrefix(got, "Source file: lecture1.pdf\n") {
		t.Errorf("missing source file header: %q", got)
	}
	if !strings.Contains(got, "Document title: Lecture 1\n") {
		t.Errorf("missing document title: %q", got)
	}
	if !strings.HasSuffix(got, "\n\nsegment body") {
		t.Errorf("segment should follow a blank line: %q", got)
	}
}

func TestContextualizeOmitsEmptyTitle(t *testing.T) {
	got := Contextualize("body", "", "notes.txt", nil)
	if strings.Contains(got, "Document title:") {
		t.Errorf("empty title should be omitted: %q", got)
	}
}

func TestContextualizeExtraMetadataSorted(t *testing.T) {
	extra := map[string]string{"sheets": "3", "pages": "12"}

	a := Contextualize("body", "t", "f.xlsx", extra)
	b := Contextualize("body", "t", "f.xlsx", extra)
	if a != b {
		t.Error("enrichment is not deterministic for identical input")
	}
	if strings.Index(a, "pages: 12") > strings.Index(a, "sheets: 3") {
		t.Errorf("extra keys not sorted: %q", a)
	}
}
