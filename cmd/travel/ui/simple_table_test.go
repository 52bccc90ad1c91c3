package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestSimpleTable(t *testing.T) {
	table := NewSimpleTable("Markers", "No", "Nama Tempat")
	table.AddRow("1", "Gedung Sate")

	view := ansi.Strip(table.View(DefaultStyles()))
	t.Logf("View:\n%q", view)

	if !strings.Contains(view, "Markers") {
		t.Error("View missing title")
	}
	if !strings.Contains(view, "Gedung Sate") {
		t.Error("View missing cell content")
	}
	if !strings.Contains(view, "No | Nama Tempat") {
		t.Errorf("View missing header row: %q", view)
	}
}

func TestSimpleTable_RowsAreNormalized(t *testing.T) {
	table := NewSimpleTable("", "A", "B")
	table.MaxCell = 6
	table.AddRow("only")
	table.AddRow("one", "a long value", "extra")

	if len(table.Rows[0]) != 2 || table.Rows[0][1] != "" {
		t.Fatalf("short row not padded: %#v", table.Rows[0])
	}
	if got := table.Rows[1]; len(got) != 2 || got[1] != "a l..." {
		t.Fatalf("long row not trimmed: %#v", got)
	}
}

func TestSimpleTable_Empty(t *testing.T) {
	table := NewSimpleTable("Markers", "No")
	table.Empty = "Tidak ada data tempat"

	view := ansi.Strip(table.View(DefaultStyles()))
	if !strings.Contains(view, "Tidak ada data tempat") {
		t.Errorf("empty text missing: %q", view)
	}
	if strings.Contains(view, "---") {
		t.Errorf("divider rendered for empty table: %q", view)
	}
}
