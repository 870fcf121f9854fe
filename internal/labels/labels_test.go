package labels

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestImageNet(t *testing.T) {
	table := ImageNet()
	if len(table) != 1000 {
		t.Fatalf("len = %d, want 1000", len(table))
	}
	checks := map[int]string{
		0:   "tench",
		1:   "goldfish",
		281: "tabby",
		398: "abacus",
		999: "toilet tissue",
	}
	for i, want := range checks {
		if got := table.Name(i); got != want {
			t.Errorf("Name(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestNameOutOfRange(t *testing.T) {
	table := Table{"a", "b"}
	for _, i := range []int{-1, 2, 1000} {
		if got := table.Name(i); got != "unknown" {
			t.Errorf("Name(%d) = %q, want unknown", i, got)
		}
	}
}

func TestParseSkipsBlankLines(t *testing.T) {
	table, err := Parse(strings.NewReader("cat\n\n  dog  \n\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(table) != 2 || table[0] != "cat" || table[1] != "dog" {
		t.Errorf("Parse = %q", table)
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := Parse(strings.NewReader("\n \n")); err == nil {
		t.Error("expected error for empty labels")
	}
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	if err := os.WriteFile(path, []byte("zero\none\n"), 0644); err != nil {
		t.Fatal(err)
	}
	table, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if table.Name(1) != "one" {
		t.Errorf("Name(1) = %q", table.Name(1))
	}
	if _, err := FromFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
