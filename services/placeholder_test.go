package services

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestPlaceholderWrite(t *testing.T) {
	dir := t.TempDir()
	gen := NewPlaceholderGenerator()

	path := filepath.Join(dir, "slide-1.jpg")
	if ok := gen.Write(path, 1, "Quarterly Review", false); !ok {
		t.Fatal("placeholder write failed")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("placeholder file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("placeholder file is empty")
	}
}

func TestPlaceholderDeterministic(t *testing.T) {
	dir := t.TempDir()
	gen := NewPlaceholderGenerator()

	a := filepath.Join(dir, "a.jpg")
	b := filepath.Join(dir, "b.jpg")
	gen.Write(a, 5, "Deck", true)
	gen.Write(b, 5, "Deck", true)

	dataA, err := os.ReadFile(a)
	if err != nil {
		t.Fatal(err)
	}
	dataB, err := os.ReadFile(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dataA, dataB) {
		t.Fatal("same inputs produced different placeholders")
	}
}

func TestPlaceholderDistinctByParity(t *testing.T) {
	dir := t.TempDir()
	gen := NewPlaceholderGenerator()

	even := filepath.Join(dir, "even.jpg")
	odd := filepath.Join(dir, "odd.jpg")
	gen.Write(even, 2, "Deck", true)
	gen.Write(odd, 3, "Deck", true)

	dataEven, err := os.ReadFile(even)
	if err != nil {
		t.Fatal(err)
	}
	dataOdd, err := os.ReadFile(odd)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(dataEven, dataOdd) {
		t.Fatal("even and odd distinct placeholders should differ")
	}
}

func TestPlaceholderBadPath(t *testing.T) {
	gen := NewPlaceholderGenerator()

	// A path under a file cannot be created; this must report failure
	// without panicking, never an error escaping to the chain.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if ok := gen.Write(filepath.Join(blocker, "sub", "slide-1.jpg"), 1, "Deck", false); ok {
		t.Fatal("expected write failure under a regular file")
	}
}

func TestPlaceholderTexts(t *testing.T) {
	if got := GenericText(4); got != "Slide 4" {
		t.Fatalf("unexpected generic text: %q", got)
	}
	if got := ErrorText(7); got != "Slide 7 (Error Placeholder)" {
		t.Fatalf("unexpected error text: %q", got)
	}
}
