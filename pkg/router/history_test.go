package router

import "testing"

func TestMemoryHistory(t *testing.T) {
	h := NewMemoryHistory("")
	if h.Location() != "/" {
		t.Errorf("Location() = %q, want /", h.Location())
	}

	h.Push("/a")
	h.Push("/b")
	if h.Len() != 3 || h.Location() != "/b" {
		t.Errorf("after pushes: len = %d, location = %q", h.Len(), h.Location())
	}

	if loc, ok := h.Back(); !ok || loc != "/a" {
		t.Errorf("Back() = %q, %v; want /a, true", loc, ok)
	}
	if loc, ok := h.Forward(); !ok || loc != "/b" {
		t.Errorf("Forward() = %q, %v; want /b, true", loc, ok)
	}
	if _, ok := h.Forward(); ok {
		t.Error("Forward() at the last entry should report false")
	}

	h.Back()
	h.Push("/c")
	entries := h.Entries()
	expected := []string{"/", "/a", "/c"}
	if len(entries) != len(expected) {
		t.Fatalf("Entries() = %v, want %v", entries, expected)
	}
	for i := range expected {
		if entries[i] != expected[i] {
			t.Errorf("Entries()[%d] = %q, want %q", i, entries[i], expected[i])
		}
	}

	h.Replace("/d")
	if h.Location() != "/d" || h.Len() != 3 {
		t.Errorf("after Replace: location = %q, len = %d", h.Location(), h.Len())
	}

	h.Back()
	h.Back()
	if _, ok := h.Back(); ok {
		t.Error("Back() at the first entry should report false")
	}
}
