package config

import (
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SLOT_STEP", "abc")
	if got := Int("SLOT_STEP", 30); got != 30 {
		t.Fatalf("expected fallback 30, got %d", got)
	}
	t.Setenv("SLOT_STEP", "-5")
	if got := Int("SLOT_STEP", 30); got != 30 {
		t.Fatalf("expected fallback for negative value, got %d", got)
	}
	t.Setenv("SLOT_STEP", " 15 ")
	if got := Int("SLOT_STEP", 30); got != 15 {
		t.Fatalf("expected 15, got %d", got)
	}
}

func TestPortValidation(t *testing.T) {
	t.Setenv("PORT", "70000")
	if _, err := Port("PORT", "8080"); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
	t.Setenv("PORT", "")
	p, err := Port("PORT", "8080")
	if err != nil || p != "8080" {
		t.Fatalf("expected fallback port, got %q err=%v", p, err)
	}
}

func TestListAndDuration(t *testing.T) {
	t.Setenv("ORIGINS", "https://a.example, ,https://b.example")
	got := List("ORIGINS")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected list: %v", got)
	}

	t.Setenv("POLL", "5s")
	if d := Duration("POLL", time.Second); d != 5*time.Second {
		t.Fatalf("expected 5s, got %s", d)
	}
	t.Setenv("POLL", "soon")
	if d := Duration("POLL", time.Second); d != time.Second {
		t.Fatalf("expected fallback, got %s", d)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("FLAG", "yes")
	if !Bool("FLAG", false) {
		t.Fatal("expected true")
	}
	t.Setenv("FLAG", "maybe")
	if Bool("FLAG", false) {
		t.Fatal("expected fallback false")
	}
}
