package dates

import (
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	// 23:30 UTC is already the next day in Oslo
	now := time.Date(2025, time.March, 1, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		expr     string
		expected string
	}{
		{name: "empty is today", expr: "", expected: "2025-03-02"},
		{name: "today", expr: "today", expected: "2025-03-02"},
		{name: "tomorrow", expr: "Tomorrow", expected: "2025-03-03"},
		{name: "yesterday", expr: "yesterday", expected: "2025-03-01"},
		{name: "positive offset", expr: "+30", expected: "2025-04-01"},
		{name: "negative offset", expr: "-2", expected: "2025-02-28"},
		{name: "literal date", expr: " 2024-12-31 ", expected: "2024-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Resolve(tt.expr, now)
			if err != nil {
				t.Fatalf("Resolve(%q) unexpected error: %v", tt.expr, err)
			}
			if result != tt.expected {
				t.Errorf("Resolve(%q) expected %q, got %q", tt.expr, tt.expected, result)
			}
		})
	}
}

func TestResolveInvalid(t *testing.T) {
	now := time.Now()
	for _, expr := range []string{"2025-13-01", "02/03/2025", "+x", "soon"} {
		if _, err := Resolve(expr, now); err == nil {
			t.Errorf("Resolve(%q) expected an error", expr)
		}
	}
}

func TestResolveYear(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		expr     string
		expected int
	}{
		{expr: "", expected: 2025},
		{expr: "this", expected: 2025},
		{expr: "last", expected: 2024},
		{expr: "next", expected: 2026},
		{expr: "2019", expected: 2019},
	}

	for _, tt := range tests {
		result, err := ResolveYear(tt.expr, now)
		if err != nil {
			t.Fatalf("ResolveYear(%q) unexpected error: %v", tt.expr, err)
		}
		if result != tt.expected {
			t.Errorf("ResolveYear(%q) expected %d, got %d", tt.expr, tt.expected, result)
		}
	}

	if _, err := ResolveYear("-1", now); err == nil {
		t.Errorf("ResolveYear(\"-1\") expected an error")
	}
}

func TestInMarket(t *testing.T) {
	winter := InMarket(time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC))
	if _, offset := winter.Zone(); offset != 3600 {
		t.Errorf("InMarket() on winter date expected offset 3600 seconds, got %d", offset)
	}

	summer := InMarket(time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC))
	if _, offset := summer.Zone(); offset != 7200 {
		t.Errorf("InMarket() on summer date expected offset 7200 seconds, got %d", offset)
	}
}
