package task

import (
	"reflect"
	"testing"
	"time"

	"github.com/angas/nordpool-go/config"
	"github.com/angas/nordpool-go/dates"
)

func TestBuildArgs(t *testing.T) {
	now := time.Date(2025, time.March, 2, 23, 30, 0, 0, dates.MarketLocation())

	tests := []struct {
		name         string
		job          config.AppConfigJob
		expectedDate string
		expectedYear int
		expectedOpts int
	}{
		{
			name:         "tomorrow",
			job:          config.AppConfigJob{Endpoint: "DayAheadPrices", Date: "tomorrow", Areas: []string{"NO1"}},
			expectedDate: "2025-03-03",
			expectedOpts: 1,
		},
		{
			name:         "literal date",
			job:          config.AppConfigJob{Endpoint: "SystemPrice", Date: "2024-12-31"},
			expectedDate: "2024-12-31",
			expectedOpts: 1,
		},
		{
			name:         "last year with params",
			job:          config.AppConfigJob{Endpoint: "AggregatePrices", Year: "last", Params: []string{"foo=bar"}},
			expectedDate: "2025-03-02",
			expectedYear: 2024,
			expectedOpts: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, opts, err := BuildArgs(tt.job, now)
			if err != nil {
				t.Fatalf("BuildArgs() unexpected error: %v", err)
			}
			if args.Date.String() != tt.expectedDate {
				t.Errorf("Date expected %q, got %q", tt.expectedDate, args.Date)
			}
			if tt.expectedYear != 0 && args.Year != tt.expectedYear {
				t.Errorf("Year expected %d, got %d", tt.expectedYear, args.Year)
			}
			if len(opts) != tt.expectedOpts {
				t.Errorf("expected %d call options, got %d", tt.expectedOpts, len(opts))
			}
		})
	}
}

func TestBuildArgsErrors(t *testing.T) {
	now := time.Now()
	jobs := map[string]config.AppConfigJob{
		"unknown endpoint": {Endpoint: "Nope"},
		"bad date":         {Endpoint: "SystemPrice", Date: "someday"},
		"bad year":         {Endpoint: "AggregatePrices", Year: "soon"},
		"bad param":        {Endpoint: "SystemPrice", Params: []string{"novalue"}},
	}

	for name, job := range jobs {
		t.Run(name, func(t *testing.T) {
			if _, _, err := BuildArgs(job, now); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestParseParams(t *testing.T) {
	got, err := ParseParams([]string{"a=1", " b = 2 ", "a=3", "c="})
	if err != nil {
		t.Fatalf("ParseParams() unexpected error: %v", err)
	}
	expected := map[string][]string{"a": {"1", "3"}, "b": {"2"}, "c": {""}}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("ParseParams() expected %v, got %v", expected, got)
	}

	for _, bad := range []string{"", "=1", "novalue"} {
		if _, err := ParseParams([]string{bad}); err == nil {
			t.Errorf("ParseParams(%q) expected an error", bad)
		}
	}
}
