package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angas/nordpool-go/config"
	"github.com/angas/nordpool-go/database"
	"github.com/angas/nordpool-go/logging"
)

func TestRun(t *testing.T) {
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Path + "?" + r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"deliveryDateCET":"2025-03-02"}`))
	}))
	defer server.Close()

	dir := t.TempDir()
	job := config.AppConfigJob{
		Endpoint: "SystemPrice",
		Date:     "2025-03-02",
		Params:   []string{"resolution=60"},
		Save:     true,
	}

	var out bytes.Buffer
	if err := run(&out, job, server.URL+"/api", dir); err != nil {
		t.Fatalf("run() unexpected error: %v", err)
	}

	expected := "/api/DayAheadSystem?currency=EUR&date=2025-03-02&resolution=60"
	if query != expected {
		t.Errorf("request expected %q, got %q", expected, query)
	}
	if _, err := os.Stat(filepath.Join(dir, "SystemPrice.json")); err != nil {
		t.Errorf("expected saved response: %v", err)
	}
	expectedOut := "{\n    \"deliveryDateCET\": \"2025-03-02\"\n}\n"
	if out.String() != expectedOut {
		t.Errorf("output expected %q, got %q", expectedOut, out.String())
	}
}

func TestRunUnknownEndpoint(t *testing.T) {
	if err := run(io.Discard, config.AppConfigJob{Endpoint: "Nope"}, "http://127.0.0.1:1/api", t.TempDir()); err == nil {
		t.Errorf("expected an error")
	}
}

func TestReadArchive(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nordpool.db")
	db, err := database.New(ctx, dbPath)
	if err != nil {
		t.Fatalf("database.New() unexpected error: %v", err)
	}
	for i, body := range []string{`{"v":1}`, `{"v":2}`} {
		_, err := db.SaveResponse(ctx, database.ResponseRow{
			Endpoint:  "SystemPrice",
			Query:     "date=2025-03-02",
			FetchedAt: time.Date(2025, time.March, 2, 12, i, 0, 0, time.UTC),
			Body:      body,
		})
		if err != nil {
			t.Fatalf("SaveResponse() unexpected error: %v", err)
		}
	}
	if err := db.SaveLogEntry(ctx, logging.LogEntry{Timestamp: time.Now(), Level: int(slog.LevelInfo), Message: "fetch task done"}); err != nil {
		t.Fatalf("SaveLogEntry() unexpected error: %v", err)
	}
	db.Close()

	t.Run("latest", func(t *testing.T) {
		var out bytes.Buffer
		if err := readArchive(&out, dbPath, "SystemPrice", true, 0, 0); err != nil {
			t.Fatalf("readArchive() unexpected error: %v", err)
		}
		expected := "{\n    \"v\": 2\n}\n"
		if out.String() != expected {
			t.Errorf("output expected %q, got %q", expected, out.String())
		}
	})

	t.Run("history", func(t *testing.T) {
		var out bytes.Buffer
		if err := readArchive(&out, dbPath, "SystemPrice", false, 5, 0); err != nil {
			t.Fatalf("readArchive() unexpected error: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		if len(lines) != 2 || !strings.HasPrefix(lines[0], "2 ") {
			t.Errorf("expected two rows newest first, got %q", out.String())
		}
	})

	t.Run("log", func(t *testing.T) {
		var out bytes.Buffer
		if err := readArchive(&out, dbPath, "", false, 0, 10); err != nil {
			t.Fatalf("readArchive() unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "fetch task done") {
			t.Errorf("expected the log entry, got %q", out.String())
		}
	})

	t.Run("nothing archived", func(t *testing.T) {
		if err := readArchive(io.Discard, dbPath, "DayAheadPrices", true, 0, 0); err == nil {
			t.Errorf("expected an error")
		}
	})
}

func TestReadMissingArchive(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nordpool.db")
	if err := readArchive(io.Discard, dbPath, "SystemPrice", true, 0, 0); err == nil {
		t.Errorf("expected an error")
	}
	if _, err := os.Stat(dbPath); err == nil {
		t.Errorf("reading must not create an archive")
	}
}
