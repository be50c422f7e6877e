package task

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/angas/nordpool-go/config"
	"github.com/angas/nordpool-go/database"
	"github.com/angas/nordpool-go/dates"
	"github.com/angas/nordpool-go/nordpool"
)

type fakeQuerier struct {
	calls    int
	name     string
	args     nordpool.Args
	response any
	err      error
}

func (f *fakeQuerier) Query(ctx context.Context, name string, a nordpool.Args, opts ...nordpool.CallOption) (any, error) {
	f.calls++
	f.name = name
	f.args = a
	return f.response, f.err
}

type fakeArchive struct {
	rows []database.ResponseRow
	err  error
}

func (f *fakeArchive) SaveResponse(ctx context.Context, row database.ResponseRow) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.rows = append(f.rows, row)
	return int64(len(f.rows)), nil
}

type fakePublisher struct {
	topics   []string
	payloads []string
}

func (f *fakePublisher) Publish(ctx context.Context, endpoint string, payload []byte) error {
	f.topics = append(f.topics, endpoint)
	f.payloads = append(f.payloads, string(payload))
	return nil
}

func TestFetchJobRun(t *testing.T) {
	querier := &fakeQuerier{response: map[string]any{"deliveryDateCET": "2025-03-03"}}
	archive := &fakeArchive{}
	publisher := &fakePublisher{}

	job := NewFetchJob(config.AppConfigJob{
		Name:     "prices",
		Endpoint: "DayAheadPrices",
		Date:     "tomorrow",
		Areas:    []string{"NO1", "SE3"},
	}, querier, archive, publisher)
	job.now = func() time.Time { return time.Date(2025, time.March, 2, 12, 0, 0, 0, time.UTC) }

	result, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	if querier.name != "DayAheadPrices" || querier.args.Date.String() != "2025-03-03" {
		t.Errorf("unexpected query %s %+v", querier.name, querier.args)
	}
	if result.ResponseId != 1 || len(archive.rows) != 1 {
		t.Fatalf("expected one archived response, got %d", len(archive.rows))
	}

	expectedBody := `{"deliveryDateCET":"2025-03-03"}`
	if archive.rows[0].Body != expectedBody {
		t.Errorf("archived body expected %q, got %q", expectedBody, archive.rows[0].Body)
	}
	if archive.rows[0].Query != result.Query {
		t.Errorf("archived query expected %q, got %q", result.Query, archive.rows[0].Query)
	}
	if len(publisher.payloads) != 1 || publisher.payloads[0] != expectedBody || publisher.topics[0] != "DayAheadPrices" {
		t.Errorf("unexpected publish %v %v", publisher.topics, publisher.payloads)
	}
}

func TestFetchJobWithoutSinks(t *testing.T) {
	querier := &fakeQuerier{response: []any{}}
	job := NewFetchJob(config.AppConfigJob{Endpoint: "AuctionDataAvailability"}, querier, nil, nil)

	result, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if result.ResponseId != 0 {
		t.Errorf("expected no response id, got %d", result.ResponseId)
	}
}

func TestFetchJobErrors(t *testing.T) {
	queryErr := &nordpool.RemoteError{Endpoint: "SystemPrice", StatusCode: 500}
	querier := &fakeQuerier{err: queryErr}
	publisher := &fakePublisher{}

	job := NewFetchJob(config.AppConfigJob{Endpoint: "SystemPrice"}, querier, &fakeArchive{}, publisher)
	if _, err := job.Run(context.Background()); !errors.Is(err, queryErr) {
		t.Errorf("expected the query error, got %v", err)
	}
	if len(publisher.payloads) != 0 {
		t.Errorf("nothing should be published after a failed query")
	}

	archiveErr := errors.New("disk full")
	querier = &fakeQuerier{response: []any{}}
	job = NewFetchJob(config.AppConfigJob{Endpoint: "SystemPrice"}, querier, &fakeArchive{err: archiveErr}, publisher)
	if _, err := job.Run(context.Background()); !errors.Is(err, archiveErr) {
		t.Errorf("expected the archive error, got %v", err)
	}

	querier = &fakeQuerier{}
	job = NewFetchJob(config.AppConfigJob{Endpoint: "Nope"}, querier, nil, nil)
	if _, err := job.Run(context.Background()); err == nil {
		t.Errorf("expected an error for an unknown endpoint")
	}
	if querier.calls != 0 {
		t.Errorf("unknown endpoint must not be queried")
	}
}

func TestNewTasks(t *testing.T) {
	logger := slog.Default()
	querier := &fakeQuerier{}

	tests := []struct {
		name    string
		jobs    []config.AppConfigJob
		wantErr bool
	}{
		{
			name: "valid",
			jobs: []config.AppConfigJob{
				{Endpoint: "DayAheadPrices", RunAt: "15 13 * * *", Date: "tomorrow", Areas: []string{"NO1"}},
				{Name: "system", Endpoint: "SystemPrice", RunAt: "@hourly"},
			},
		},
		{
			name:    "unknown endpoint",
			jobs:    []config.AppConfigJob{{Endpoint: "Nope", RunAt: "@hourly"}},
			wantErr: true,
		},
		{
			name:    "bad schedule",
			jobs:    []config.AppConfigJob{{Endpoint: "SystemPrice", RunAt: "every now and then"}},
			wantErr: true,
		},
		{
			name: "duplicate name",
			jobs: []config.AppConfigJob{
				{Endpoint: "SystemPrice", RunAt: "@hourly"},
				{Endpoint: "SystemPrice", RunAt: "@daily"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := newTasks(logger, tt.jobs, querier, nil, nil, func() {})
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("newTasks() unexpected error: %v", err)
			}
			if len(tasks.FetchTasks) != len(tt.jobs) {
				t.Errorf("expected %d fetch tasks, got %d", len(tt.jobs), len(tasks.FetchTasks))
			}
			if tasks.Location() != dates.MarketLocation() {
				t.Errorf("expected schedules in market time, got %s", tasks.Location())
			}
			if names := tasks.Names(); len(names) != len(tt.jobs)+1 || names[len(names)-1] != "maintenance" {
				t.Errorf("unexpected task names %v", names)
			}
		})
	}
}

func TestRunOnStart(t *testing.T) {
	querier := &fakeQuerier{response: []any{}}
	tasks, err := newTasks(slog.Default(), []config.AppConfigJob{
		{Endpoint: "SystemPrice", RunAt: "@daily", RunOnStart: true},
		{Endpoint: "DayAheadPrices", RunAt: "@daily", Areas: []string{"NO1"}},
	}, querier, nil, nil, nil)
	if err != nil {
		t.Fatalf("newTasks() unexpected error: %v", err)
	}

	if err := tasks.Run(); err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	<-tasks.Stop().Done()

	if querier.calls != 1 || querier.name != "SystemPrice" {
		t.Errorf("expected only SystemPrice to run on start, got %d calls (%s)", querier.calls, querier.name)
	}
}

func TestBundledConfigSaveJob(t *testing.T) {
	configPath, err := filepath.Abs(filepath.Join("..", "config", "config.yaml"))
	if err != nil {
		t.Fatalf("resolving config path: %v", err)
	}
	cnfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	var job config.AppConfigJob
	for _, j := range cnfg.Jobs {
		if j.Save {
			job = j
			break
		}
	}
	if job.Endpoint == "" {
		t.Fatalf("expected a job with save enabled in %s", configPath)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"multiAreaEntries":[]}`))
	}))
	defer server.Close()

	// output_dir is relative, start from a fresh working directory
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() unexpected error: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir() unexpected error: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	client := nordpool.New(
		nordpool.WithBaseURL(server.URL+"/api"),
		nordpool.WithOutputDir(cnfg.Api.GetOutputDir()))
	archive := &fakeArchive{}
	publisher := &fakePublisher{}

	if _, err := NewFetchJob(job, client, archive, publisher).Run(context.Background()); err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	saved := filepath.Join(cnfg.Api.GetOutputDir(), nordpool.FileName(job.Endpoint))
	if _, err := os.Stat(saved); err != nil {
		t.Errorf("expected saved response %s: %v", saved, err)
	}
	if len(archive.rows) != 1 || len(publisher.payloads) != 1 {
		t.Errorf("expected the response archived and published, got %d rows and %d messages",
			len(archive.rows), len(publisher.payloads))
	}
}
