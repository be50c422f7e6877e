package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/angas/nordpool-go/config"
	"github.com/angas/nordpool-go/database"
	"github.com/angas/nordpool-go/nordpool"
	"github.com/goccy/go-json"
)

type Querier interface {
	Query(ctx context.Context, name string, a nordpool.Args, opts ...nordpool.CallOption) (any, error)
}

type Archive interface {
	SaveResponse(ctx context.Context, row database.ResponseRow) (int64, error)
}

type Publisher interface {
	Publish(ctx context.Context, endpoint string, payload []byte) error
}

type FetchJob struct {
	job       config.AppConfigJob
	client    Querier
	archive   Archive
	publisher Publisher
	now       func() time.Time
}

// NewFetchJob returns a job that queries, archives and publishes. archive
// and publisher may be nil.
func NewFetchJob(job config.AppConfigJob, client Querier, archive Archive, publisher Publisher) *FetchJob {
	return &FetchJob{
		job:       job,
		client:    client,
		archive:   archive,
		publisher: publisher,
		now:       time.Now,
	}
}

type FetchResult struct {
	Endpoint   string
	Query      string
	Payload    any
	ResponseId int64
}

func (f *FetchJob) Run(ctx context.Context) (FetchResult, error) {
	args, opts, err := BuildArgs(f.job, f.now())
	if err != nil {
		return FetchResult{}, err
	}

	payload, err := f.client.Query(ctx, f.job.Endpoint, args, opts...)
	if err != nil {
		return FetchResult{}, fmt.Errorf("job %s: %w", f.job.GetName(), err)
	}

	result := FetchResult{Endpoint: f.job.Endpoint, Query: describe(args), Payload: payload}

	if f.archive == nil && f.publisher == nil {
		return result, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return result, fmt.Errorf("job %s: encoding response: %w", f.job.GetName(), err)
	}

	if f.archive != nil {
		id, err := f.archive.SaveResponse(ctx, database.ResponseRow{
			Endpoint:  f.job.Endpoint,
			Query:     result.Query,
			FetchedAt: f.now(),
			Body:      string(body),
		})
		if err != nil {
			return result, fmt.Errorf("job %s: %w", f.job.GetName(), err)
		}
		result.ResponseId = id
	}

	if f.publisher != nil {
		if err := f.publisher.Publish(ctx, f.job.Endpoint, body); err != nil {
			return result, fmt.Errorf("job %s: %w", f.job.GetName(), err)
		}
	}

	return result, nil
}

func describe(a nordpool.Args) string {
	return fmt.Sprintf("date=%s year=%d area=%s areas=%s currency=%s market=%s",
		a.Date, a.Year, a.Area, nordpool.JoinAreas(a.Areas), a.Currency, a.Market)
}

func NewFetchTask(logger *slog.Logger, job *FetchJob) func() {
	return func() {
		logger.Debug("running fetch task...")

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()

		result, err := job.Run(ctx)
		if err != nil {
			logger.Error("fetch task error", slog.Any("error", err))
			return
		}

		logger.Info("fetch task done",
			slog.String("endpoint", result.Endpoint),
			slog.String("query", result.Query),
			slog.Int64("responseId", result.ResponseId))
	}
}
