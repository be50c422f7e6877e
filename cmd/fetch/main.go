package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/angas/nordpool-go/config"
	"github.com/angas/nordpool-go/database"
	"github.com/angas/nordpool-go/nordpool"
	"github.com/angas/nordpool-go/task"
	"github.com/goccy/go-json"
	"github.com/lmittmann/tint"
)

type paramFlags []string

func (p *paramFlags) String() string {
	return strings.Join(*p, ",")
}

func (p *paramFlags) Set(value string) error {
	*p = append(*p, value)
	return nil
}

func main() {
	var params paramFlags
	endpoint := flag.String("endpoint", "", "endpoint name, one of: "+strings.Join(nordpool.Endpoints(), ", "))
	date := flag.String("date", "", "today, tomorrow, yesterday, +N, -N or YYYY-MM-DD")
	areas := flag.String("areas", "", "comma separated delivery areas")
	area := flag.String("area", "", "single delivery area")
	currency := flag.String("currency", "", "currency, default "+nordpool.DefaultCurrency)
	market := flag.String("market", "", "market, default "+nordpool.DefaultMarket)
	year := flag.String("year", "", "this, last, next or a literal year")
	marketCode := flag.String("market-code", "", "market code for bid curves")
	cluster := flag.String("cluster", "", "cluster name for bid curves")
	domain := flag.String("domain", "", "flow based domain")
	locations := flag.String("locations", "", "comma separated locations")
	location := flag.String("location", "", "single location")
	flag.Var(&params, "param", "extra query parameter key=value, may repeat")
	save := flag.Bool("save", false, "save the response as <endpoint>.json")
	out := flag.String("out", ".", "directory saved responses are written to")
	baseURL := flag.String("base-url", nordpool.BaseURL, "data portal address")
	verbose := flag.Bool("v", false, "debug logging")
	dbPath := flag.String("db", "nordpool.db", "archive written by the daemon, read by -latest, -history and -log")
	latest := flag.Bool("latest", false, "print the newest archived response of -endpoint instead of querying")
	history := flag.Int("history", 0, "list the N newest archived responses of -endpoint instead of querying")
	logEntries := flag.Int("log", 0, "print the N newest daemon log entries")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})))

	if *logEntries > 0 || *latest || *history > 0 {
		if *logEntries <= 0 && *endpoint == "" {
			flag.Usage()
			os.Exit(2)
		}
		if err := readArchive(os.Stdout, *dbPath, *endpoint, *latest, *history, *logEntries); err != nil {
			slog.Error("reading archive failed", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	if *endpoint == "" {
		flag.Usage()
		os.Exit(2)
	}

	job := config.AppConfigJob{
		Endpoint:        *endpoint,
		Date:            *date,
		Year:            *year,
		Area:            *area,
		Areas:           nordpool.SplitAreas(*areas),
		Currency:        *currency,
		Market:          *market,
		MarketCode:      *marketCode,
		ClusterName:     *cluster,
		FlowBasedDomain: *domain,
		Locations:       nordpool.SplitAreas(*locations),
		Location:        *location,
		Params:          params,
		Save:            *save,
	}

	if err := run(os.Stdout, job, *baseURL, *out); err != nil {
		slog.Error("fetch failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(w io.Writer, job config.AppConfigJob, baseURL, outputDir string) error {
	args, opts, err := task.BuildArgs(job, time.Now())
	if err != nil {
		return err
	}

	client := nordpool.New(
		nordpool.WithBaseURL(baseURL),
		nordpool.WithOutputDir(outputDir))
	slog.Debug("querying data portal", slog.String("endpoint", job.Endpoint), slog.String("baseURL", client.BaseURL()))

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	payload, err := client.Query(ctx, job.Endpoint, args, opts...)
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func readArchive(w io.Writer, dbPath, endpoint string, latest bool, history, logEntries int) error {
	// opening creates a database, an archive has to exist already
	if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("no archive at %s", dbPath)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(ctx, dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if logEntries > 0 {
		entries, err := db.GetLogEntries(ctx, slog.LevelDebug, 1, logEntries)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(w, "%s %-5s %s %s\n", e.Timestamp.Format(time.RFC3339), slog.Level(e.Level), e.Message, e.Attrs)
		}
	}

	if history > 0 {
		rows, err := db.GetResponses(ctx, endpoint, history)
		if err != nil {
			return err
		}
		for _, r := range rows {
			fmt.Fprintf(w, "%d %s %s\n", r.Id, r.FetchedAt.Format(time.RFC3339), r.Query)
		}
	}

	if latest {
		row, err := db.GetLatestResponse(ctx, endpoint)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(row.Body), "", "    "); err != nil {
			return fmt.Errorf("archived response %d: %w", row.Id, err)
		}
		fmt.Fprintln(w, buf.String())
	}

	return nil
}
