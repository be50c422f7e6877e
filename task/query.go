package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/angas/nordpool-go/config"
	"github.com/angas/nordpool-go/dates"
	"github.com/angas/nordpool-go/nordpool"
)

// BuildArgs resolves the date and year expressions of a job relative to now
// and turns its extra parameters into call options.
func BuildArgs(job config.AppConfigJob, now time.Time) (nordpool.Args, []nordpool.CallOption, error) {
	if !nordpool.IsEndpoint(job.Endpoint) {
		return nordpool.Args{}, nil, fmt.Errorf("job %s: unknown endpoint %q", job.GetName(), job.Endpoint)
	}

	date, err := dates.Resolve(job.Date, now)
	if err != nil {
		return nordpool.Args{}, nil, fmt.Errorf("job %s: %w", job.GetName(), err)
	}

	year, err := dates.ResolveYear(job.Year, now)
	if err != nil {
		return nordpool.Args{}, nil, fmt.Errorf("job %s: %w", job.GetName(), err)
	}

	params, err := ParseParams(job.Params)
	if err != nil {
		return nordpool.Args{}, nil, fmt.Errorf("job %s: %w", job.GetName(), err)
	}

	args := nordpool.Args{
		Date:            nordpool.DateString(date),
		Year:            year,
		Area:            job.Area,
		Areas:           job.Areas,
		Currency:        job.Currency,
		Market:          job.Market,
		MarketCode:      job.MarketCode,
		ClusterName:     job.ClusterName,
		FlowBasedDomain: job.FlowBasedDomain,
		Locations:       job.Locations,
		Location:        job.Location,
	}

	opts := []nordpool.CallOption{nordpool.WithSaveIf(job.Save)}
	if len(params) > 0 {
		opts = append(opts, nordpool.WithParams(params))
	}

	return args, opts, nil
}

// ParseParams reads "key=value" pairs, a key may repeat.
func ParseParams(pairs []string) (map[string][]string, error) {
	params := make(map[string][]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}
		params[key] = append(params[key], strings.TrimSpace(value))
	}
	return params, nil
}
