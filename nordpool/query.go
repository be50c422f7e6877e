package nordpool

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/angas/nordpool-go/dates"
)

const (
	DefaultCurrency = "EUR"
	DefaultMarket   = "DayAhead"
)

// Date is a delivery date, either given as a time value or as a
// pre-formatted YYYY-MM-DD string. The zero Date means "not given".
type Date struct {
	value string
}

func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return Date{value: t.Format(dates.Layout)}
}

func DateString(s string) Date {
	return Date{value: strings.TrimSpace(s)}
}

// Today is the current delivery date in the market timezone.
func Today() Date {
	return DateOf(dates.MarketNow())
}

func (d Date) IsZero() bool {
	return d.value == ""
}

func (d Date) String() string {
	return d.value
}

func (d Date) normalize() (string, error) {
	t, err := time.Parse(dates.Layout, d.value)
	if err != nil {
		return "", err
	}
	return t.Format(dates.Layout), nil
}

// Args holds every domain argument an endpoint may use. Each endpoint reads
// only the fields it needs.
type Args struct {
	Date            Date
	Year            int
	Area            string
	Areas           []string
	Currency        string
	Market          string
	MarketCode      string
	ClusterName     string
	FlowBasedDomain string
	Locations       []string
	Location        string
}

// query accumulates the parameters of a single call. The first validation
// failure is kept, later ones are ignored.
type query struct {
	endpoint string
	values   url.Values
	path     map[string]string
	err      error
}

func newQuery(endpoint string) *query {
	return &query{
		endpoint: endpoint,
		values:   url.Values{},
		path:     map[string]string{},
	}
}

func (q *query) fail(argument, reason string) {
	if q.err == nil {
		q.err = &ArgumentError{Endpoint: q.endpoint, Argument: argument, Reason: reason}
	}
}

func (q *query) normalizeDate(d Date) (string, bool) {
	if d.IsZero() {
		q.fail("date", "missing")
		return "", false
	}
	s, err := d.normalize()
	if err != nil {
		q.fail("date", "expected YYYY-MM-DD, got "+strconv.Quote(d.value))
		return "", false
	}
	return s, true
}

func (q *query) date(name string, d Date) {
	if s, ok := q.normalizeDate(d); ok {
		q.values.Set(name, s)
	}
}

func (q *query) pathDate(d Date) {
	if s, ok := q.normalizeDate(d); ok {
		q.path["date"] = s
	}
}

func (q *query) normalizeYear(y int) (string, bool) {
	if y <= 0 {
		q.fail("year", "missing")
		return "", false
	}
	return strconv.Itoa(y), true
}

func (q *query) year(name string, y int) {
	if s, ok := q.normalizeYear(y); ok {
		q.values.Set(name, s)
	}
}

func (q *query) pathYear(y int) {
	if s, ok := q.normalizeYear(y); ok {
		q.path["year"] = s
	}
}

func (q *query) required(name, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		q.fail(name, "missing")
		return
	}
	q.values.Set(name, value)
}

func (q *query) withDefault(name, value, def string) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = def
	}
	q.values.Set(name, value)
}

// optional is always sent, even when empty.
func (q *query) optional(name, value string) {
	q.values.Set(name, strings.TrimSpace(value))
}

func (q *query) area(name, area string) {
	q.required(name, area)
}

// areas sends the list comma joined in the given order, duplicates kept.
func (q *query) areas(name string, areas []string) {
	if len(areas) == 0 {
		q.fail(name, "at least one delivery area is required")
		return
	}
	for _, a := range areas {
		if strings.TrimSpace(a) == "" {
			q.fail(name, "empty delivery area in list")
			return
		}
	}
	q.values.Set(name, JoinAreas(areas))
}

func (q *query) optionalList(name string, list []string) {
	q.values.Set(name, JoinAreas(list))
}

// merge adds caller supplied parameters, keys already computed win.
func (q *query) merge(extra url.Values) {
	for k, vs := range extra {
		if _, owned := q.values[k]; owned {
			continue
		}
		for _, v := range vs {
			q.values.Add(k, v)
		}
	}
}

func (q *query) resolve(path string) string {
	for k, v := range q.path {
		path = strings.ReplaceAll(path, "{"+k+"}", url.PathEscape(v))
	}
	return path
}

// JoinAreas joins codes with a comma, keeping order and duplicates.
func JoinAreas(areas []string) string {
	trimmed := make([]string, len(areas))
	for i, a := range areas {
		trimmed[i] = strings.TrimSpace(a)
	}
	return strings.Join(trimmed, ",")
}

// SplitAreas is the inverse of JoinAreas, empty items are dropped.
func SplitAreas(s string) []string {
	areas := make([]string, 0)
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			areas = append(areas, a)
		}
	}
	return areas
}
