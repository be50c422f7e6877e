package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

const Layout = "2006-01-02"

// Nord Pool delivery days follow central european time.
var marketLoc *time.Location

func init() {
	var err error
	marketLoc, err = time.LoadLocation("Europe/Oslo")
	if err != nil {
		panic(fmt.Sprintf("failed to load Oslo location: %v", err))
	}
}

func MarketLocation() *time.Location {
	return marketLoc
}

func MarketNow() time.Time {
	return time.Now().In(marketLoc)
}

// InMarket converts t to the market timezone.
func InMarket(t time.Time) time.Time {
	return t.In(marketLoc)
}

// Resolve turns a date expression into YYYY-MM-DD relative to now:
//
//	today, tomorrow, yesterday, +N, -N (days) or a literal YYYY-MM-DD
//
// An empty expression resolves to today.
func Resolve(expr string, now time.Time) (string, error) {
	now = InMarket(now)
	expr = strings.ToLower(strings.TrimSpace(expr))

	switch expr {
	case "", "today":
		return now.Format(Layout), nil
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format(Layout), nil
	case "yesterday":
		return now.AddDate(0, 0, -1).Format(Layout), nil
	}

	if expr[0] == '+' || expr[0] == '-' {
		days, err := strconv.Atoi(expr)
		if err != nil {
			return "", fmt.Errorf("invalid day offset %q: %w", expr, err)
		}
		return now.AddDate(0, 0, days).Format(Layout), nil
	}

	t, err := time.Parse(Layout, expr)
	if err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", expr, err)
	}
	return t.Format(Layout), nil
}

// ResolveYear accepts "this", "last", "next" or a literal year.
func ResolveYear(expr string, now time.Time) (int, error) {
	now = InMarket(now)
	switch strings.ToLower(strings.TrimSpace(expr)) {
	case "", "this":
		return now.Year(), nil
	case "last":
		return now.Year() - 1, nil
	case "next":
		return now.Year() + 1, nil
	}
	y, err := strconv.Atoi(strings.TrimSpace(expr))
	if err != nil || y <= 0 {
		return 0, fmt.Errorf("invalid year %q", expr)
	}
	return y, nil
}
