package nordpool

import (
	"context"
	"slices"
)

type endpoint struct {
	name   string // also the file stem when saving
	path   string
	params func(q *query, a Args)
}

var (
	epAuctionDataAvailability = endpoint{
		name: "AuctionDataAvailability",
		path: "AuctionDataAvailability",
	}
	epAuctionDataAvailabilityLatest = endpoint{
		name: "AuctionDataAvailabilityLatest",
		path: "AuctionDataAvailability/GetLatest",
	}
	epDayAheadPrices = endpoint{
		name: "DayAheadPrices",
		path: "DayAheadPrices",
		params: func(q *query, a Args) {
			q.date("date", a.Date)
			q.withDefault("market", a.Market, DefaultMarket)
			q.areas("deliveryArea", a.Areas)
			q.withDefault("currency", a.Currency, DefaultCurrency)
		},
	}
	epSingleAreaPriceHistory = endpoint{
		name: "SingleAreaPriceHistory",
		path: "DayAheadPrices/singleAreaHistory",
		params: func(q *query, a Args) {
			q.date("date", a.Date)
			q.withDefault("market", a.Market, DefaultMarket)
			q.area("deliveryArea", a.Area)
			q.withDefault("currency", a.Currency, DefaultCurrency)
		},
	}
	epAggregatePrices = endpoint{
		name: "AggregatePrices",
		path: "AggregatePrices",
		params: func(q *query, a Args) {
			q.year("year", a.Year)
			q.withDefault("market", a.Market, DefaultMarket)
			q.areas("deliveryArea", a.Areas)
			q.withDefault("currency", a.Currency, DefaultCurrency)
		},
	}
	epAnnualAggregatePrices = endpoint{
		name: "AnnualAggregatePrices",
		path: "AggregatePrices/GetAnnuals",
		params: func(q *query, a Args) {
			q.withDefault("market", a.Market, DefaultMarket)
			q.areas("deliveryArea", a.Areas)
			q.withDefault("currency", a.Currency, DefaultCurrency)
		},
	}
	epSystemPrice = endpoint{
		name: "SystemPrice",
		path: "DayAheadSystem",
		params: func(q *query, a Args) {
			q.date("date", a.Date)
			q.withDefault("currency", a.Currency, DefaultCurrency)
		},
	}
	epDayAheadVolumes = endpoint{
		name: "DayAheadVolumes",
		path: "DayAheadVolumes/multiple",
		params: func(q *query, a Args) {
			q.date("date", a.Date)
			q.withDefault("market", a.Market, DefaultMarket)
			q.areas("deliveryAreas", a.Areas)
		},
	}
	epDayAheadCapacities = endpoint{
		name:   "DayAheadCapacities",
		path:   "DayAheadCapacities",
		params: singleAreaMarketParams,
	}
	epDayAheadFlow = endpoint{
		name:   "DayAheadFlow",
		path:   "DayAheadFlow",
		params: singleAreaMarketParams,
	}
	epAggregatedBidCurves = endpoint{
		name: "AggregatedBidCurves",
		path: "AggregatedBidCurves",
		params: func(q *query, a Args) {
			q.date("date", a.Date)
			q.required("marketCode", a.MarketCode)
			q.required("clusterName", a.ClusterName)
		},
	}
	epScheduledPhysicalFlows = endpoint{
		name:   "ScheduledPhysicalFlows",
		path:   "DayAheadFlow/scheduledPhysicalFlows",
		params: singleAreaMarketParams,
	}
	epFlowBasedConstraints = endpoint{
		name: "FlowBasedConstraints",
		path: "AuctionFlowConstraints",
		params: func(q *query, a Args) {
			q.date("date", a.Date)
			q.withDefault("market", a.Market, DefaultMarket)
			q.required("flowBasedDomain", a.FlowBasedDomain)
		},
	}
	epEpadResults = endpoint{
		name:   "EpadResults",
		path:   "EpadData/results/{date}",
		params: func(q *query, a Args) { q.pathDate(a.Date) },
	}
	epEpadYearlyResults = endpoint{
		name:   "EpadYearlyResults",
		path:   "EpadData/years/results/{year}",
		params: func(q *query, a Args) { q.pathYear(a.Year) },
	}
	epEpadBidCurves = endpoint{
		name:   "EpadBidCurves",
		path:   "EpadData/bid-curves/{date}",
		params: func(q *query, a Args) { q.pathDate(a.Date) },
	}
	epEpadYearlyBidCurves = endpoint{
		name:   "EpadYearlyBidCurves",
		path:   "EpadData/years/bid-curve/{year}",
		params: func(q *query, a Args) { q.pathYear(a.Year) },
	}
	epIntradayMarketStatistics = endpoint{
		name:   "IntradayMarketStatistics",
		path:   "IntradayMarketStatistics",
		params: singleAreaParams,
	}
	epIntradayHourlyStatistics = endpoint{
		name:   "IntradayHourlyStatistics",
		path:   "IntradayMarketStatistics/hourly",
		params: singleAreaParams,
	}
	epManualFrequencyRestorationReserve = endpoint{
		name: "ManualFrequencyRestorationReserve",
		path: "ManualFrequencyRestorationReserve/multiple",
		params: func(q *query, a Args) {
			q.date("date", a.Date)
			q.areas("deliveryAreas", a.Areas)
		},
	}
	epConsumption = endpoint{
		name:   "Consumption",
		path:   "Consumption",
		params: consumptionParams,
	}
	epConsumptionForecast = endpoint{
		name:   "ConsumptionForecast",
		path:   "ConsumptionPrognoses",
		params: consumptionParams,
	}
	epProduction = endpoint{
		name: "Production",
		path: "ProductionData",
		params: func(q *query, a Args) {
			q.date("date", a.Date)
			q.area("deliveryArea", a.Area)
			q.optional("location", a.Location)
		},
	}
	epPhysicalFlows = endpoint{
		name:   "PhysicalFlows",
		path:   "PhysicalFlows",
		params: singleAreaParams,
	}
)

func singleAreaParams(q *query, a Args) {
	q.date("date", a.Date)
	q.area("deliveryArea", a.Area)
}

func singleAreaMarketParams(q *query, a Args) {
	q.date("date", a.Date)
	q.withDefault("market", a.Market, DefaultMarket)
	q.area("deliveryArea", a.Area)
}

func consumptionParams(q *query, a Args) {
	q.date("date", a.Date)
	q.areas("deliveryAreas", a.Areas)
	q.optionalList("locations", a.Locations)
}

var registry = func() map[string]endpoint {
	all := []endpoint{
		epAuctionDataAvailability,
		epAuctionDataAvailabilityLatest,
		epDayAheadPrices,
		epSingleAreaPriceHistory,
		epAggregatePrices,
		epAnnualAggregatePrices,
		epSystemPrice,
		epDayAheadVolumes,
		epDayAheadCapacities,
		epDayAheadFlow,
		epAggregatedBidCurves,
		epScheduledPhysicalFlows,
		epFlowBasedConstraints,
		epEpadResults,
		epEpadYearlyResults,
		epEpadBidCurves,
		epEpadYearlyBidCurves,
		epIntradayMarketStatistics,
		epIntradayHourlyStatistics,
		epManualFrequencyRestorationReserve,
		epConsumption,
		epConsumptionForecast,
		epProduction,
		epPhysicalFlows,
	}
	m := make(map[string]endpoint, len(all))
	for _, ep := range all {
		m[ep.name] = ep
	}
	return m
}()

// Endpoints returns the names accepted by Query, sorted.
func Endpoints() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func IsEndpoint(name string) bool {
	_, ok := registry[name]
	return ok
}

// Query calls the endpoint with the given name. Arguments the endpoint does
// not use are ignored.
func (c *Client) Query(ctx context.Context, name string, a Args, opts ...CallOption) (any, error) {
	ep, ok := registry[name]
	if !ok {
		return nil, &ArgumentError{Endpoint: name, Argument: "endpoint", Reason: "unknown endpoint"}
	}
	return c.do(ctx, ep, a, opts)
}

// Auction data

func (c *Client) AuctionDataAvailability(ctx context.Context, opts ...CallOption) (any, error) {
	return c.do(ctx, epAuctionDataAvailability, Args{}, opts)
}

func (c *Client) AuctionDataAvailabilityLatest(ctx context.Context, opts ...CallOption) (any, error) {
	return c.do(ctx, epAuctionDataAvailabilityLatest, Args{}, opts)
}

// DayAheadPrices fetches day-ahead prices for one or more delivery areas.
// Empty currency and market fall back to DefaultCurrency and DefaultMarket.
func (c *Client) DayAheadPrices(ctx context.Context, date Date, areas []string, currency, market string, opts ...CallOption) (any, error) {
	return c.do(ctx, epDayAheadPrices, Args{Date: date, Areas: areas, Currency: currency, Market: market}, opts)
}

func (c *Client) SingleAreaPriceHistory(ctx context.Context, date Date, area, currency, market string, opts ...CallOption) (any, error) {
	return c.do(ctx, epSingleAreaPriceHistory, Args{Date: date, Area: area, Currency: currency, Market: market}, opts)
}

func (c *Client) AggregatePrices(ctx context.Context, year int, areas []string, currency, market string, opts ...CallOption) (any, error) {
	return c.do(ctx, epAggregatePrices, Args{Year: year, Areas: areas, Currency: currency, Market: market}, opts)
}

func (c *Client) AnnualAggregatePrices(ctx context.Context, areas []string, currency, market string, opts ...CallOption) (any, error) {
	return c.do(ctx, epAnnualAggregatePrices, Args{Areas: areas, Currency: currency, Market: market}, opts)
}

func (c *Client) SystemPrice(ctx context.Context, date Date, currency string, opts ...CallOption) (any, error) {
	return c.do(ctx, epSystemPrice, Args{Date: date, Currency: currency}, opts)
}

func (c *Client) DayAheadVolumes(ctx context.Context, date Date, areas []string, market string, opts ...CallOption) (any, error) {
	return c.do(ctx, epDayAheadVolumes, Args{Date: date, Areas: areas, Market: market}, opts)
}

func (c *Client) DayAheadCapacities(ctx context.Context, date Date, area, market string, opts ...CallOption) (any, error) {
	return c.do(ctx, epDayAheadCapacities, Args{Date: date, Area: area, Market: market}, opts)
}

func (c *Client) DayAheadFlow(ctx context.Context, date Date, area, market string, opts ...CallOption) (any, error) {
	return c.do(ctx, epDayAheadFlow, Args{Date: date, Area: area, Market: market}, opts)
}

// AggregatedBidCurves takes a market code like NPSDA or IDA2 and a cluster like BALTIC or NO.
func (c *Client) AggregatedBidCurves(ctx context.Context, date Date, marketCode, clusterName string, opts ...CallOption) (any, error) {
	return c.do(ctx, epAggregatedBidCurves, Args{Date: date, MarketCode: marketCode, ClusterName: clusterName}, opts)
}

func (c *Client) ScheduledPhysicalFlows(ctx context.Context, date Date, area, market string, opts ...CallOption) (any, error) {
	return c.do(ctx, epScheduledPhysicalFlows, Args{Date: date, Area: area, Market: market}, opts)
}

func (c *Client) FlowBasedConstraints(ctx context.Context, date Date, flowBasedDomain, market string, opts ...CallOption) (any, error) {
	return c.do(ctx, epFlowBasedConstraints, Args{Date: date, FlowBasedDomain: flowBasedDomain, Market: market}, opts)
}

// EPAD

func (c *Client) EpadResults(ctx context.Context, date Date, opts ...CallOption) (any, error) {
	return c.do(ctx, epEpadResults, Args{Date: date}, opts)
}

func (c *Client) EpadYearlyResults(ctx context.Context, year int, opts ...CallOption) (any, error) {
	return c.do(ctx, epEpadYearlyResults, Args{Year: year}, opts)
}

func (c *Client) EpadBidCurves(ctx context.Context, date Date, opts ...CallOption) (any, error) {
	return c.do(ctx, epEpadBidCurves, Args{Date: date}, opts)
}

func (c *Client) EpadYearlyBidCurves(ctx context.Context, year int, opts ...CallOption) (any, error) {
	return c.do(ctx, epEpadYearlyBidCurves, Args{Year: year}, opts)
}

// Intraday market

func (c *Client) IntradayMarketStatistics(ctx context.Context, date Date, area string, opts ...CallOption) (any, error) {
	return c.do(ctx, epIntradayMarketStatistics, Args{Date: date, Area: area}, opts)
}

func (c *Client) IntradayHourlyStatistics(ctx context.Context, date Date, area string, opts ...CallOption) (any, error) {
	return c.do(ctx, epIntradayHourlyStatistics, Args{Date: date, Area: area}, opts)
}

// Power system data

func (c *Client) ManualFrequencyRestorationReserve(ctx context.Context, date Date, areas []string, opts ...CallOption) (any, error) {
	return c.do(ctx, epManualFrequencyRestorationReserve, Args{Date: date, Areas: areas}, opts)
}

// Consumption sends locations comma joined, or an empty value when none are given.
func (c *Client) Consumption(ctx context.Context, date Date, areas, locations []string, opts ...CallOption) (any, error) {
	return c.do(ctx, epConsumption, Args{Date: date, Areas: areas, Locations: locations}, opts)
}

func (c *Client) ConsumptionForecast(ctx context.Context, date Date, areas, locations []string, opts ...CallOption) (any, error) {
	return c.do(ctx, epConsumptionForecast, Args{Date: date, Areas: areas, Locations: locations}, opts)
}

func (c *Client) Production(ctx context.Context, date Date, area, location string, opts ...CallOption) (any, error) {
	return c.do(ctx, epProduction, Args{Date: date, Area: area, Location: location}, opts)
}

func (c *Client) PhysicalFlows(ctx context.Context, date Date, area string, opts ...CallOption) (any, error) {
	return c.do(ctx, epPhysicalFlows, Args{Date: date, Area: area}, opts)
}
