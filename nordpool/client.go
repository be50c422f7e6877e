package nordpool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

const BaseURL = "https://dataportal-api.nordpoolgroup.com/api"

// Client talks to the Nord Pool Data Portal. It holds no per-call state and
// may be shared between goroutines.
type Client struct {
	baseURL    string
	outputDir  string
	httpClient *http.Client
	rest       *resty.Client
	logger     *slog.Logger
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithOutputDir sets where saved responses are written, default is the
// current working directory.
func WithOutputDir(dir string) Option {
	return func(c *Client) {
		c.outputDir = dir
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    BaseURL,
		outputDir:  ".",
		httpClient: &http.Client{},
		logger:     slog.Default().With(slog.String("module", "nordpool")),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")

	c.rest = resty.NewWithClient(c.httpClient).
		SetHeader("Accept", "application/json").
		SetLogger(newRestyLogger(c.logger))

	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type callOptions struct {
	params map[string][]string
	save   bool
}

type CallOption func(*callOptions)

// WithParams adds query parameters to a call. Parameters the method computes
// itself are never replaced.
func WithParams(params map[string][]string) CallOption {
	return func(o *callOptions) {
		if o.params == nil {
			o.params = make(map[string][]string, len(params))
		}
		for k, v := range params {
			o.params[k] = append(o.params[k], v...)
		}
	}
}

// WithParam is WithParams for a single key.
func WithParam(key string, values ...string) CallOption {
	return WithParams(map[string][]string{key: values})
}

// WithSave writes the response to <EndpointName>.json in the output directory.
func WithSave() CallOption {
	return func(o *callOptions) {
		o.save = true
	}
}

// WithSaveIf is WithSave when save is true.
func WithSaveIf(save bool) CallOption {
	return func(o *callOptions) {
		o.save = o.save || save
	}
}

func (c *Client) do(ctx context.Context, ep endpoint, a Args, opts []CallOption) (any, error) {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}

	q := newQuery(ep.name)
	if ep.params != nil {
		ep.params(q, a)
	}
	if q.err != nil {
		return nil, q.err
	}
	q.merge(co.params)

	url := fmt.Sprintf("%s/%s", c.baseURL, q.resolve(ep.path))
	c.logger.Debug("fetching from nordpool...",
		slog.String("endpoint", ep.name),
		slog.String("url", url),
		slog.String("query", q.values.Encode()))

	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParamsFromValues(q.values).
		Get(url)
	if err != nil {
		return nil, &TransportError{Endpoint: ep.name, Err: err}
	}

	if !resp.IsSuccess() {
		return nil, &RemoteError{Endpoint: ep.name, StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	payload, err := decode(resp.Body())
	if err != nil {
		return nil, &DecodeError{Endpoint: ep.name, Err: err}
	}

	if co.save {
		if err := c.save(ep.name, payload); err != nil {
			return nil, err
		}
	}

	return payload, nil
}

func decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	// the body must hold exactly one value
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			err = fmt.Errorf("unexpected data after the response value")
		}
		return nil, err
	}
	return payload, nil
}

// FileName is the file a saved response of the endpoint ends up in.
func FileName(endpointName string) string {
	return endpointName + ".json"
}

func (c *Client) save(name string, payload any) error {
	path := filepath.Join(c.outputDir, FileName(name))
	data, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		return &PersistError{Endpoint: name, Path: path, Err: err}
	}
	if err := os.MkdirAll(c.outputDir, 0755); err != nil {
		return &PersistError{Endpoint: name, Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &PersistError{Endpoint: name, Path: path, Err: err}
	}
	c.logger.Info("data saved", slog.String("endpoint", name), slog.String("filename", path))
	return nil
}

// Markets maps market codes to display names using the auction data
// availability endpoint.
func (c *Client) Markets(ctx context.Context, opts ...CallOption) (map[string]string, error) {
	payload, err := c.AuctionDataAvailability(ctx, opts...)
	if err != nil {
		return nil, err
	}

	entries, ok := payload.([]any)
	if !ok {
		return nil, &DecodeError{
			Endpoint: epAuctionDataAvailability.name,
			Err:      fmt.Errorf("expected a list of markets, got %T", payload),
		}
	}

	markets := make(map[string]string, len(entries))
	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		key := "Unknown"
		if v, found := m["market"]; found {
			key = fmt.Sprint(v)
		}
		name, _ := m["marketDisplayName"].(string)
		markets[key] = name
	}

	return markets, nil
}
