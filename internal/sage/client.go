// Package sage is a read-only REST client for the Sage ERP search API.
//
// The API exposes two search endpoints, /api/searchInvoice and
// /api/searchInvoiceItem/, both taking a JSON array of {field, type, value}
// filter clauses and returning {"results": [...]}. Records are loosely typed
// at the source: invoice numbers arrive as strings or numbers, quantities as
// numbers or quoted numbers, and optional fields may be absent. The types in
// this package normalize all of that at the boundary so the rest of the
// codebase only sees canonical strings and decimals.
//
// The appliance hosting the API is reachable on two routes: a direct
// internal URL (self-signed certificate) when running on the shop network,
// and an externally published URL otherwise. The client probes the internal
// hostname once at construction and picks the route for its lifetime.
package sage

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"butcherdesk/internal/config"
	"butcherdesk/internal/logger"
)

// timestampFormat is the creation-time format the search API expects.
const timestampFormat = "2006-01-02 15:04:05"

// Config holds the settings needed to reach the Sage API.
type Config struct {
	// BaseURL is the externally published API URL.
	BaseURL string

	// InternalURL is the direct URL used on the shop network. Optional.
	InternalURL string

	// InternalHost is the hostname probed to detect the internal network.
	InternalHost string

	// Token is the AuthToken header value.
	Token string

	// Timeout bounds each request. Default: 30 seconds.
	Timeout time.Duration
}

// FromAppConfig builds a sage.Config from the application configuration.
func FromAppConfig(cfg *config.Config) Config {
	return Config{
		BaseURL:      cfg.SageAPIURL,
		InternalURL:  cfg.SageAPIURLInternal,
		InternalHost: cfg.SageInternalHost,
		Token:        cfg.SageAPIToken,
		Timeout:      cfg.SageTimeout,
	}
}

// Client talks to the Sage search API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        zerolog.Logger
}

// Option customizes a Client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	probe      routeProbe
}

// WithHTTPClient substitutes the HTTP client, primarily for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithRouteProbe substitutes the internal-network probe, primarily for tests.
func WithRouteProbe(p routeProbe) Option {
	return func(o *options) { o.probe = p }
}

// NewClient builds a Client, selecting the internal or external route.
// It returns ErrMissingConfig before any I/O if the URL or token is unset.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if (cfg.BaseURL == "" && cfg.InternalURL == "") || cfg.Token == "" {
		return nil, ErrMissingConfig
	}

	o := options{probe: defaultProbe}
	for _, opt := range opts {
		opt(&o)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	log := logger.WithComponent("sage")

	baseURL := cfg.BaseURL
	internal := false
	if cfg.InternalURL != "" && o.probe(cfg.InternalHost) {
		baseURL = cfg.InternalURL
		internal = true
	}
	if baseURL == "" {
		baseURL = cfg.InternalURL
		internal = true
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
		if internal {
			// The internal appliance serves a self-signed certificate.
			httpClient.Transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}
		}
	}

	log.Info().
		Str("base_url", baseURL).
		Bool("internal_route", internal).
		Msg("Sage client initialized")

	return &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		httpClient: httpClient,
		log:        log,
	}, nil
}

// SearchInvoices returns all invoices dated date (format YYYY-MM-DD).
func (c *Client) SearchInvoices(ctx context.Context, date string) ([]Invoice, error) {
	const op = "SearchInvoices"
	filters := []searchFilter{
		{Field: "INVOICE_DATE", Type: "eq", Value: date},
	}
	return c.searchInvoices(ctx, op, filters)
}

// SearchInvoicesSince returns invoices dated date whose record was created
// after since. Used for incremental re-fetches on top of an existing list.
func (c *Client) SearchInvoicesSince(ctx context.Context, date string, since time.Time) ([]Invoice, error) {
	const op = "SearchInvoicesSince"
	filters := []searchFilter{
		{Field: "INVOICE_DATE", Type: "eq", Value: date},
		{Field: "RECORD_CREATE_DATE", Type: "gt", Value: since.Format(timestampFormat)},
	}
	return c.searchInvoices(ctx, op, filters)
}

// SearchInvoicesBetween returns invoices dated date created in the window
// (since, until]. A zero since leaves the window unbounded below; this is the
// refresh path that re-derives one historical list from a multi-fetch day.
func (c *Client) SearchInvoicesBetween(ctx context.Context, date string, since, until time.Time) ([]Invoice, error) {
	const op = "SearchInvoicesBetween"
	filters := []searchFilter{
		{Field: "INVOICE_DATE", Type: "eq", Value: date},
		{Field: "RECORD_CREATE_DATE", Type: "lte", Value: until.Format(timestampFormat)},
	}
	if !since.IsZero() {
		filters = append(filters, searchFilter{
			Field: "RECORD_CREATE_DATE", Type: "gt", Value: since.Format(timestampFormat),
		})
	}
	return c.searchInvoices(ctx, op, filters)
}

// SearchInvoiceItems bulk-fetches the line items for a set of invoice numbers.
func (c *Client) SearchInvoiceItems(ctx context.Context, invoiceNumbers []string) ([]InvoiceItem, error) {
	const op = "SearchInvoiceItems"
	filters := []searchFilter{
		{Field: "INVOICE_NUMBER", Type: "in", Value: invoiceNumbers},
	}
	return c.searchItems(ctx, op, filters)
}

// SearchItemsByDateAndCodes returns items created on date whose stock code is
// in codes. Feeds the stock-sold report.
func (c *Client) SearchItemsByDateAndCodes(ctx context.Context, date string, codes []string) ([]InvoiceItem, error) {
	const op = "SearchItemsByDateAndCodes"
	filters := []searchFilter{
		{Field: "RECORD_CREATE_DATE", Type: "eq", Value: date},
		{Field: "STOCK_CODE", Type: "in", Value: codes},
	}
	return c.searchItems(ctx, op, filters)
}

func (c *Client) searchInvoices(ctx context.Context, op string, filters []searchFilter) ([]Invoice, error) {
	var resp invoiceSearchResponse
	if err := c.search(ctx, op, "/api/searchInvoice", filters, &resp); err != nil {
		return nil, err
	}
	c.log.Info().Str("op", op).Int("results", len(resp.Results)).Msg("Invoice search completed")
	return resp.Results, nil
}

func (c *Client) searchItems(ctx context.Context, op string, filters []searchFilter) ([]InvoiceItem, error) {
	var resp itemSearchResponse
	if err := c.search(ctx, op, "/api/searchInvoiceItem/", filters, &resp); err != nil {
		return nil, err
	}
	c.log.Info().Str("op", op).Int("results", len(resp.Results)).Msg("Invoice item search completed")
	return resp.Results, nil
}

func (c *Client) search(ctx context.Context, op, path string, filters []searchFilter, out any) error {
	payload, err := json.Marshal(filters)
	if err != nil {
		return newAPIError(op, err, 0)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return newAPIError(op, err, 0)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("AuthToken", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("op", op).Msg("Sage request failed")
		return newAPIError(op, fmt.Errorf("%w: %v", ErrRequestFailed, err), 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Error().Int("status", resp.StatusCode).Str("op", op).Msg("Sage returned error status")
		return newAPIError(op, ErrBadStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return newAPIError(op, fmt.Errorf("%w: %v", ErrBadResponse, err), resp.StatusCode)
	}
	return nil
}
