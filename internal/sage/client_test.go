package sage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noProbe(string) bool { return false }

type recordedRequest struct {
	path    string
	token   string
	filters []searchFilter
}

// newSearchServer records every search request and answers with body.
func newSearchServer(t *testing.T, body string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var recorded []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var filters []searchFilter
		require.NoError(t, json.NewDecoder(r.Body).Decode(&filters))
		recorded = append(recorded, recordedRequest{
			path:    r.URL.Path,
			token:   r.Header.Get("AuthToken"),
			filters: filters,
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &recorded
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: srv.URL, Token: "secret"}, WithRouteProbe(noProbe))
	require.NoError(t, err)
	return c
}

func TestNewClientMissingConfig(t *testing.T) {
	_, err := NewClient(Config{Token: "secret"})
	assert.ErrorIs(t, err, ErrMissingConfig)

	_, err = NewClient(Config{BaseURL: "https://sage.example.com"})
	assert.ErrorIs(t, err, ErrMissingConfig)
}

func TestNewClientRouteSelection(t *testing.T) {
	cfg := Config{
		BaseURL:      "https://external.example.com",
		InternalURL:  "https://sage.internal",
		InternalHost: "sage.internal",
		Token:        "secret",
	}

	c, err := NewClient(cfg, WithRouteProbe(func(host string) bool {
		assert.Equal(t, "sage.internal", host)
		return true
	}))
	require.NoError(t, err)
	assert.Equal(t, "https://sage.internal", c.baseURL)

	c, err = NewClient(cfg, WithRouteProbe(noProbe))
	require.NoError(t, err)
	assert.Equal(t, "https://external.example.com", c.baseURL)
}

func TestSearchInvoicesPayload(t *testing.T) {
	srv, recorded := newSearchServer(t, `{"results":[{"invoiceNumber":1001,"accountRef":"C100","name":"Acme Co"}]}`)
	c := newTestClient(t, srv)

	invoices, err := c.SearchInvoices(context.Background(), "2024-01-05")
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, StringOrNumber("1001"), invoices[0].InvoiceNumber)

	require.Len(t, *recorded, 1)
	req := (*recorded)[0]
	assert.Equal(t, "/api/searchInvoice", req.path)
	assert.Equal(t, "secret", req.token)
	require.Len(t, req.filters, 1)
	assert.Equal(t, searchFilter{Field: "INVOICE_DATE", Type: "eq", Value: "2024-01-05"}, req.filters[0])
}

func TestSearchInvoicesSinceAddsCreationBound(t *testing.T) {
	srv, recorded := newSearchServer(t, `{"results":[]}`)
	c := newTestClient(t, srv)

	since := time.Date(2024, 1, 5, 12, 30, 0, 0, time.UTC)
	_, err := c.SearchInvoicesSince(context.Background(), "2024-01-05", since)
	require.NoError(t, err)

	req := (*recorded)[0]
	require.Len(t, req.filters, 2)
	assert.Equal(t, searchFilter{Field: "RECORD_CREATE_DATE", Type: "gt", Value: "2024-01-05 12:30:00"}, req.filters[1])
}

func TestSearchInvoicesBetweenWindow(t *testing.T) {
	srv, recorded := newSearchServer(t, `{"results":[]}`)
	c := newTestClient(t, srv)

	since := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	until := time.Date(2024, 1, 5, 13, 0, 0, 0, time.UTC)

	_, err := c.SearchInvoicesBetween(context.Background(), "2024-01-05", since, until)
	require.NoError(t, err)
	req := (*recorded)[0]
	require.Len(t, req.filters, 3)
	assert.Equal(t, searchFilter{Field: "RECORD_CREATE_DATE", Type: "lte", Value: "2024-01-05 13:00:00"}, req.filters[1])
	assert.Equal(t, searchFilter{Field: "RECORD_CREATE_DATE", Type: "gt", Value: "2024-01-05 09:00:00"}, req.filters[2])

	// A zero since leaves the window unbounded below.
	_, err = c.SearchInvoicesBetween(context.Background(), "2024-01-05", time.Time{}, until)
	require.NoError(t, err)
	assert.Len(t, (*recorded)[1].filters, 2)
}

func TestSearchInvoiceItemsPayload(t *testing.T) {
	srv, recorded := newSearchServer(t, `{"results":[{"invoiceNumber":"1001","stockCode":"F1","description":"Beef","quantity":"2.5"}]}`)
	c := newTestClient(t, srv)

	items, err := c.SearchInvoiceItems(context.Background(), []string{"1001", "1002"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Beef", items[0].Description)

	req := (*recorded)[0]
	assert.Equal(t, "/api/searchInvoiceItem/", req.path)
	require.Len(t, req.filters, 1)
	assert.Equal(t, "INVOICE_NUMBER", req.filters[0].Field)
	assert.Equal(t, "in", req.filters[0].Type)
	assert.Equal(t, []any{"1001", "1002"}, req.filters[0].Value)
}

func TestSearchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv)

	_, err := c.SearchInvoices(context.Background(), "2024-01-05")
	assert.ErrorIs(t, err, ErrBadStatus)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestSearchConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse all connections
	c, err := NewClient(Config{BaseURL: srv.URL, Token: "secret"}, WithRouteProbe(noProbe))
	require.NoError(t, err)

	_, err = c.SearchInvoices(context.Background(), "2024-01-05")
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestSearchMalformedResponse(t *testing.T) {
	srv, _ := newSearchServer(t, `{"results": not-json`)
	c := newTestClient(t, srv)

	_, err := c.SearchInvoices(context.Background(), "2024-01-05")
	assert.ErrorIs(t, err, ErrBadResponse)
}
