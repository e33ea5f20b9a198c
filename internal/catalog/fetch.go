package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// definitionsRequest is a rippled JSON-RPC call envelope.
type definitionsRequest struct {
	Method string           `json:"method"`
	Params []map[string]any `json:"params"`
}

// definitionsResponse carries the slice of server_definitions we need.
type definitionsResponse struct {
	Result struct {
		LedgerEntryTypes map[string]int `json:"LEDGER_ENTRY_TYPES"`
		Status           string         `json:"status"`
		Error            string         `json:"error"`
	} `json:"result"`
}

// Fetcher retrieves the entry-type catalog from a node's HTTP JSON-RPC
// endpoint.
type Fetcher struct {
	http *resty.Client
	url  string
}

// NewFetcher creates a fetcher for the given JSON-RPC URL.
func NewFetcher(url string, timeout time.Duration) *Fetcher {
	client := resty.New()
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &Fetcher{http: client, url: url}
}

// Fetch calls server_definitions and builds the catalog from its
// LEDGER_ENTRY_TYPES table.
func (f *Fetcher) Fetch(ctx context.Context) (*Catalog, error) {
	var out definitionsResponse
	resp, err := f.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(definitionsRequest{Method: "server_definitions", Params: []map[string]any{{}}}).
		SetResult(&out).
		Post(f.url)
	if err != nil {
		return nil, fmt.Errorf("calling server_definitions: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("server_definitions returned HTTP %d", resp.StatusCode())
	}
	if out.Result.Error != "" {
		return nil, fmt.Errorf("server_definitions failed: %s", out.Result.Error)
	}
	if len(out.Result.LedgerEntryTypes) == 0 {
		return nil, fmt.Errorf("server_definitions returned no LEDGER_ENTRY_TYPES")
	}

	names := make([]string, 0, len(out.Result.LedgerEntryTypes))
	for name := range out.Result.LedgerEntryTypes {
		names = append(names, name)
	}
	return New(names), nil
}
