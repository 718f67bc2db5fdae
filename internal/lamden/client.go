package lamden

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/endogen/rocketbot/internal/httpx"
	"github.com/endogen/rocketbot/internal/rberr"
)

// Client reads contract storage and submits signed transactions through a
// masternode HTTP API. It holds no state between calls.
type Client struct {
	http        *httpx.Client
	baseURL     string
	explorerURL string
}

func New(httpClient *httpx.Client, baseURL, explorerURL string) *Client {
	return &Client{
		http:        httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		explorerURL: strings.TrimRight(explorerURL, "/"),
	}
}

// ExplorerTxURL returns the block-explorer link for a transaction hash.
// Outcomes always carry this so users can trace a submitted transaction even
// when confirmation failed or timed out.
func (c *Client) ExplorerTxURL(hash string) string {
	return fmt.Sprintf("%s/transactions/%s", c.explorerURL, hash)
}

type variableResponse struct {
	Value json.RawMessage `json:"value"`
}

// GetVariable reads one contract storage entry. The second return value is
// false when the entry is absent; absence is not an error.
func (c *Client) GetVariable(ctx context.Context, contract, variable string, keys ...string) (json.RawMessage, bool, error) {
	endpoint := fmt.Sprintf("%s/contracts/%s/%s", c.baseURL, url.PathEscape(contract), url.PathEscape(variable))
	if len(keys) > 0 {
		endpoint += "?key=" + url.QueryEscape(strings.Join(keys, ":"))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, rberr.Wrap(rberr.CodeInternal, "build variable request", err)
	}
	var resp variableResponse
	if _, err := c.http.DoJSON(ctx, req, &resp); err != nil {
		return nil, false, err
	}
	if len(resp.Value) == 0 || strings.TrimSpace(string(resp.Value)) == "null" {
		return nil, false, nil
	}
	return resp.Value, true, nil
}

// GetVariableFloat reads a storage entry as a float. Absent or non-numeric
// entries resolve to 0.
func (c *Client) GetVariableFloat(ctx context.Context, contract, variable string, keys ...string) (float64, error) {
	raw, ok, err := c.GetVariable(ctx, contract, variable, keys...)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return ParseVariableValue(raw), nil
}

type nonceResponse struct {
	Nonce     uint64 `json:"nonce"`
	Processor string `json:"processor"`
	Sender    string `json:"sender"`
}

// Nonce returns the next nonce and processor for a sender address.
func (c *Client) Nonce(ctx context.Context, vk string) (uint64, string, error) {
	endpoint := fmt.Sprintf("%s/nonce/%s", c.baseURL, url.PathEscape(vk))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, "", rberr.Wrap(rberr.CodeInternal, "build nonce request", err)
	}
	var resp nonceResponse
	if _, err := c.http.DoJSON(ctx, req, &resp); err != nil {
		return 0, "", err
	}
	if strings.TrimSpace(resp.Processor) == "" {
		return 0, "", rberr.New(rberr.CodeUnavailable, "masternode returned empty processor")
	}
	return resp.Nonce, resp.Processor, nil
}

type submitResponse struct {
	Hash  string `json:"hash"`
	Error string `json:"error"`
}

// Submit broadcasts a signed transaction. A masternode-level rejection (no
// hash produced) surfaces as CodeSubmit.
func (c *Client) Submit(ctx context.Context, tx *SignedTx) (string, error) {
	body, err := json.Marshal(tx)
	if err != nil {
		return "", rberr.Wrap(rberr.CodeInternal, "serialize transaction", err)
	}
	var resp submitResponse
	if _, err := httpx.DoBodyJSON(ctx, c.http, http.MethodPost, c.baseURL+"/", body, nil, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Error) != "" {
		return "", rberr.New(rberr.CodeSubmit, resp.Error)
	}
	if strings.TrimSpace(resp.Hash) == "" {
		return "", rberr.New(rberr.CodeSubmit, "masternode returned no transaction hash")
	}
	return resp.Hash, nil
}

// Receipt is the finalized on-chain record of a submitted transaction.
// Status 0 means success; any error text is the chain-reported reason.
type Receipt struct {
	Hash   string `json:"hash"`
	Status int    `json:"status"`
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

// Succeeded reports whether the chain executed the transaction without error.
func (r *Receipt) Succeeded() bool {
	return r.Error == "" && r.Status == 0
}

// Reason returns the chain-reported failure text for an unsuccessful receipt.
func (r *Receipt) Reason() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Result
}

type receiptResponse struct {
	Hash   string `json:"hash"`
	Status int    `json:"status"`
	Result string `json:"result"`
	Error  string `json:"error"`
}

// GetReceipt fetches the receipt for a hash. The second return value is
// false while the transaction has not been processed yet.
func (c *Client) GetReceipt(ctx context.Context, hash string) (*Receipt, bool, error) {
	endpoint := fmt.Sprintf("%s/tx?hash=%s", c.baseURL, url.QueryEscape(hash))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, rberr.Wrap(rberr.CodeInternal, "build receipt request", err)
	}
	var resp receiptResponse
	if _, err := c.http.DoJSON(ctx, req, &resp); err != nil {
		return nil, false, err
	}
	// Masternodes answer "Transaction not found" with 200 until the tx is
	// processed; treat that as pending, not as an on-chain error.
	if resp.Hash == "" && strings.Contains(strings.ToLower(resp.Error), "not found") {
		return nil, false, nil
	}
	if resp.Hash == "" && resp.Error == "" && resp.Result == "" {
		return nil, false, nil
	}
	receipt := &Receipt{Hash: resp.Hash, Status: resp.Status, Result: resp.Result, Error: resp.Error}
	if receipt.Hash == "" {
		receipt.Hash = hash
	}
	return receipt, true, nil
}

// PollReceipt polls at a fixed interval until the receipt is available or
// the timeout elapses. Exceeding the timeout yields CodeTimeout — a distinct
// outcome from on-chain rejection: the status of the transaction is unknown,
// not failed. Transient polling errors are ignored until the deadline.
func (c *Client) PollReceipt(ctx context.Context, hash string, timeout, interval time.Duration) (*Receipt, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		receipt, found, err := c.GetReceipt(waitCtx, hash)
		if err == nil && found {
			return receipt, nil
		}
		if waitCtx.Err() != nil {
			return nil, rberr.Wrap(rberr.CodeTimeout, "timed out waiting for receipt", waitCtx.Err())
		}
		select {
		case <-waitCtx.Done():
			return nil, rberr.Wrap(rberr.CodeTimeout, "timed out waiting for receipt", waitCtx.Err())
		case <-ticker.C:
		}
	}
}
