package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/endogen/rocketbot/internal/model"
	"github.com/endogen/rocketbot/internal/version"
)

const testSeed = "cf67a180f9578afa5fd704cea39b450c1dce872c2ed17d016dcb7bf152403ea6"

type fakeMasternode struct {
	mu       sync.Mutex
	submits  int
	result   string
	txError  string
	vars     map[string]string
}

func (n *fakeMasternode) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/nonce/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"nonce": 0, "processor": "%s", "sender": "x"}`, strings.Repeat("b", 64))
	})
	mux.HandleFunc("/contracts/", func(w http.ResponseWriter, r *http.Request) {
		n.mu.Lock()
		defer n.mu.Unlock()
		key := strings.TrimPrefix(r.URL.Path, "/contracts/")
		if r.URL.Query().Get("key") != "" {
			key += "?" + r.URL.Query().Get("key")
		}
		if value, ok := n.vars[key]; ok {
			fmt.Fprintf(w, `{"value": %s}`, value)
			return
		}
		fmt.Fprint(w, `{"value": null}`)
	})
	mux.HandleFunc("/tx", func(w http.ResponseWriter, r *http.Request) {
		n.mu.Lock()
		defer n.mu.Unlock()
		if n.txError != "" {
			fmt.Fprintf(w, `{"hash": %q, "status": 1, "error": %q}`, r.URL.Query().Get("hash"), n.txError)
			return
		}
		fmt.Fprintf(w, `{"hash": %q, "status": 0, "result": %q}`, r.URL.Query().Get("hash"), n.result)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		n.mu.Lock()
		n.submits++
		count := n.submits
		n.mu.Unlock()
		fmt.Fprintf(w, `{"hash": "hash-%d"}`, count)
	})
	return mux
}

func setupEnv(t *testing.T, masternodeURL string) {
	t.Helper()
	cfgDir := t.TempDir()
	cfgPath := filepath.Join(cfgDir, "rocketbot", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		t.Fatalf("create config dir: %v", err)
	}
	body := "chain:\n  poll_timeout: 2s\n  poll_interval: 10ms\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("XDG_CONFIG_HOME", cfgDir)
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("ROCKETBOT_WALLET_SEED", testSeed)
	if masternodeURL != "" {
		t.Setenv("ROCKETBOT_MASTERNODE_URL", masternodeURL)
	}
}

func runCommand(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	runner := NewRunnerWithWriters(&stdout, &stderr)
	code := runner.Run(args)
	return code, stdout.String(), stderr.String()
}

func TestVersionCommand(t *testing.T) {
	code, stdout, _ := runCommand(t, "version")
	if code != 0 {
		t.Fatalf("version exited with %d", code)
	}
	if strings.TrimSpace(stdout) != version.Version {
		t.Fatalf("unexpected version output: %q", stdout)
	}
}

func TestSendRejectsBadAddress(t *testing.T) {
	setupEnv(t, "")
	code, _, stderr := runCommand(t, "send", "--to", "not-an-address", "--amount", "5")
	if code != 3 {
		t.Fatalf("expected validation exit code 3, got %d", code)
	}
	var env model.Envelope
	if err := json.Unmarshal([]byte(stderr), &env); err != nil {
		t.Fatalf("stderr is not an envelope: %v\n%s", err, stderr)
	}
	if env.Success || env.Error == nil || env.Error.Type != "validation_error" {
		t.Fatalf("unexpected error envelope: %+v", env)
	}
}

func TestSendConfirmedEndToEnd(t *testing.T) {
	node := &fakeMasternode{result: "'5.0 TAU sent'"}
	srv := httptest.NewServer(node.handler())
	defer srv.Close()
	setupEnv(t, srv.URL)

	to := strings.Repeat("ab", 32)
	code, stdout, stderr := runCommand(t, "send", "--to", to, "--amount", "5")
	if code != 0 {
		t.Fatalf("send exited with %d: %s", code, stderr)
	}
	var env model.Envelope
	if err := json.Unmarshal([]byte(stdout), &env); err != nil {
		t.Fatalf("stdout is not an envelope: %v\n%s", err, stdout)
	}
	if !env.Success {
		t.Fatalf("expected success envelope: %+v", env)
	}
	data, _ := json.Marshal(env.Data)
	if !strings.Contains(string(data), `"confirmed"`) || !strings.Contains(string(data), "hash-1") {
		t.Fatalf("unexpected outcome data: %s", data)
	}
	if node.submits != 1 {
		t.Fatalf("expected exactly one submission, got %d", node.submits)
	}
}

func TestSendOnChainFailureExitsNonZero(t *testing.T) {
	node := &fakeMasternode{txError: "AssertionError: not enough TAU"}
	srv := httptest.NewServer(node.handler())
	defer srv.Close()
	setupEnv(t, srv.URL)

	to := strings.Repeat("ab", 32)
	code, stdout, _ := runCommand(t, "send", "--to", to, "--amount", "5")
	if code != 12 {
		t.Fatalf("expected onchain exit code 12, got %d", code)
	}
	var env model.Envelope
	if err := json.Unmarshal([]byte(stdout), &env); err != nil {
		t.Fatalf("stdout is not an envelope: %v\n%s", err, stdout)
	}
	if env.Success || env.Error == nil || env.Error.Type != "onchain_failure" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	data, _ := json.Marshal(env.Data)
	if !strings.Contains(string(data), "hash-1") {
		t.Fatalf("failed outcome must keep the hash: %s", data)
	}
}

func TestPriceCommandPartialWithoutFiat(t *testing.T) {
	node := &fakeMasternode{vars: map[string]string{
		"con_rocketswap_official_v1_1/prices?con_nebula": `{"__fixed__": "0.5"}`,
	}}
	srv := httptest.NewServer(node.handler())
	defer srv.Close()
	setupEnv(t, srv.URL)

	gecko := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer gecko.Close()
	t.Setenv("ROCKETBOT_COINGECKO_URL", gecko.URL)
	t.Setenv("ROCKETBOT_RETRIES", "0")

	code, stdout, stderr := runCommand(t, "price", "--contract", "con_nebula")
	if code != 0 {
		t.Fatalf("price exited with %d: %s", code, stderr)
	}
	var env model.Envelope
	if err := json.Unmarshal([]byte(stdout), &env); err != nil {
		t.Fatalf("stdout is not an envelope: %v\n%s", err, stdout)
	}
	if !env.Success || !env.Meta.Partial {
		t.Fatalf("expected partial success: %+v", env)
	}
	data, _ := json.Marshal(env.Data)
	if !strings.Contains(string(data), `"quote_base": 0.5`) && !strings.Contains(string(data), `"quote_base":0.5`) {
		t.Fatalf("unexpected price data: %s", data)
	}
}

func TestWatchOnceAnnouncesAndDedups(t *testing.T) {
	rocket := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/market_summaries_w_token":
			fmt.Fprint(w, `[{"contract_name": "con_new_token", "reserves": ["100", "25"],
				"token": {"token_name": "New Token", "token_symbol": "NEW"}}]`)
		case strings.HasPrefix(r.URL.Path, "/api/token/"):
			fmt.Fprint(w, `{"token": {"contract_name": "con_new_token", "token_name": "New Token",
				"token_symbol": "NEW", "base_supply": "1000000"}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer rocket.Close()
	setupEnv(t, "")
	t.Setenv("ROCKETBOT_ROCKETSWAP_URL", rocket.URL)

	code, stdout, stderr := runCommand(t, "watch", "--once", "--results-only")
	if code != 0 {
		t.Fatalf("watch exited with %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, `"new_listing"`) || !strings.Contains(stdout, "con_new_token") {
		t.Fatalf("expected a listing announcement: %s", stdout)
	}

	code, stdout, stderr = runCommand(t, "watch", "--once", "--results-only")
	if code != 0 {
		t.Fatalf("second watch exited with %d: %s", code, stderr)
	}
	if strings.Contains(stdout, `"new_listing"`) {
		t.Fatalf("second tick must not re-announce: %s", stdout)
	}
}

func TestUnsubscribeInterpretsReturnedAmount(t *testing.T) {
	node := &fakeMasternode{result: "'24.5 NEB returned'"}
	srv := httptest.NewServer(node.handler())
	defer srv.Close()
	setupEnv(t, srv.URL)

	code, stdout, stderr := runCommand(t, "unsubscribe")
	if code != 0 {
		t.Fatalf("unsubscribe exited with %d: %s", code, stderr)
	}
	var env model.Envelope
	if err := json.Unmarshal([]byte(stdout), &env); err != nil {
		t.Fatalf("stdout is not an envelope: %v\n%s", err, stdout)
	}
	data, _ := json.Marshal(env.Data)
	if !strings.Contains(string(data), `"24.5"`) {
		t.Fatalf("expected interpreted amount in output: %s", stdout)
	}
}
