package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/endogen/rocketbot/internal/httpx"
)

func TestCoinPriceParsesRates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/coins/lamden", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-cg-demo-api-key"); got != "test-key" {
			t.Fatalf("expected api key header, got %q", got)
		}
		_, _ = w.Write([]byte(`{"market_data":{"current_price":{
			"usd": 0.021, "eur": 0.019, "btc": 0.00000045, "eth": 0.0000071
		}}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(httpx.New(2*time.Second, 0), srv.URL, "test-key")
	rates, err := c.CoinPrice(context.Background(), "lamden")
	if err != nil {
		t.Fatalf("CoinPrice failed: %v", err)
	}
	if rates.USD != 0.021 || rates.EUR != 0.019 {
		t.Fatalf("unexpected fiat rates: %+v", rates)
	}
	if rates.BTC != 0.00000045 || rates.ETH != 0.0000071 {
		t.Fatalf("unexpected crypto rates: %+v", rates)
	}
}

func TestCoinPriceEmptyResponseIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"market_data":{"current_price":{}}}`))
	}))
	defer srv.Close()

	c := New(httpx.New(2*time.Second, 0), srv.URL, "")
	if _, err := c.CoinPrice(context.Background(), "lamden"); err == nil {
		t.Fatal("expected error for empty price map")
	}
}
