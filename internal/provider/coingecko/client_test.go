package coingecko

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kitbuilder587/databot/internal/provider"
)

func TestClient_Prices(t *testing.T) {
	var gotIDs string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/simple/price" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotIDs = r.URL.Query().Get("ids")
		w.Write([]byte(`{
			"ethereum": {"usd": 2500.5, "usd_24h_change": -1.25},
			"bitcoin": {"usd": 110000, "usd_24h_change": 10}
		}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL}, zap.NewNop())

	got, err := client.Prices(context.Background(), []string{"BTC", "ethereum", "bitcoin"})
	if err != nil {
		t.Fatalf("Prices() error = %v", err)
	}

	if gotIDs != "bitcoin,ethereum" {
		t.Errorf("ids = %q, want normalized and deduplicated", gotIDs)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "bitcoin" || got[1].ID != "ethereum" {
		t.Errorf("order = %s,%s, want request order", got[0].ID, got[1].ID)
	}
	if got[0].Symbol != "BTC" || got[0].Name != "Bitcoin" {
		t.Errorf("unexpected bitcoin mapping: %+v", got[0])
	}
	if got[1].PriceChangePercentage24h != -1.25 {
		t.Errorf("ethereum pct = %v", got[1].PriceChangePercentage24h)
	}
	// 110000 при +10% => вчера было 100000
	if math.Abs(got[0].PriceChange24h-10000) > 0.01 {
		t.Errorf("bitcoin abs change = %v, want 10000", got[0].PriceChange24h)
	}
}

func TestClient_Prices_DefaultsAndErrors(t *testing.T) {
	var gotIDs string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIDs = r.URL.Query().Get("ids")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL}, nil)

	_, err := client.Prices(context.Background(), nil)
	if !errors.Is(err, provider.ErrNoData) {
		t.Errorf("Prices() error = %v, want %v", err, provider.ErrNoData)
	}
	if gotIDs != "bitcoin,ethereum" {
		t.Errorf("ids = %q, want default coins", gotIDs)
	}
}

func TestClient_Prices_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := New(Config{BaseURL: server.URL}, nil).Prices(context.Background(), []string{"bitcoin"})
	if !errors.Is(err, provider.ErrUpstream) {
		t.Errorf("Prices() error = %v, want %v", err, provider.ErrUpstream)
	}
}
