package router

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/kitbuilder587/databot/internal/domain"
)

var published = time.Date(2025, 10, 15, 9, 30, 0, 0, time.UTC)

func TestFormat_Empty(t *testing.T) {
	if got := Format(nil); got != "" {
		t.Errorf("Format(nil) = %q", got)
	}
	if got := Format(&domain.SearchResults{}); got != "" {
		t.Errorf("Format(empty) = %q", got)
	}
	if got := Format(&domain.SearchResults{News: []domain.NewsArticle{}}); got != "" {
		t.Errorf("Format(empty news) = %q", got)
	}
}

func TestFormat_Sections(t *testing.T) {
	tests := []struct {
		name    string
		results *domain.SearchResults
		want    string
	}{
		{
			name: "weather",
			results: &domain.SearchResults{Weather: &domain.WeatherData{
				Location: "Austin", Temperature: 31, Condition: "clear sky", Humidity: 40, WindSpeed: 3.6,
			}},
			want: "🌤️ **Weather in Austin**: 31°C, clear sky\n" +
				"💧 Humidity: 40% | 💨 Wind: 3.6 m/s",
		},
		{
			name: "news",
			results: &domain.SearchResults{News: []domain.NewsArticle{
				{Title: "One", Source: "BBC", PublishedAt: published, Description: "Short.", URL: "https://a.example"},
				{Title: "Two", Source: "CNN", PublishedAt: published},
			}},
			want: "📰 **Latest News**:\n" +
				"1. One\n" +
				"   BBC - Oct 15, 2025\n" +
				"   Short.\n" +
				"   🔗 https://a.example\n" +
				"2. Two\n" +
				"   CNN - Oct 15, 2025",
		},
		{
			name: "crypto",
			results: &domain.SearchResults{Crypto: []domain.CryptoData{
				{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: 67000.5, PriceChangePercentage24h: 1.5},
				{ID: "ethereum", CurrentPrice: 2450, PriceChangePercentage24h: -2.5},
			}},
			want: "💰 **Cryptocurrency Prices**:\n" +
				"📈 Bitcoin (BTC): $67000.50\n" +
				"   24h Change: 1.50%\n" +
				"📉 Ethereum (ETH): $2450.00\n" +
				"   24h Change: -2.50%",
		},
		{
			name: "currency",
			results: &domain.SearchResults{Currency: &domain.CurrencyData{
				From: "USD", To: "JPY", Rate: 151.23456, LastUpdated: published,
			}},
			want: "💱 **Exchange Rate**: 1 USD = 151.2346 JPY\n" +
				"Last updated: Oct 15, 2025",
		},
		{
			name: "stock down",
			results: &domain.SearchResults{Stock: &domain.StockQuote{
				Symbol: "AAPL", Price: 189.84, Change: -1.26, ChangePercent: -0.66,
			}},
			want: "📊 **Stock Price**: AAPL - $189.84\n" +
				"📉 -$1.26 (-0.66%)",
		},
		{
			name: "stock up",
			results: &domain.SearchResults{Stock: &domain.StockQuote{
				Symbol: "MSFT", Price: 410, Change: 2.5, ChangePercent: 0.61,
			}},
			want: "📊 **Stock Price**: MSFT - $410.00\n" +
				"📈 +$2.50 (+0.61%)",
		},
		{
			name: "stock change rounds to zero",
			results: &domain.SearchResults{Stock: &domain.StockQuote{
				Symbol: "IBM", Price: 150, Change: -0.001, ChangePercent: -0.0004,
			}},
			want: "📊 **Stock Price**: IBM - $150.00\n" +
				"📈 +$0.00 (+0.00%)",
		},
		{
			name: "stock negative zero",
			results: &domain.SearchResults{Stock: &domain.StockQuote{
				Symbol: "IBM", Price: 150, Change: math.Copysign(0, -1), ChangePercent: math.Copysign(0, -1),
			}},
			want: "📊 **Stock Price**: IBM - $150.00\n" +
				"📈 +$0.00 (+0.00%)",
		},
		{
			name: "stock small drop still shown as drop",
			results: &domain.SearchResults{Stock: &domain.StockQuote{
				Symbol: "IBM", Price: 150, Change: -0.006, ChangePercent: -0.004,
			}},
			want: "📊 **Stock Price**: IBM - $150.00\n" +
				"📉 -$0.01 (+0.00%)",
		},
		{
			name: "crypto change rounds to zero",
			results: &domain.SearchResults{Crypto: []domain.CryptoData{
				{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: 67000, PriceChangePercentage24h: -0.004},
			}},
			want: "💰 **Cryptocurrency Prices**:\n" +
				"📈 Bitcoin (BTC): $67000.00\n" +
				"   24h Change: 0.00%",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.results); got != tt.want {
				t.Errorf("Format() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestFormat_Order(t *testing.T) {
	// порядок заполнения полей не влияет на вывод
	r := &domain.SearchResults{}
	r.Stock = &domain.StockQuote{Symbol: "IBM", Price: 1}
	r.Currency = &domain.CurrencyData{From: "EUR", To: "USD", Rate: 1.1}
	r.Crypto = []domain.CryptoData{{ID: "solana", CurrentPrice: 150}}
	r.News = []domain.NewsArticle{{Title: "T", Source: "S"}}
	r.Weather = &domain.WeatherData{Location: "Oslo"}

	out := Format(r)
	headings := []string{"🌤️ **Weather", "📰 **Latest News", "💰 **Cryptocurrency", "💱 **Exchange Rate", "📊 **Stock Price"}

	last := -1
	for _, h := range headings {
		idx := strings.Index(out, h)
		if idx <= last {
			t.Fatalf("heading %q out of order in:\n%s", h, out)
		}
		last = idx
	}

	sections := strings.Split(out, "\n\n")
	if len(sections) != len(headings) {
		t.Errorf("got %d sections, want %d", len(sections), len(headings))
	}
	if strings.Contains(out, "\n\n\n") {
		t.Error("sections must be separated by exactly one blank line")
	}
}

func TestFormat_NewsLimitsAndTruncation(t *testing.T) {
	long := strings.Repeat("é", 150)
	var articles []domain.NewsArticle
	for i := 0; i < 5; i++ {
		articles = append(articles, domain.NewsArticle{Title: "Item", Source: "Src", Description: long, PublishedAt: published})
	}

	out := Format(&domain.SearchResults{News: articles})

	if strings.Contains(out, "4. Item") {
		t.Error("only three news items should be rendered")
	}
	want := "   " + strings.Repeat("é", 100) + "..."
	if !strings.Contains(out, want+"\n") {
		t.Errorf("description should be cut to 100 runes with ellipsis:\n%s", out)
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"hello world", 5, "hello..."},
		{"привет мир", 6, "привет..."},
	}

	for _, tt := range tests {
		if got := truncateRunes(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
