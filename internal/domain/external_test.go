package domain

import (
	"reflect"
	"testing"
)

func TestSearchResults_Topics(t *testing.T) {
	r := &SearchResults{
		Stock:   &StockQuote{Symbol: "AAPL"},
		Weather: &WeatherData{Location: "Paris"},
		News:    []NewsArticle{},
		Crypto:  []CryptoData{{ID: "bitcoin"}},
	}

	got := r.Topics()
	want := []Topic{TopicWeather, TopicCrypto, TopicStock}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Topics() = %v, want %v", got, want)
	}
	if r.Has(TopicNews) {
		t.Error("Has(news) should be false for empty slice")
	}
}

func TestSearchResults_Empty(t *testing.T) {
	var nilResults *SearchResults
	if !nilResults.Empty() {
		t.Error("nil results should be empty")
	}
	if !(&SearchResults{}).Empty() {
		t.Error("zero results should be empty")
	}
	if (&SearchResults{Currency: &CurrencyData{From: "USD", To: "JPY"}}).Empty() {
		t.Error("results with currency should not be empty")
	}
}

func TestTopic_IsValid(t *testing.T) {
	for _, topic := range Topics() {
		if !topic.IsValid() {
			t.Errorf("%s should be valid", topic)
		}
	}
	if Topic("sports").IsValid() {
		t.Error("sports should not be valid")
	}
}
