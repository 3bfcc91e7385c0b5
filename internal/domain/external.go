package domain

import "time"

type WeatherData struct {
	Location    string  `json:"location"`
	Temperature int     `json:"temperature"`
	Condition   string  `json:"condition"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	Icon        string  `json:"icon"`
}

type NewsArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
}

type CryptoData struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	CurrentPrice             float64 `json:"currentPrice"`
	PriceChange24h           float64 `json:"priceChange24h"`
	PriceChangePercentage24h float64 `json:"priceChangePercentage24h"`
}

type CurrencyData struct {
	From        string    `json:"from"`
	To          string    `json:"to"`
	Rate        float64   `json:"rate"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type StockQuote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// SearchResults - агрегат по топикам. Поле заполнено только если топик
// распознан и источник вернул непустые данные.
type SearchResults struct {
	Weather  *WeatherData  `json:"weather,omitempty"`
	News     []NewsArticle `json:"news,omitempty"`
	Crypto   []CryptoData  `json:"crypto,omitempty"`
	Currency *CurrencyData `json:"currency,omitempty"`
	Stock    *StockQuote   `json:"stock,omitempty"`
}

func (r *SearchResults) Has(t Topic) bool {
	if r == nil {
		return false
	}
	switch t {
	case TopicWeather:
		return r.Weather != nil
	case TopicNews:
		return len(r.News) > 0
	case TopicCrypto:
		return len(r.Crypto) > 0
	case TopicCurrency:
		return r.Currency != nil
	case TopicStock:
		return r.Stock != nil
	}
	return false
}

// Topics returns the present topics in rendering order.
func (r *SearchResults) Topics() []Topic {
	var present []Topic
	for _, t := range Topics() {
		if r.Has(t) {
			present = append(present, t)
		}
	}
	return present
}

func (r *SearchResults) Empty() bool {
	return len(r.Topics()) == 0
}
