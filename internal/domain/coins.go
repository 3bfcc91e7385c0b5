package domain

import "strings"

// Coin - монета из словаря роутера. ID совпадает с id в CoinGecko.
type Coin struct {
	ID      string
	Symbol  string
	Name    string
	Aliases []string
}

var knownCoins = []Coin{
	{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", Aliases: []string{"bitcoin", "btc"}},
	{ID: "ethereum", Symbol: "ETH", Name: "Ethereum", Aliases: []string{"ethereum", "eth"}},
	{ID: "solana", Symbol: "SOL", Name: "Solana", Aliases: []string{"solana"}},
	{ID: "dogecoin", Symbol: "DOGE", Name: "Dogecoin", Aliases: []string{"dogecoin", "doge"}},
	{ID: "cardano", Symbol: "ADA", Name: "Cardano", Aliases: []string{"cardano"}},
	{ID: "ripple", Symbol: "XRP", Name: "XRP", Aliases: []string{"ripple", "xrp"}},
	{ID: "litecoin", Symbol: "LTC", Name: "Litecoin", Aliases: []string{"litecoin", "ltc"}},
}

// DefaultCoins используются, когда в запросе есть "crypto", но нет конкретной монеты
var DefaultCoins = []string{"bitcoin", "ethereum"}

func KnownCoins() []Coin {
	out := make([]Coin, len(knownCoins))
	copy(out, knownCoins)
	return out
}

// CoinByAlias ищет монету по id, тикеру или названию (без учета регистра)
func CoinByAlias(alias string) (Coin, bool) {
	a := strings.ToLower(strings.TrimSpace(alias))
	for _, c := range knownCoins {
		if c.ID == a {
			return c, true
		}
		for _, al := range c.Aliases {
			if al == a {
				return c, true
			}
		}
	}
	return Coin{}, false
}

// CoinSymbol returns the ticker for a CoinGecko id, or the id uppercased.
func CoinSymbol(id string) string {
	if c, ok := CoinByAlias(id); ok {
		return c.Symbol
	}
	return strings.ToUpper(id)
}

func CoinName(id string) string {
	if c, ok := CoinByAlias(id); ok {
		return c.Name
	}
	if id == "" {
		return id
	}
	return strings.ToUpper(id[:1]) + id[1:]
}
