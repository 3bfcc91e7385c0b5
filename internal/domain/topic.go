package domain

// Topic - категория внешних данных, которую умеет распознавать роутер
type Topic string

const (
	TopicWeather  Topic = "weather"
	TopicNews     Topic = "news"
	TopicCrypto   Topic = "crypto"
	TopicCurrency Topic = "currency"
	TopicStock    Topic = "stock"
)

// Topics returns every topic in rendering order.
func Topics() []Topic {
	return []Topic{TopicWeather, TopicNews, TopicCrypto, TopicCurrency, TopicStock}
}

func (t Topic) IsValid() bool {
	switch t {
	case TopicWeather, TopicNews, TopicCrypto, TopicCurrency, TopicStock:
		return true
	}
	return false
}

func (t Topic) String() string { return string(t) }

const DefaultNewsTopic = "technology"

// Params - параметры, извлеченные из запроса для конкретного топика.
// Заполнены только поля своего топика.
type Params struct {
	Location  string   `json:"location,omitempty"`
	NewsTopic string   `json:"newsTopic,omitempty"`
	Coins     []string `json:"coins,omitempty"`
	From      string   `json:"from,omitempty"`
	To        string   `json:"to,omitempty"`
	Symbol    string   `json:"symbol,omitempty"`
}

type Match struct {
	Topic  Topic
	Params Params
}
