package router

import (
	"regexp"
	"sort"
	"strings"

	"github.com/kitbuilder587/databot/internal/domain"
)

// MaxCoins - не больше трёх монет за запрос, у CoinGecko жёсткий лимит
const MaxCoins = 3

// detector - одна строка таблицы: ключевые слова темы и извлечение параметров.
// extract возвращает false, если параметры достать не удалось.
type detector struct {
	topic   domain.Topic
	keyword func(query string) bool
	extract func(query string) (domain.Params, bool)
}

var (
	weatherKeywords = regexp.MustCompile(`(?i)\b(?:weather|temperature|forecast|rain|sunny|cloudy)\b`)
	weatherLocation = regexp.MustCompile(`(?i)\b(?:weather|temperature)\s+(?:in|for|at)\s+([A-Za-z\s,]+)`)

	newsKeywords = regexp.MustCompile(`(?i)\b(?:news|latest|headlines|articles)\b`)
	newsTopic    = regexp.MustCompile(`(?i)\b(?:news|latest)\s+(?:about|on)\s+([A-Za-z\s]+)`)

	cryptoKeywords = regexp.MustCompile(`(?i)\b(?:bitcoin|ethereum|crypto|cryptocurrency|price|btc|eth)\b`)
	cryptoGeneric  = regexp.MustCompile(`(?i)\b(?:crypto|cryptocurrency)\b`)
	coinMentions   = coinPattern()

	currencyPair = regexp.MustCompile(`(?i)\b(?:exchange|rate|convert|currency)\s+(\w+)\s+to\s+(\w+)`)

	// ключевое слово в любом регистре, тикер только заглавными
	stockTicker = regexp.MustCompile(`\b(?i:stock|price|share)\s+([A-Z]{1,5})\b`)

	// связки, на которых обрезаем локацию и тему новостей
	connector = regexp.MustCompile(`(?i)\s(?:and)\b|[&?.;]`)
)

// порядок строк = порядок рендеринга
var detectors = []detector{
	{topic: domain.TopicWeather, keyword: weatherKeywords.MatchString, extract: extractWeather},
	{topic: domain.TopicNews, keyword: newsKeywords.MatchString, extract: extractNews},
	{topic: domain.TopicCrypto, keyword: isCryptoQuery, extract: extractCrypto},
	{topic: domain.TopicCurrency, keyword: currencyPair.MatchString, extract: extractCurrency},
	{topic: domain.TopicStock, keyword: stockTicker.MatchString, extract: extractStock},
}

// coinPattern собирает regexp по всем алиасам из словаря монет
func coinPattern() *regexp.Regexp {
	var aliases []string
	for _, c := range domain.KnownCoins() {
		for _, a := range c.Aliases {
			aliases = append(aliases, regexp.QuoteMeta(a))
		}
	}
	// длинные вперёд, чтобы альтернатива не съела префикс
	sort.SliceStable(aliases, func(i, j int) bool { return len(aliases[i]) > len(aliases[j]) })
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(aliases, "|") + `)\b`)
}

// Detect прогоняет запрос через все детекторы. Темы не исключают друг
// друга: один запрос может дать несколько совпадений.
func Detect(query string) []domain.Match {
	query = domain.TruncateQuery(query)
	if strings.TrimSpace(query) == "" {
		return nil
	}

	var matches []domain.Match
	for _, d := range detectors {
		if !d.keyword(query) {
			continue
		}
		params, ok := d.extract(query)
		if !ok {
			continue
		}
		matches = append(matches, domain.Match{Topic: d.topic, Params: params})
	}
	return matches
}

// isCryptoQuery: базовые ключевые слова плюс любая монета из словаря
func isCryptoQuery(query string) bool {
	return cryptoKeywords.MatchString(query) || coinMentions.MatchString(query)
}

func extractWeather(query string) (domain.Params, bool) {
	m := weatherLocation.FindStringSubmatch(query)
	if m == nil {
		return domain.Params{}, false
	}
	loc := cutAtConnector(m[1])
	if loc == "" {
		return domain.Params{}, false
	}
	return domain.Params{Location: loc}, true
}

func extractNews(query string) (domain.Params, bool) {
	topic := domain.DefaultNewsTopic
	if m := newsTopic.FindStringSubmatch(query); m != nil {
		if t := cutAtConnector(m[1]); t != "" {
			topic = t
		}
	}
	return domain.Params{NewsTopic: topic}, true
}

func extractCrypto(query string) (domain.Params, bool) {
	var coins []string
	seen := make(map[string]bool)
	for _, mention := range coinMentions.FindAllString(query, -1) {
		coin, ok := domain.CoinByAlias(mention)
		if !ok || seen[coin.ID] {
			continue
		}
		seen[coin.ID] = true
		coins = append(coins, coin.ID)
		if len(coins) == MaxCoins {
			break
		}
	}

	if len(coins) == 0 {
		// "price" без монеты - не крипта
		if !cryptoGeneric.MatchString(query) {
			return domain.Params{}, false
		}
		coins = append(coins, domain.DefaultCoins...)
	}
	return domain.Params{Coins: coins}, true
}

func extractCurrency(query string) (domain.Params, bool) {
	m := currencyPair.FindStringSubmatch(query)
	if m == nil {
		return domain.Params{}, false
	}
	return domain.Params{From: strings.ToUpper(m[1]), To: strings.ToUpper(m[2])}, true
}

func extractStock(query string) (domain.Params, bool) {
	m := stockTicker.FindStringSubmatch(query)
	if m == nil {
		return domain.Params{}, false
	}
	return domain.Params{Symbol: m[1]}, true
}

func cutAtConnector(s string) string {
	if loc := connector.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return strings.Trim(s, " \t\r\n,")
}
