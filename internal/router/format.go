package router

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kitbuilder587/databot/internal/domain"
)

const (
	maxNewsItems      = 3
	maxDescriptionLen = 100
	dateLayout        = "Jan 2, 2006"
)

// Format рендерит результаты в текстовый блок. Секции идут в фиксированном
// порядке и разделены одной пустой строкой. Пустой результат - пустая строка.
func Format(results *domain.SearchResults) string {
	if results.Empty() {
		return ""
	}

	var sections []string
	for _, topic := range results.Topics() {
		var s string
		switch topic {
		case domain.TopicWeather:
			s = formatWeather(results.Weather)
		case domain.TopicNews:
			s = formatNews(results.News)
		case domain.TopicCrypto:
			s = formatCrypto(results.Crypto)
		case domain.TopicCurrency:
			s = formatCurrency(results.Currency)
		case domain.TopicStock:
			s = formatStock(results.Stock)
		}
		if s = strings.TrimSpace(s); s != "" {
			sections = append(sections, s)
		}
	}

	return strings.TrimSpace(strings.Join(sections, "\n\n"))
}

func formatWeather(w *domain.WeatherData) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🌤️ **Weather in %s**: %d°C, %s\n", w.Location, w.Temperature, w.Condition)
	fmt.Fprintf(&sb, "💧 Humidity: %d%% | 💨 Wind: %s m/s", w.Humidity, strconv.FormatFloat(w.WindSpeed, 'f', -1, 64))
	return sb.String()
}

func formatNews(articles []domain.NewsArticle) string {
	var sb strings.Builder
	sb.WriteString("📰 **Latest News**:")

	for i, a := range articles {
		if i == maxNewsItems {
			break
		}
		fmt.Fprintf(&sb, "\n%d. %s", i+1, a.Title)
		if a.PublishedAt.IsZero() {
			fmt.Fprintf(&sb, "\n   %s", a.Source)
		} else {
			fmt.Fprintf(&sb, "\n   %s - %s", a.Source, formatDate(a.PublishedAt))
		}
		if desc := strings.TrimSpace(a.Description); desc != "" {
			fmt.Fprintf(&sb, "\n   %s", truncateRunes(desc, maxDescriptionLen))
		}
		if a.URL != "" {
			fmt.Fprintf(&sb, "\n   🔗 %s", a.URL)
		}
	}
	return sb.String()
}

func formatCrypto(coins []domain.CryptoData) string {
	var sb strings.Builder
	sb.WriteString("💰 **Cryptocurrency Prices**:")

	for _, c := range coins {
		name := c.Name
		if name == "" {
			name = domain.CoinName(c.ID)
		}
		symbol := strings.ToUpper(c.Symbol)
		if symbol == "" {
			symbol = domain.CoinSymbol(c.ID)
		}
		pct := round2(c.PriceChangePercentage24h)
		fmt.Fprintf(&sb, "\n%s %s (%s): $%.2f", trendIcon(pct), name, symbol, c.CurrentPrice)
		fmt.Fprintf(&sb, "\n   24h Change: %.2f%%", pct)
	}
	return sb.String()
}

func formatCurrency(c *domain.CurrencyData) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "💱 **Exchange Rate**: 1 %s = %.4f %s", c.From, c.Rate, c.To)
	if !c.LastUpdated.IsZero() {
		fmt.Fprintf(&sb, "\nLast updated: %s", formatDate(c.LastUpdated))
	}
	return sb.String()
}

func formatStock(q *domain.StockQuote) string {
	sign := "+"
	change := round2(q.Change)
	icon := trendIcon(change)
	if change < 0 {
		sign = "-"
		change = -change
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 **Stock Price**: %s - $%.2f\n", q.Symbol, q.Price)
	fmt.Fprintf(&sb, "%s %s$%.2f (%+.2f%%)", icon, sign, change, round2(q.ChangePercent))
	return sb.String()
}

// round2 округляет до сотых и убирает -0,
// чтобы знак в тексте совпадал со стрелкой
func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}

// рост и ноль - 📈, падение - 📉. На вход - уже округлённое значение.
func trendIcon(v float64) string {
	if v < 0 {
		return "📉"
	}
	return "📈"
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// truncateRunes режет по рунам и добавляет "..." только если реально обрезали
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
