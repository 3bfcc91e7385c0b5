package telegram

import (
	"strings"

	"github.com/kitbuilder587/databot/internal/domain"
)

type Command struct {
	Name string
	Args string
}

// ParseCommand разбирает "/cmd@botname  аргументы".
// Для обычного текста возвращает false.
func ParseCommand(text string) (Command, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return Command{}, false
	}

	head, rest, _ := strings.Cut(text, " ")
	name := strings.ToLower(strings.TrimPrefix(head, "/"))
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return Command{}, false
	}

	return Command{Name: name, Args: normalizeSpaces(rest)}, true
}

// ParseCoins: "btc, eth solana" -> [bitcoin ethereum solana].
// Незнакомые названия уходят как есть, в нижнем регистре - CoinGecko id.
func ParseCoins(args string) []string {
	fields := strings.FieldsFunc(args, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})

	seen := make(map[string]bool, len(fields))
	var coins []string
	for _, f := range fields {
		id := strings.ToLower(f)
		if c, ok := domain.CoinByAlias(f); ok {
			id = c.ID
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		coins = append(coins, id)
	}
	return coins
}

// ParsePair понимает "USD EUR", "USD to EUR" и "usd/eur"
func ParsePair(args string) (from, to string, ok bool) {
	fields := strings.FieldsFunc(args, func(r rune) bool {
		return r == ' ' || r == '/'
	})

	var codes []string
	for _, f := range fields {
		if strings.EqualFold(f, "to") || strings.EqualFold(f, "in") {
			continue
		}
		codes = append(codes, strings.ToUpper(f))
	}

	switch len(codes) {
	case 1:
		return codes[0], "", true
	case 2:
		return codes[0], codes[1], true
	default:
		return "", "", false
	}
}

func normalizeSpaces(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
