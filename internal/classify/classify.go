// Package classify maps raw alert text to a signal category.
//
// Classification is a single pass over an ordered rule table. Categories
// overlap ("MASTER ESTRELA COMPRA" is also a MASTER alert and a plain buy),
// so the order of Rules is part of the contract: the first matching rule wins.
package classify

import "strings"

// Category is the signal tag assigned to one alert.
type Category string

const (
	MasterBuy  Category = "master-buy"
	MasterSell Category = "master-sell"
	MasterPrep Category = "master-prep"

	StarBuy     Category = "star-buy"
	StarSell    Category = "star-sell"
	StarGeneric Category = "star-generic"

	SuperTrendBuy  Category = "supertrend-buy"
	SuperTrendSell Category = "supertrend-sell"

	BollingerHigh    Category = "bollinger-high"
	BollingerLow     Category = "bollinger-low"
	BollingerMid     Category = "bollinger-mid"
	BollingerGeneric Category = "bollinger-generic"

	SMACrossUp      Category = "sma-cross-up"
	SMACrossDown    Category = "sma-cross-down"
	SMACrossGeneric Category = "sma-cross-generic"

	Volume    Category = "volume"
	Fibonacci Category = "fibonacci"

	BuyStrong  Category = "buy-strong"
	SellStrong Category = "sell-strong"
	Buy        Category = "buy"
	Sell       Category = "sell"

	Generic Category = "generic"
)

// Predicate reports whether an uppercased alert text matches a rule.
type Predicate func(upper string) bool

// Rule pairs a predicate with the category it assigns.
type Rule struct {
	Name     string
	Match    Predicate
	Category Category
}

var (
	buyWords       = []string{"COMPRA", "BUY"}
	sellWords      = []string{"VENDA", "SELL"}
	prepWords      = []string{"PREPARA", "PREP", "ATENÇÃO", "ATENCAO"}
	intensityWords = []string{"FORTE", "STRONG"}

	superTrendWords = []string{"SUPERTREND", "SUPER TREND"}
	bollingerWords  = []string{"BOLLINGER", "BANDA"}
	bandHighWords   = []string{"SUPERIOR", "UPPER", "TOPO"}
	bandLowWords    = []string{"INFERIOR", "LOWER", "FUNDO"}
	bandMidWords    = []string{"MÉDIA", "MEDIA", "MIDDLE", "CENTRAL"}
	smaWords        = []string{"SMA", "MÉDIAS MÓVEIS", "MEDIAS MOVEIS"}
	crossWords      = []string{"CROSS", "CRUZ"}
	crossUpWords    = []string{"ACIMA", "PARA CIMA", "CROSS UP", "CROSSUP", "ALTA", "BULL"}
	crossDownWords  = []string{"ABAIXO", "PARA BAIXO", "CROSS DOWN", "CROSSDOWN", "BAIXA", "BEAR"}
	fibonacciWords  = []string{"FIBONACCI", "FIBO"}
)

// Rules is evaluated top to bottom. The final rule always matches, which
// makes Classify total.
var Rules = []Rule{
	// MASTER, but never the ESTRELA variant.
	{"master-buy", allOf(has("MASTER"), not(has("ESTRELA")), hasAny(buyWords...)), MasterBuy},
	{"master-sell", allOf(has("MASTER"), not(has("ESTRELA")), hasAny(sellWords...)), MasterSell},
	{"master-prep", allOf(has("MASTER"), not(has("ESTRELA")), hasAny(prepWords...)), MasterPrep},

	{"star-buy", allOf(has("ESTRELA"), hasAny(buyWords...)), StarBuy},
	{"star-sell", allOf(has("ESTRELA"), hasAny(sellWords...)), StarSell},
	{"star-generic", has("ESTRELA"), StarGeneric},

	{"supertrend-buy", allOf(hasAny(superTrendWords...), hasAny(buyWords...)), SuperTrendBuy},
	{"supertrend-sell", allOf(hasAny(superTrendWords...), hasAny(sellWords...)), SuperTrendSell},

	{"bollinger-high", allOf(hasAny(bollingerWords...), hasAny(bandHighWords...)), BollingerHigh},
	{"bollinger-low", allOf(hasAny(bollingerWords...), hasAny(bandLowWords...)), BollingerLow},
	{"bollinger-mid", allOf(hasAny(bollingerWords...), hasAny(bandMidWords...)), BollingerMid},
	{"bollinger-generic", hasAny(bollingerWords...), BollingerGeneric},

	{"sma-cross-up", allOf(hasAny(smaWords...), hasAny(crossWords...), hasAny(crossUpWords...)), SMACrossUp},
	{"sma-cross-down", allOf(hasAny(smaWords...), hasAny(crossWords...), hasAny(crossDownWords...)), SMACrossDown},
	{"sma-cross-generic", allOf(hasAny(smaWords...), hasAny(crossWords...)), SMACrossGeneric},

	{"volume", has("VOLUME"), Volume},
	{"fibonacci", hasAny(fibonacciWords...), Fibonacci},

	{"buy-strong", allOf(hasAny(buyWords...), hasAny(intensityWords...)), BuyStrong},
	{"sell-strong", allOf(hasAny(sellWords...), hasAny(intensityWords...)), SellStrong},

	{"buy", hasAny(buyWords...), Buy},
	{"sell", hasAny(sellWords...), Sell},

	{"generic", func(string) bool { return true }, Generic},
}

// Classify returns the category of the first rule matching text.
func Classify(text string) Category {
	return ClassifyWith(Rules, text)
}

// ClassifyWith evaluates a custom rule table. An empty table, or one whose
// rules all miss, yields Generic.
func ClassifyWith(rules []Rule, text string) Category {
	upper := strings.ToUpper(text)
	for _, r := range rules {
		if r.Match(upper) {
			return r.Category
		}
	}
	return Generic
}

// Group returns the family a category belongs to ("master", "star",
// "supertrend", "bollinger", "sma", "volume", "fibonacci", "trade", "generic").
func (c Category) Group() string {
	switch c {
	case MasterBuy, MasterSell, MasterPrep:
		return "master"
	case StarBuy, StarSell, StarGeneric:
		return "star"
	case SuperTrendBuy, SuperTrendSell:
		return "supertrend"
	case BollingerHigh, BollingerLow, BollingerMid, BollingerGeneric:
		return "bollinger"
	case SMACrossUp, SMACrossDown, SMACrossGeneric:
		return "sma"
	case Volume:
		return "volume"
	case Fibonacci:
		return "fibonacci"
	case BuyStrong, SellStrong, Buy, Sell:
		return "trade"
	default:
		return "generic"
	}
}

func has(word string) Predicate {
	return func(upper string) bool { return strings.Contains(upper, word) }
}

func hasAny(words ...string) Predicate {
	return func(upper string) bool {
		for _, w := range words {
			if strings.Contains(upper, w) {
				return true
			}
		}
		return false
	}
}

func allOf(preds ...Predicate) Predicate {
	return func(upper string) bool {
		for _, p := range preds {
			if !p(upper) {
				return false
			}
		}
		return true
	}
}

func not(p Predicate) Predicate {
	return func(upper string) bool { return !p(upper) }
}
