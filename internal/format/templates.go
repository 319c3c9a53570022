package format

import "signal-relay/internal/classify"

// Template is the per-category part of a message.
type Template struct {
	Emoji        string
	Header       string
	Strategy     string
	ShowStrength bool
	// ShowRaw puts the (truncated) raw alert text in the message body.
	ShowRaw bool
	Tags    []string
}

const (
	strategyMaster     = "MACD + EMA 12/26"
	strategyStar       = "Stochastic + EMA 21/50"
	strategySuperTrend = "Mudança de tendência confirmada pelo SuperTrend"
	strategyBollinger  = "Toque na banda, possível pullback"
	strategySMA        = "SMA 8 × SMA 21"
	strategyVolume     = "Volume acima da média"
	strategyFibonacci  = "Reação em nível de Fibonacci"
)

func tags(group string) []string {
	return []string{"#FogueteTurbo", group, "#TradingView"}
}

// Templates is the default category table. Every classify.Category has an
// entry.
var Templates = map[classify.Category]Template{
	classify.MasterBuy:  {Emoji: "🟢", Header: "MASTER COMPRA", Strategy: strategyMaster, ShowStrength: true, Tags: tags("#Master")},
	classify.MasterSell: {Emoji: "🔴", Header: "MASTER VENDA", Strategy: strategyMaster, ShowStrength: true, Tags: tags("#Master")},
	classify.MasterPrep: {Emoji: "🟡", Header: "MASTER PREPARAR", Strategy: strategyMaster, ShowStrength: true, Tags: tags("#Master")},

	classify.StarBuy:     {Emoji: "⭐🟢", Header: "ESTRELA COMPRA", Strategy: strategyStar, ShowStrength: true, Tags: tags("#Estrela")},
	classify.StarSell:    {Emoji: "⭐🔴", Header: "ESTRELA VENDA", Strategy: strategyStar, ShowStrength: true, Tags: tags("#Estrela")},
	classify.StarGeneric: {Emoji: "⭐", Header: "ESTRELA SINAL", Strategy: strategyStar, ShowStrength: true, Tags: tags("#Estrela")},

	classify.SuperTrendBuy:  {Emoji: "📈", Header: "SUPERTREND COMPRA", Strategy: strategySuperTrend, Tags: tags("#SuperTrend")},
	classify.SuperTrendSell: {Emoji: "📉", Header: "SUPERTREND VENDA", Strategy: strategySuperTrend, Tags: tags("#SuperTrend")},

	classify.BollingerHigh:    {Emoji: "🔺", Header: "BOLLINGER BANDA SUPERIOR", Strategy: strategyBollinger, Tags: tags("#Bollinger")},
	classify.BollingerLow:     {Emoji: "🔻", Header: "BOLLINGER BANDA INFERIOR", Strategy: strategyBollinger, Tags: tags("#Bollinger")},
	classify.BollingerMid:     {Emoji: "➖", Header: "BOLLINGER BANDA MÉDIA", Strategy: strategyBollinger, Tags: tags("#Bollinger")},
	classify.BollingerGeneric: {Emoji: "📊", Header: "BOLLINGER ALERTA", Strategy: strategyBollinger, Tags: tags("#Bollinger")},

	classify.SMACrossUp:      {Emoji: "⬆️", Header: "SMA CRUZAMENTO ALTA", Strategy: strategySMA, Tags: tags("#SMA")},
	classify.SMACrossDown:    {Emoji: "⬇️", Header: "SMA CRUZAMENTO BAIXA", Strategy: strategySMA, Tags: tags("#SMA")},
	classify.SMACrossGeneric: {Emoji: "🔀", Header: "SMA CRUZAMENTO", Strategy: strategySMA, Tags: tags("#SMA")},

	classify.Volume:    {Emoji: "📢", Header: "VOLUME ALTO", Strategy: strategyVolume, Tags: tags("#Volume")},
	classify.Fibonacci: {Emoji: "🌀", Header: "FIBONACCI NÍVEL", Strategy: strategyFibonacci, Tags: tags("#Fibonacci")},

	classify.BuyStrong:  {Emoji: "💚", Header: "COMPRA FORTE", ShowStrength: true, Tags: tags("#CompraForte")},
	classify.SellStrong: {Emoji: "❤️", Header: "VENDA FORTE", ShowStrength: true, Tags: tags("#VendaForte")},
	classify.Buy:        {Emoji: "🟢", Header: "COMPRA", ShowStrength: true, Tags: tags("#Compra")},
	classify.Sell:       {Emoji: "🔴", Header: "VENDA", ShowStrength: true, Tags: tags("#Venda")},

	classify.Generic: {Emoji: "📢", Header: "ALERTA RECEBIDO", ShowRaw: true, Tags: tags("#Alerta")},
}
