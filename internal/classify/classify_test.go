package classify

import "testing"

func TestClassify_Categories(t *testing.T) {
	tests := []struct {
		text string
		want Category
	}{
		{"MASTER COMPRA BTCUSDT", MasterBuy},
		{"master venda ethusdt", MasterSell},
		{"MASTER PREPARAR entrada", MasterPrep},
		{"MASTER ESTRELA COMPRA BTCUSDT", StarBuy},
		{"master estrela venda", StarSell},
		{"ESTRELA formada no gráfico", StarGeneric},
		{"SuperTrend virou BUY", SuperTrendBuy},
		{"supertrend sell signal", SuperTrendSell},
		{"Bollinger banda superior tocada", BollingerHigh},
		{"Bollinger lower band", BollingerLow},
		{"Bollinger média tocada", BollingerMid},
		{"Bollinger squeeze", BollingerGeneric},
		{"SMA cross up 8/21", SMACrossUp},
		{"SMA cruzamento para baixo", SMACrossDown},
		{"SMA crossing", SMACrossGeneric},
		{"Volume acima da média", Volume},
		{"Fibonacci 61.8 retracement", Fibonacci},
		{"COMPRA FORTE SOLUSDT", BuyStrong},
		{"strong sell xrpusdt", SellStrong},
		{"compra btc", Buy},
		{"VENDA eth", Sell},
		{"hello world", Generic},
		{"", Generic},
	}
	for _, tt := range tests {
		if got := Classify(tt.text); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestClassify_StarBeatsMasterAndBuy(t *testing.T) {
	got := Classify("🌟 MASTER ESTRELA COMPRA confirmada")
	if got != StarBuy {
		t.Fatalf("expected %s, got %s", StarBuy, got)
	}
	if got == MasterBuy || got == Buy {
		t.Fatalf("ESTRELA alert resolved to %s", got)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	inputs := []string{"MASTER COMPRA", "random text", "SMA cross", "VOLUME"}
	for _, in := range inputs {
		first := Classify(in)
		for i := 0; i < 10; i++ {
			if got := Classify(in); got != first {
				t.Fatalf("Classify(%q) changed from %s to %s", in, first, got)
			}
		}
	}
}

func TestClassify_StructuredJSONText(t *testing.T) {
	got := Classify(`{"action":"buy","price":"65000","strength":"8/10","ticker":"BTCUSDT"}`)
	if got != Buy {
		t.Fatalf("expected %s, got %s", Buy, got)
	}
}

func TestRules_GenericIsLast(t *testing.T) {
	last := Rules[len(Rules)-1]
	if last.Category != Generic || !last.Match("") {
		t.Fatalf("last rule must be an always-true generic rule, got %+v", last.Name)
	}
	for _, r := range Rules[:len(Rules)-1] {
		if r.Category == Generic {
			t.Errorf("rule %s assigns generic before the fallback", r.Name)
		}
	}
}

func TestClassifyWith_EmptyTable(t *testing.T) {
	if got := ClassifyWith(nil, "MASTER COMPRA"); got != Generic {
		t.Fatalf("expected generic, got %s", got)
	}
}

func TestCategory_Group(t *testing.T) {
	cases := map[Category]string{
		MasterPrep:      "master",
		StarGeneric:     "star",
		SuperTrendSell:  "supertrend",
		BollingerMid:    "bollinger",
		SMACrossGeneric: "sma",
		Volume:          "volume",
		Fibonacci:       "fibonacci",
		BuyStrong:       "trade",
		Generic:         "generic",
	}
	for c, want := range cases {
		if got := c.Group(); got != want {
			t.Errorf("%s.Group() = %q, want %q", c, got, want)
		}
	}
}
