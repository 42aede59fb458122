package determinism

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestHashJSONIsStableAcrossMapOrder(t *testing.T) {
	a := map[string]int{"b": 2, "a": 1, "c": 3}
	b := map[string]int{"c": 3, "a": 1, "b": 2}

	ha, err := HashJSON(a)
	if err != nil {
		t.Fatal(err)
	}
	hb, err := HashJSON(b)
	if err != nil {
		t.Fatal(err)
	}
	if ha != hb {
		t.Errorf("hashes differ: %s vs %s", ha.Hex(), hb.Hex())
	}
}

func TestQuoteIDDeterministic(t *testing.T) {
	h := ComputeHash([]byte("quote"))
	if QuoteID(h) != QuoteID(h) {
		t.Fatal("quote id not deterministic")
	}
	other := ComputeHash([]byte("other"))
	if QuoteID(h) == QuoteID(other) {
		t.Fatal("different inputs share a quote id")
	}
	if len(QuoteID(h)) != 36 {
		t.Errorf("unexpected uuid form: %s", QuoteID(h))
	}
}

func TestRoundMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"123.454", "123.45"},
		{"123.455", "123.46"},
		{"0.005", "0.01"},
		{"99", "99"},
	}
	for _, tt := range tests {
		got := RoundMoney(decimal.RequireFromString(tt.in))
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("RoundMoney(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSortedKeys(t *testing.T) {
	keys := SortedKeys(map[string]bool{"UM": true, "BIPD": true, "COLL": true})
	if keys[0] != "BIPD" || keys[1] != "COLL" || keys[2] != "UM" {
		t.Errorf("unexpected order: %v", keys)
	}
}
