package protocol

import (
	"testing"

	"github.com/BryWillow/beacon/internal/wire"
)

func TestAutoDetectScenario(t *testing.T) {
	buf := make([]byte, wire.OrderEntrySize)

	(&wire.Ouch{ClientOrderID: 1, Symbol: wire.NewSymbol("AAPL")}).Encode(buf)
	n := Decode(Auto, buf)
	if n.Protocol != wire.ProtocolOuch {
		t.Fatalf("ouch record: protocol = %v, want ouch", n.Protocol)
	}

	(&wire.Pillar{ClientOrderID: 2, Symbol: wire.NewSymbol("IBM"), OrderType: 'L'}).Encode(buf)
	n = Decode(Auto, buf)
	if n.Protocol != wire.ProtocolPillar {
		t.Fatalf("pillar record: protocol = %v, want pillar", n.Protocol)
	}

	(&wire.Cme{ClientOrderID: 3, Symbol: wire.NewSymbol("ESZ4"), OrderType: 'L'}).Encode(buf)
	n = Decode(Auto, buf)
	if n.Protocol != wire.ProtocolCme {
		t.Fatalf("cme record: protocol = %v, want cme", n.Protocol)
	}
}

func TestAdapterDefaults(t *testing.T) {
	buf := make([]byte, wire.OrderEntrySize)

	(&wire.Pillar{Symbol: wire.NewSymbol("IBM"), OrderType: 'L'}).Encode(buf)
	n := Decode(Pillar, buf)
	if n.Capacity != 'A' {
		t.Fatalf("pillar default capacity = %c, want A", n.Capacity)
	}

	(&wire.Cme{Symbol: wire.NewSymbol("ESZ4"), OrderType: 'L'}).Encode(buf)
	n = Decode(Cme, buf)
	if n.Capacity != 'P' {
		t.Fatalf("cme default capacity = %c, want P", n.Capacity)
	}
}

func TestAdapterIdempotence(t *testing.T) {
	cases := []wire.NormalizedOrder{
		{OrderID: 1, Symbol: wire.NewSymbol("AAPL"), Quantity: 100, Price: 500, Side: 'B', TimeInForce: '0', OrderType: 'O', Capacity: 'A', Protocol: wire.ProtocolOuch},
		{OrderID: 2, Symbol: wire.NewSymbol("IBM"), Quantity: 10, Price: 200, Side: 'S', TimeInForce: 'I', OrderType: 'L', Capacity: 'A', Protocol: wire.ProtocolPillar},
		{OrderID: 3, Symbol: wire.NewSymbol("ESZ4"), Quantity: 5, Price: 300, Side: 'B', TimeInForce: 'F', OrderType: 'L', Capacity: 'P', Protocol: wire.ProtocolCme},
	}

	for _, want := range cases {
		buf := make([]byte, wire.OrderEntrySize)
		Encode(want, buf)

		var mode Mode
		switch want.Protocol {
		case wire.ProtocolOuch:
			mode = Ouch
		case wire.ProtocolPillar:
			mode = Pillar
		case wire.ProtocolCme:
			mode = Cme
		}

		got := Decode(mode, buf)
		if got != want {
			t.Fatalf("protocol %v: round trip mismatch: got %+v want %+v", want.Protocol, got, want)
		}
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{"": Auto, "auto": Auto, "ouch": Ouch, "pillar": Pillar, "cme": Cme}
	for input, want := range cases {
		got, ok := ParseMode(input)
		if !ok || got != want {
			t.Fatalf("ParseMode(%q) = %v,%v want %v,true", input, got, ok, want)
		}
	}
	if _, ok := ParseMode("bogus"); ok {
		t.Fatal("expected ParseMode to reject an unknown token")
	}
}
