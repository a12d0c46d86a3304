package config

import (
	"os"
	"testing"
)

func TestLoadParsesRulesAndSenderFields(t *testing.T) {
	path := t.TempDir() + "/replay.json"
	body := `{
		"loop_forever": true,
		"sender": "udp",
		"sender_addr": "239.1.1.1",
		"sender_port": 30001,
		"rules": [
			{"type": "burst", "count": 5, "window_ms": 100},
			{"type": "rate_limit", "rate_per_sec": 1000}
		]
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !c.LoopForever || c.Sender != "udp" || c.SenderPort != 30001 {
		t.Fatalf("unexpected top-level fields: %+v", c)
	}
	if len(c.Rules) != 2 || c.Rules[0].Type != "burst" || c.Rules[0].Count != 5 {
		t.Fatalf("unexpected rules: %+v", c.Rules)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/replay.json"); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
