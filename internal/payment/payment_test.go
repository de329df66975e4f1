package payment

import (
	"testing"
)

func testConfig() Config {
	return Config{
		Price:         "$0.001",
		Network:       "base-sepolia",
		Recipient:     "0x1111111111111111111111111111111111111111",
		TokenContract: "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
	}
}

func TestConfig_DisplayAmount(t *testing.T) {
	cases := []struct {
		price string
		want  string
	}{
		{"$0.001", "0.001"},
		{"0.001", "0.001"},
		{" $1.50 ", "1.50"},
	}
	for _, c := range cases {
		got := Config{Price: c.price}.DisplayAmount()
		if got != c.want {
			t.Errorf("DisplayAmount(%q) = %q, want %q", c.price, got, c.want)
		}
	}
}

func TestConfig_AtomicAmount(t *testing.T) {
	cases := []struct {
		price string
		want  string
	}{
		{"$0.001", "1000"},
		{"$1", "1000000"},
		{"$0.10", "100000"},
	}
	for _, c := range cases {
		got, err := Config{Price: c.price}.AtomicAmount()
		if err != nil {
			t.Fatalf("AtomicAmount(%q): %v", c.price, err)
		}
		if got != c.want {
			t.Errorf("AtomicAmount(%q) = %q, want %q", c.price, got, c.want)
		}
	}
}

func TestConfig_AtomicAmountRejectsGarbage(t *testing.T) {
	if _, err := (Config{Price: "cheap"}).AtomicAmount(); err == nil {
		t.Error("expected error for unparseable price")
	}
}

func TestConfig_RequirementsShape(t *testing.T) {
	reqs, err := testConfig().Requirements("http://localhost:8080/api/shipping/quote")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reqs.Scheme != "exact" {
		t.Errorf("expected exact scheme, got %q", reqs.Scheme)
	}
	if reqs.Network != "base-sepolia" {
		t.Errorf("wrong network: %q", reqs.Network)
	}
	if reqs.MaxAmountRequired != "1000" {
		t.Errorf("expected 1000 atomic units, got %q", reqs.MaxAmountRequired)
	}
	if reqs.PayTo != testConfig().Recipient {
		t.Errorf("wrong payTo: %q", reqs.PayTo)
	}
	if reqs.Asset != testConfig().TokenContract {
		t.Errorf("wrong asset: %q", reqs.Asset)
	}
	if reqs.Resource != "http://localhost:8080/api/shipping/quote" {
		t.Errorf("wrong resource: %q", reqs.Resource)
	}
	if reqs.MaxTimeoutSeconds != 60 {
		t.Errorf("wrong timeout: %d", reqs.MaxTimeoutSeconds)
	}
	if reqs.Extra["name"] != "USDC" || reqs.Extra["version"] != "2" {
		t.Errorf("wrong extra: %+v", reqs.Extra)
	}
}
