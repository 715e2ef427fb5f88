package pbft

import (
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig() failed validation: %v", err)
	}
}

func TestConfigValidateRejectsBadFields(t *testing.T) {
	base := DefaultConfig()

	cases := []struct {
		name string
		mut  func(c Config) Config
	}{
		{"non-positive view timeout", func(c Config) Config { c.ViewTimeout = 0; return c }},
		{"zero max change cycle", func(c Config) Config { c.KMaxChangeCycle = 0; return c }},
		{"non-positive collect interval", func(c Config) Config { c.KCollectInterval = -1 * time.Second; return c }},
		{"empty datadir", func(c Config) Config { c.DataDir = ""; return c }},
	}

	for _, tc := range cases {
		cfg := tc.mut(base)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected Validate to reject %+v", tc.name, cfg)
		}
	}
}

func TestStaticConfigProviderReturnsFixedConfig(t *testing.T) {
	want := DefaultConfig()
	want.KMaxChangeCycle = 4

	p := NewStaticConfigProvider(want)
	if got := p.Current(); got != want {
		t.Fatalf("Current() = %+v, want %+v", got, want)
	}

	fired := false
	p.Subscribe(func(Config) { fired = true })
	if fired {
		t.Fatal("Subscribe must not fire immediately for a static provider")
	}
}
