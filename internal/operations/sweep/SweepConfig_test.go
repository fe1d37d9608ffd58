package sweep

import "testing"

func TestNewConfigIsValid(t *testing.T) {
	if err := NewConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero tp steps", func(c *Config) { c.TPSteps = 0 }},
		{"zero sl steps", func(c *Config) { c.SLSteps = 0 }},
		{"non-positive tp min", func(c *Config) { c.TPMin = 0 }},
		{"inverted tp bounds", func(c *Config) { c.TPMax = c.TPMin / 2 }},
		{"negative sl min", func(c *Config) { c.SLMin = -0.01 }},
		{"inverted sl bounds", func(c *Config) { c.SLMax = c.SLMin / 2 }},
		{"zero horizon", func(c *Config) { c.HorizonMin = 0 }},
		{"inverted horizons", func(c *Config) { c.HorizonMax = 0 }},
		{"negative fee", func(c *Config) { c.FeeRate = -0.001 }},
		{"negative spread rate", func(c *Config) { c.SpreadRate = -0.0001 }},
		{"unknown fill policy", func(c *Config) { c.AmbiguousFill = "BOTH" }},
		{"zero capital", func(c *Config) { c.StartCapital = 0 }},
		{"inverted label band", func(c *Config) { c.CandidateMinLabel1, c.CandidateMaxLabel1 = 0.7, 0.3 }},
		{"zero progress cadence", func(c *Config) { c.ProgressEvery = 0 }},
	}
	for _, tc := range cases {
		cfg := NewConfig()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate accepted a bad config", tc.name)
		}
	}
}

func TestGridValuesPinEndpoints(t *testing.T) {
	cfg := NewConfig()

	tp := cfg.TPValues()
	if len(tp) != cfg.TPSteps {
		t.Fatalf("tp points = %d, want %d", len(tp), cfg.TPSteps)
	}
	if tp[0] != cfg.TPMin || tp[len(tp)-1] != cfg.TPMax {
		t.Errorf("tp endpoints = [%v, %v], want [%v, %v]",
			tp[0], tp[len(tp)-1], cfg.TPMin, cfg.TPMax)
	}
	for i := 1; i < len(tp); i++ {
		if tp[i] <= tp[i-1] {
			t.Fatalf("tp values not strictly increasing at %d: %v", i, tp)
		}
	}

	sl := cfg.SLValues()
	if sl[0] != cfg.SLMin || sl[len(sl)-1] != cfg.SLMax {
		t.Errorf("sl endpoints = [%v, %v], want [%v, %v]",
			sl[0], sl[len(sl)-1], cfg.SLMin, cfg.SLMax)
	}
}

func TestGridValuesSingleStep(t *testing.T) {
	cfg := NewConfig()
	cfg.TPSteps = 1
	got := cfg.TPValues()
	if len(got) != 1 || got[0] != cfg.TPMin {
		t.Fatalf("single-step grid = %v, want [%v]", got, cfg.TPMin)
	}
}

func TestGridSizeAndHorizons(t *testing.T) {
	cfg := NewConfig()
	if got := cfg.GridSize(); got != 25*25*200 {
		t.Errorf("default grid size = %d, want %d", got, 25*25*200)
	}

	cfg.HorizonMin, cfg.HorizonMax = 3, 6
	hs := cfg.Horizons()
	want := []int{3, 4, 5, 6}
	if len(hs) != len(want) {
		t.Fatalf("horizons = %v, want %v", hs, want)
	}
	for i := range want {
		if hs[i] != want[i] {
			t.Fatalf("horizons = %v, want %v", hs, want)
		}
	}
}

func TestTotalCostFrac(t *testing.T) {
	cfg := NewConfig()
	if !approx(cfg.TotalCostFrac(), 0.0021, 1e-15) {
		t.Errorf("default cost = %v, want 0.0021", cfg.TotalCostFrac())
	}
	cfg.FeeRate, cfg.SpreadRate = 0.002, 0.0005
	if !approx(cfg.TotalCostFrac(), 0.0045, 1e-15) {
		t.Errorf("cost = %v, want 0.0045", cfg.TotalCostFrac())
	}
}
