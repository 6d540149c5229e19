package decoration

import "testing"

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantScale float64
		wantOK    bool
	}{
		{"explicit", `{"defaultScale": 0.25}`, 0.25, true},
		{"missing key", `{}`, DefaultScale, true},
		{"zero scale", `{"defaultScale": 0}`, DefaultScale, true},
		{"malformed", `{"defaultScale":`, DefaultScale, false},
		{"empty", ``, DefaultScale, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, ok := ParseConfig([]byte(tt.data))
			if cfg.DefaultScale != tt.wantScale || ok != tt.wantOK {
				t.Errorf("ParseConfig(%q) = %v, %v, want %v, %v", tt.data, cfg.DefaultScale, ok, tt.wantScale, tt.wantOK)
			}
		})
	}
}
