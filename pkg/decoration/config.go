package decoration

import "encoding/json"

// Config is a decoration asset's settings.json.
type Config struct {
	DefaultScale float64 `json:"defaultScale"`
}

// ParseConfig decodes decoration settings. It never fails: missing or
// malformed settings yield DefaultScale, and ok reports whether the data
// was usable.
func ParseConfig(data []byte) (cfg Config, ok bool) {
	cfg = Config{DefaultScale: DefaultScale}
	if len(data) == 0 {
		return cfg, false
	}
	var raw Config
	if err := json.Unmarshal(data, &raw); err != nil {
		return cfg, false
	}
	if raw.DefaultScale > 0 {
		cfg.DefaultScale = raw.DefaultScale
	}
	return cfg, true
}
