package mancer

import "time"

// SourceConfig holds the settings of one adapter.
type SourceConfig struct {
	// APIKey is required by some sources.
	APIKey string `mapstructure:"api_key" default:""`
	// BaseURL overrides the public API endpoint.
	BaseURL string `mapstructure:"base_url" default:""`
}

// Config holds the settings shared by all adapters plus one section per
// registered source.
type Config struct {
	CacheTTLSeconds   int `mapstructure:"cache_ttl_seconds" default:"3600"`
	RetryMax          int `mapstructure:"retry_max" default:"3"`
	RetryWaitMinMs    int `mapstructure:"retry_wait_min_ms" default:"500"`
	RetryWaitMaxMs    int `mapstructure:"retry_wait_max_ms" default:"5000"`
	TimeoutSeconds    int `mapstructure:"timeout_seconds" default:"30"`
	SearchParallelism int `mapstructure:"search_parallelism" default:"4"`

	CensusReporter         SourceConfig `mapstructure:"census_reporter"`
	USASpending            SourceConfig `mapstructure:"usa_spending"`
	BureauLaborStatistics  SourceConfig `mapstructure:"bureau_labor_statistics"`
	BureauEconomicAnalysis SourceConfig `mapstructure:"bureau_economic_analysis"`
}

// Transport returns the retry policy of the shared HTTP client.
func (c Config) Transport() TransportConfig {
	return TransportConfig{
		RetryMax:     c.RetryMax,
		RetryWaitMin: time.Duration(c.RetryWaitMinMs) * time.Millisecond,
		RetryWaitMax: time.Duration(c.RetryWaitMaxMs) * time.Millisecond,
		Timeout:      time.Duration(c.TimeoutSeconds) * time.Second,
	}
}

// CacheTTL returns the metadata cache TTL.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Sources returns per-adapter options keyed by registry id.
func (c Config) Sources() map[string]Options {
	out := make(map[string]Options, 4)
	for id, sc := range map[string]SourceConfig{
		"census_reporter":          c.CensusReporter,
		"usa_spending":             c.USASpending,
		"bureau_labor_statistics":  c.BureauLaborStatistics,
		"bureau_economic_analysis": c.BureauEconomicAnalysis,
	} {
		out[id] = Options{APIKey: sc.APIKey, BaseURL: sc.BaseURL}
	}
	return out
}
