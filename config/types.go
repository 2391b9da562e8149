package config

// GTFSConfig contains GTFS static feed configuration
type GTFSConfig struct {
	StaticURL string `yaml:"staticURL" validate:"omitempty"`
	AgencyID  string `yaml:"agency_id" validate:"omitempty"`
	CacheDir  string `yaml:"cacheDir" validate:"omitempty"`
}

// GTFSRTConfig contains GTFS-Realtime feed configuration
type GTFSRTConfig struct {
	FeedURL   string `yaml:"feedURL" validate:"required,url"`
	AlertsURL string `yaml:"alertsURL" validate:"omitempty,url"`
	Token     string `yaml:"token"`
	TimeoutMS int    `yaml:"timeoutMS" validate:"gte=0"`
}

// LineConfig identifies the rail line being watched
type LineConfig struct {
	Name   string `yaml:"name" validate:"required"`
	StopID string `yaml:"stopID"`
}

// NotifyConfig contains Discord webhook delivery configuration
type NotifyConfig struct {
	WebhookURL  string  `yaml:"webhookURL" validate:"required,url"`
	MinDelaySec int     `yaml:"minDelaySec" validate:"gte=0"`
	RatePerSec  float64 `yaml:"ratePerSec" validate:"gte=0"`
}

// WatchConfig controls the periodic polling mode
type WatchConfig struct {
	Interval string `yaml:"interval"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	LogLevel string       `yaml:"logLevel"`
	GTFS     GTFSConfig   `yaml:"gtfs"`
	GTFSRT   GTFSRTConfig `yaml:"gtfsrt" validate:"required"`
	Line     LineConfig   `yaml:"line" validate:"required"`
	Notify   NotifyConfig `yaml:"notify" validate:"required"`
	Watch    WatchConfig  `yaml:"watch"`
}
