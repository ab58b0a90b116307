package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel         = "info"
	DefaultJSONLog          = false
	DefaultHTTPTimeout      = 20 * time.Second
	DefaultDirectoryBaseURL = "https://www.justdial.com"
	DefaultProfileSearchURL = "https://www.google.com/maps"
	DefaultRateLimitRPS     = 0.5
	DefaultRateLimitBurst   = 1
	DefaultDelayMin         = 1 * time.Second
	DefaultDelayMax         = 3 * time.Second
	DefaultMaxPages         = 2
	DefaultOutputDir        = "output"
	DefaultFallbackCity     = "Mumbai"
	DefaultKeyword          = "diagnostic center"
	DefaultInputPath        = "Scrapping.csv"
)
