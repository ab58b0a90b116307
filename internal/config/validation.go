package config

import "fmt"

func validate(c *Config) error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit rps must be > 0")
	}
	if c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be > 0")
	}
	if c.DelayMin < 0 || c.DelayMax < c.DelayMin {
		return fmt.Errorf("politeness delay range is invalid")
	}
	if c.DirectoryBaseURL == "" {
		return fmt.Errorf("directory base url must not be empty")
	}
	if c.ProfileSearchURL == "" {
		return fmt.Errorf("profile search url must not be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory must not be empty")
	}
	return nil
}
