package config

import "go.uber.org/zap"

// NewLogger gives JSON logs in production and console logs elsewhere.
func (c *Config) NewLogger() (*zap.Logger, error) {
	if c.Production() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
