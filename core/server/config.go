package server

import (
	"net/url"
	"strings"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API. Empty disables auth.
	ApiKey string `mapstructure:"api_key" default:""`
	// PublicURL prefixes download locators (e.g. https://geo.example.org).
	PublicURL string `mapstructure:"public_url" default:""`
	// BodyLimitMB caps request bodies, uploads included.
	BodyLimitMB int `mapstructure:"body_limit_mb" default:"16"`
}

// DownloadPath is the route prefix serving merged artifacts.
const DownloadPath = "/download/"

// DownloadURL returns the caller-resolvable locator of an artifact.
func (c Config) DownloadURL(name string) string {
	return strings.TrimRight(c.PublicURL, "/") + DownloadPath + url.PathEscape(name)
}

// BodyLimit returns the body limit in bytes.
func (c Config) BodyLimit() int {
	if c.BodyLimitMB <= 0 {
		return 16 * 1024 * 1024
	}
	return c.BodyLimitMB * 1024 * 1024
}
