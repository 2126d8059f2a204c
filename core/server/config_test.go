package server_test

import (
	"testing"

	"geomancer/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_DownloadURL(t *testing.T) {
	tests := []struct {
		name      string
		publicURL string
		file      string
		want      string
	}{
		{"Relative", "", "cities_20240101T000000Z_ab12.csv", "/download/cities_20240101T000000Z_ab12.csv"},
		{"Absolute", "https://geo.example.org", "a.xlsx", "https://geo.example.org/download/a.xlsx"},
		{"TrailingSlash", "https://geo.example.org/", "a.xlsx", "https://geo.example.org/download/a.xlsx"},
		{"Escaped", "", "my file.csv", "/download/my%20file.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := server.Config{PublicURL: tt.publicURL}
			assert.Equal(t, tt.want, c.DownloadURL(tt.file))
		})
	}
}

func TestConfig_BodyLimit(t *testing.T) {
	assert.Equal(t, 16*1024*1024, server.Config{}.BodyLimit())
	assert.Equal(t, 2*1024*1024, server.Config{BodyLimitMB: 2}.BodyLimit())
}
