// Package server holds the HTTP server configuration.
//
// The Config struct defines the HTTP port, the API key protecting the job
// endpoints, the request body limit and the public URL used to build
// download locators for merged files.
package server
