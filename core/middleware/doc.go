// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation through the X-API-Key header or a bearer
//     token. Download links and other public prefixes can be exempted.
//   - rayid: a request id stored in the context under "ray_id" and echoed in
//     the X-Ray-ID response header for tracing.
//
// Register rayid first so every later log line carries the id.
package middleware
