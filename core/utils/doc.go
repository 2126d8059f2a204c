// Package utils provides cell value conversions shared by the source
// adapters and the output encoders.
package utils
