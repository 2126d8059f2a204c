// Package models contains the persisted job history record.
package models
