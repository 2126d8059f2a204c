// Package queue defers merge jobs to a worker through Redis.
//
// Enqueue RPUSHes a JSON message onto a list and returns the key the result
// will be stored under. The Worker BLPOPs one message at a time, runs the
// registered Handler for its task and SETs {status, result} with a TTL. Poll
// returns the stored result once and deletes it.
//
// Handler errors and panics become {status: "error", result: "<message>"};
// the worker loop keeps running.
package queue
