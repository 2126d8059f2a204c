// Package geomance exposes merge jobs over HTTP and runs them on the queue
// worker.
//
// A submission is parsed and validated synchronously; only valid jobs are
// queued. The worker handler loads the upload, builds a fresh adapter roster
// and a fresh resolution cache, runs the merge engine and stores the summary
// as the job result. Clients poll with the returned session key; a result is
// handed out once and then deleted. Merged files are served under
// /download/.
//
// When a database is configured every job is also recorded in the
// geomancer_jobs table.
package geomance
