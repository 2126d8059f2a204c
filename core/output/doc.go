// Package output serializes merged tables and stores the resulting files.
//
// The extension of the uploaded file picks the format: .xlsx and .xlsm input
// produce XLSX, anything else CSV. Artifacts are named
// "<base>_<UTC timestamp>_<short id><ext>" and addressed by a download
// locator built from the server's public URL.
//
// StorageStore writes to S3/MinIO through core/storage; LocalStore writes to
// a directory for single-host and CLI use. Both implement merge.TableWriter
// and can expire artifacts older than the queue result TTL.
package output
