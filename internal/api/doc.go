// Package api exposes the job runner over HTTP: submitting a registered
// task type returns a job id immediately, and the id can be polled for
// the job's persisted status.
package api
