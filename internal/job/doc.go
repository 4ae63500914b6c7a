// Package job defines the durable data model for background jobs: the
// job identifier, the status state machine, and the Record snapshot that
// Store backends persist.
package job
