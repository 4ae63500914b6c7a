// Package store defines the persistence contract for job records and the
// error taxonomy shared by all backend implementations. The core depends
// only on this contract, never on a concrete backend.
package store
