// Package runner implements the job lifecycle state machine: it bridges
// in-process asynchronous task execution with the durable record kept by
// a pluggable Store backend. Every status transition is persisted in
// order (pending, running, then exactly one terminal state), submission
// returns before the task runs, and abnormal task termination is always
// converted into a failed record.
package runner
