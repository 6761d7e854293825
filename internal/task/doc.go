// Package task implements the job-processing core: the in-memory task
// registry, the FIFO queue drained by a bounded worker pool, and the
// startup recovery that reconciles persisted task state after a restart.
package task
