// Package display holds human-facing output helpers: the startup
// banner and byte/count formatting used in run summaries.
package display
