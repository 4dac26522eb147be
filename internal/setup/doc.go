// Package setup prepares and validates the destination tree before a
// run: directory creation, a writability probe, and a free-space
// preflight.
package setup
