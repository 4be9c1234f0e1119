// Package utils holds small helpers shared across the module: JSON dumps
// for log lines and corrective prompts, string truncation, a stopwatch and
// a pointer helper.
package utils
