// Package logging provides structured logging built on zap.
//
// Production output is JSON to stdout; development output is colorized
// console encoding with debug level enabled.
package logging
