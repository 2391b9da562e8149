// Package monitor implements the polling cycle: resolve the status of the
// next departure of a configured rail line and notify when it is delayed.
package monitor
