/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package logtest provides a log.FieldLogger implementation that records entries in memory,
// so tests can check what the lock has logged.
package logtest
