/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package keylock provides an in-process keyed lock manager that serializes units of work sharing a string identifier.
//
// Work submitted with Run for the same identifier is executed strictly one at a time in request order,
// while work for different identifiers runs independently. A unit of work may be given an expiration:
// when it elapses the slot is released for the next waiter, but the work itself is not interrupted.
// Queued (not yet started) work may be withdrawn with Cancel. The current lifecycle stage of an identifier
// is available via GetState.
package keylock
