/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package lrucache provides a generic in-memory cache with LRU eviction policy and optional TTL.
// It keeps the last known state of idle lock identifiers.
package lrucache
