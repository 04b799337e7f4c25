/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

// MetricsCollector represents a collector of metrics about the cache size and evictions.
type MetricsCollector interface {
	// SetAmount sets the total number of entries in the cache.
	SetAmount(int)

	// AddEvictions increments the total number of evicted entries.
	AddEvictions(int)
}

type disabledMetrics struct{}

func (disabledMetrics) SetAmount(int)    {}
func (disabledMetrics) AddEvictions(int) {}
