// Package view computes read-only projections of store contents. Nothing
// here is persisted; callers regroup whenever they need a fresh view.
package view

import "sort"

// Fallback labels for items whose grouping key is empty.
const (
	UnspecifiedRoom    = "Unspecified Room"
	UnspecifiedCountry = "Unspecified Country"
)

// Group is the subset of items that share a key.
type Group[T any] struct {
	Items []T    `json:"items"`
	Count int    `json:"count"`
	Label string `json:"label"`
}

// Groups maps each label to its group.
type Groups[T any] map[string]Group[T]

// GroupBy buckets items by key(item). Items with an empty key land under
// fallback. Input order is preserved within each group.
func GroupBy[T any](items []T, key func(T) string, fallback string) Groups[T] {
	groups := make(Groups[T])
	for _, item := range items {
		label := key(item)
		if label == "" {
			label = fallback
		}
		g := groups[label]
		g.Label = label
		g.Items = append(g.Items, item)
		g.Count = len(g.Items)
		groups[label] = g
	}
	return groups
}

// Labels returns the group labels sorted alphabetically, with fallback last.
func (g Groups[T]) Labels(fallback string) []string {
	labels := make([]string, 0, len(g))
	for label := range g {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i] == fallback || labels[j] == fallback {
			return labels[j] == fallback && labels[i] != fallback
		}
		return labels[i] < labels[j]
	})
	return labels
}
