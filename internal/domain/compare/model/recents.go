// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

// MaxRecentVideos caps the recency list.
const MaxRecentVideos = 5

// RecentVideos is ordered most-recent-first and never holds two entries with
// the same ID.
type RecentVideos []VideoSource

// Push moves v to the front, removing any earlier entry with the same ID, and
// truncates the list to MaxRecentVideos.
func (r RecentVideos) Push(v VideoSource) RecentVideos {
	out := make(RecentVideos, 0, MaxRecentVideos)
	out = append(out, *v.Clone())
	for _, existing := range r {
		if existing.ID == v.ID {
			continue
		}
		if len(out) == MaxRecentVideos {
			break
		}
		out = append(out, existing)
	}
	return out
}

// IDs returns the IDs in order.
func (r RecentVideos) IDs() []string {
	ids := make([]string, len(r))
	for i, v := range r {
		ids[i] = v.ID
	}
	return ids
}
