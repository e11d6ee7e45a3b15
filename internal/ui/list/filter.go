package list

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// SetFilter replaces the filter query, recomputes the filtered view, and
// snaps the cursor to the best match.
func (l *List) SetFilter(query string) {
	l.Filter = query
	l.applyFilter()
	if trimmed := strings.TrimSpace(query); trimmed != "" && len(l.Items) > 0 {
		if idx := bestMatchIndex(l.Items, trimmed); idx >= 0 {
			l.Cursor = idx
		}
	}
}

// AppendFilter adds text to the filter query.
func (l *List) AppendFilter(text string) {
	if text == "" {
		return
	}
	l.SetFilter(l.Filter + text)
}

// BackspaceFilter removes the last rune of the filter query. It reports
// whether anything was removed.
func (l *List) BackspaceFilter() bool {
	runes := []rune(l.Filter)
	if len(runes) == 0 {
		return false
	}
	l.SetFilter(string(runes[:len(runes)-1]))
	return true
}

// ClearFilter resets the query and restores the full item set.
func (l *List) ClearFilter() bool {
	if l.Filter == "" {
		return false
	}
	l.SetFilter("")
	return true
}

func (l *List) applyFilter() {
	l.Items = filterItems(l.Full, l.Filter)
	if len(l.Items) == 0 {
		l.Cursor = 0
		l.ViewportOffset = 0
		return
	}
	if l.Cursor < 0 {
		l.Cursor = 0
	}
	if l.Cursor >= len(l.Items) {
		l.Cursor = len(l.Items) - 1
	}
	if l.ViewportOffset > len(l.Items)-1 {
		l.ViewportOffset = 0
	}
}

// filterItems narrows items by fuzzy label match, falling back to substring
// match against label and id so short queries still hit.
func filterItems(items []Item, query string) []Item {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return clone(items)
	}
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
	}
	ranks := fuzzy.RankFindNormalizedFold(trimmed, labels)
	if len(ranks) > 0 {
		matched := make(map[int]struct{}, len(ranks))
		for _, rank := range ranks {
			matched[rank.OriginalIndex] = struct{}{}
		}
		filtered := make([]Item, 0, len(matched))
		for idx, item := range items {
			if _, ok := matched[idx]; ok {
				filtered = append(filtered, item)
			}
		}
		if len(filtered) > 0 {
			return filtered
		}
	}
	lower := strings.ToLower(trimmed)
	filtered := make([]Item, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Label), lower) ||
			strings.Contains(strings.ToLower(item.ID), lower) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func bestMatchIndex(items []Item, query string) int {
	if len(items) == 0 {
		return -1
	}
	lower := strings.ToLower(query)
	for i, item := range items {
		if strings.EqualFold(item.Label, query) || strings.EqualFold(item.ID, query) {
			return i
		}
	}
	for i, item := range items {
		if strings.HasPrefix(strings.ToLower(item.Label), lower) {
			return i
		}
	}
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
	}
	ranks := fuzzy.RankFindNormalizedFold(query, labels)
	if len(ranks) == 0 {
		return 0
	}
	best := ranks[0]
	for _, rank := range ranks[1:] {
		if rank.Distance < best.Distance ||
			(rank.Distance == best.Distance && rank.OriginalIndex < best.OriginalIndex) {
			best = rank
		}
	}
	if best.OriginalIndex < 0 || best.OriginalIndex >= len(items) {
		return 0
	}
	return best.OriginalIndex
}
