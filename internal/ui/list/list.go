// Package list holds the cursor, filter, viewport and selection state for
// one scrollable item list.
package list

// Item is one selectable entry.
type Item struct {
	ID    string
	Label string
}

// List tracks display state over a full item set plus its filtered view.
type List struct {
	Items          []Item // filtered view
	Full           []Item // unfiltered set
	Filter         string
	Cursor         int
	ViewportOffset int
	MultiSelect    bool
	Selected       map[string]struct{}
}

// New constructs a list over the given items.
func New(items []Item) *List {
	l := &List{Selected: make(map[string]struct{})}
	l.SetItems(items)
	return l
}

// SetItems replaces the full item set, reapplying the filter and keeping
// the cursor and viewport in range.
func (l *List) SetItems(items []Item) {
	l.Full = clone(items)
	l.cleanupSelections()
	l.applyFilter()
}

// CurrentItem returns the item under the cursor.
func (l *List) CurrentItem() (Item, bool) {
	if l.Cursor < 0 || l.Cursor >= len(l.Items) {
		return Item{}, false
	}
	return l.Items[l.Cursor], true
}

// IndexOf returns the filtered index of an item id, -1 when absent.
func (l *List) IndexOf(id string) int {
	for i, item := range l.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// MoveCursor shifts the cursor by delta, clamping at both ends. It reports
// whether the cursor moved.
func (l *List) MoveCursor(delta int) bool {
	if len(l.Items) == 0 {
		l.Cursor = 0
		return false
	}
	old := l.Cursor
	l.Cursor += delta
	if l.Cursor < 0 {
		l.Cursor = 0
	}
	if l.Cursor >= len(l.Items) {
		l.Cursor = len(l.Items) - 1
	}
	return l.Cursor != old
}

// MoveCursorHome moves the cursor to the first item.
func (l *List) MoveCursorHome() bool {
	return l.MoveCursor(-len(l.Items))
}

// MoveCursorEnd moves the cursor to the last item.
func (l *List) MoveCursorEnd() bool {
	return l.MoveCursor(len(l.Items))
}

// EnsureVisible adjusts the viewport offset so the cursor stays on screen.
func (l *List) EnsureVisible(maxVisible int) {
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
	if maxVisible <= 0 {
		l.ViewportOffset = 0
		return
	}
	maxOffset := len(l.Items) - maxVisible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if l.ViewportOffset > maxOffset {
		l.ViewportOffset = maxOffset
	}
	if l.ViewportOffset < 0 {
		l.ViewportOffset = 0
	}
	if l.Cursor < l.ViewportOffset {
		l.ViewportOffset = l.Cursor
	}
	if upper := l.ViewportOffset + maxVisible - 1; l.Cursor > upper {
		l.ViewportOffset = l.Cursor - maxVisible + 1
	}
}

// Visible returns the slice of filtered items currently in the viewport.
func (l *List) Visible(maxVisible int) []Item {
	if maxVisible <= 0 || len(l.Items) <= maxVisible {
		return clone(l.Items)
	}
	end := l.ViewportOffset + maxVisible
	if end > len(l.Items) {
		end = len(l.Items)
	}
	return clone(l.Items[l.ViewportOffset:end])
}

func clone(items []Item) []Item {
	if len(items) == 0 {
		return nil
	}
	dup := make([]Item, len(items))
	copy(dup, items)
	return dup
}
