package list

// IsSelected reports whether the item id is part of the multi-selection.
func (l *List) IsSelected(id string) bool {
	if !l.MultiSelect {
		return false
	}
	_, ok := l.Selected[id]
	return ok
}

// ToggleSelection flips the selection state of the given item id.
func (l *List) ToggleSelection(id string) {
	if !l.MultiSelect || id == "" {
		return
	}
	if l.Selected == nil {
		l.Selected = map[string]struct{}{}
	}
	if _, ok := l.Selected[id]; ok {
		delete(l.Selected, id)
		return
	}
	l.Selected[id] = struct{}{}
}

// ToggleCurrentSelection flips the selection state of the item under the
// cursor and advances the cursor one row.
func (l *List) ToggleCurrentSelection() {
	item, ok := l.CurrentItem()
	if !ok {
		return
	}
	l.ToggleSelection(item.ID)
	l.MoveCursor(1)
}

// ClearSelection drops every selected id.
func (l *List) ClearSelection() {
	if len(l.Selected) == 0 {
		return
	}
	l.Selected = map[string]struct{}{}
}

// SelectedItems returns the selected items in full-list order. When nothing
// is selected it returns the item under the cursor, so callers can treat
// "no selection" as "act on the current row".
func (l *List) SelectedItems() []Item {
	if l.MultiSelect && len(l.Selected) > 0 {
		items := make([]Item, 0, len(l.Selected))
		for _, item := range l.Full {
			if _, ok := l.Selected[item.ID]; ok {
				items = append(items, item)
			}
		}
		return items
	}
	if item, ok := l.CurrentItem(); ok {
		return []Item{item}
	}
	return nil
}

// cleanupSelections discards selected ids that no longer exist in the full
// item set.
func (l *List) cleanupSelections() {
	if len(l.Selected) == 0 {
		return
	}
	known := make(map[string]struct{}, len(l.Full))
	for _, item := range l.Full {
		known[item.ID] = struct{}{}
	}
	for id := range l.Selected {
		if _, ok := known[id]; !ok {
			delete(l.Selected, id)
		}
	}
}
