package histogram

import "sync"

// Selection is a nullable bucket id. The zero value selects nothing.
type Selection struct {
	id  int
	set bool
}

// NoSelection is the empty selection.
var NoSelection = Selection{}

// SelectionOf returns a selection holding id.
func SelectionOf(id int) Selection {
	return Selection{id: id, set: true}
}

// ID returns the selected id and whether one is set.
func (s Selection) ID() (int, bool) {
	return s.id, s.set
}

// Is reports whether id is the selected bucket.
func (s Selection) Is(id int) bool {
	return s.set && s.id == id
}

// Toggle clears the selection when id is already selected, and selects id
// otherwise.
func (s Selection) Toggle(id int) Selection {
	if s.Is(id) {
		return NoSelection
	}
	return SelectionOf(id)
}

// SelectionController holds the highlighted bucket. At most one bucket is
// selected at any time.
type SelectionController struct {
	mu  sync.RWMutex
	sel Selection
}

// Select toggles id and returns the resulting selection.
func (c *SelectionController) Select(id int) Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel = c.sel.Toggle(id)
	return c.sel
}

// Clear drops any selection.
func (c *SelectionController) Clear() {
	c.mu.Lock()
	c.sel = NoSelection
	c.mu.Unlock()
}

// Current returns the current selection.
func (c *SelectionController) Current() Selection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sel
}

// Selected returns the selected id and whether one is set.
func (c *SelectionController) Selected() (int, bool) {
	return c.Current().ID()
}

// ClearIfOutOfRange drops the selection when it no longer names one of k
// buckets. It reports whether the selection was cleared.
func (c *SelectionController) ClearIfOutOfRange(k int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.sel.ID(); ok && id >= k {
		c.sel = NoSelection
		return true
	}
	return false
}
