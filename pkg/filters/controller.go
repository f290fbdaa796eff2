package filters

import "slices"

// Applied is handed to subscribers whenever committed state changes. The
// revision increases monotonically; consumers applying results asynchronously
// compare revisions before committing data so a superseded query can never
// overwrite a newer one.
type Applied struct {
	State    *State
	Revision uint64
}

// Controller owns the committed filter state and the draft edited inside an
// open filter popup. Draft edits never leak into committed state except
// through Apply; committed state never changes except through Apply, a quick
// filter or ClearAll.
type Controller struct {
	committed *State
	draft     *State
	revision  uint64
	onApply   []func(Applied)
}

func NewController() *Controller {
	return &Controller{committed: NewState()}
}

// OnApply subscribes to committed-state changes (URL sync, re-query,
// tracking).
func (c *Controller) OnApply(fn func(Applied)) {
	c.onApply = append(c.onApply, fn)
}

func (c *Controller) Committed() *State {
	return c.committed
}

func (c *Controller) Revision() uint64 {
	return c.revision
}

// OpenDraft copies committed into a fresh draft. Re-opening without an
// intervening Apply or ClearDraft re-copies and discards abandoned edits,
// which is intentional.
func (c *Controller) OpenDraft() *State {
	c.draft = c.committed.Copy()
	return c.draft
}

func (c *Controller) draftOrOpen() *State {
	if c.draft == nil {
		c.OpenDraft()
	}
	return c.draft
}

// TogglePriceRange selects the given price range on the draft, or clears it
// when the same range is already selected. Radio with deselect, not a pure
// radio.
func (c *Controller) TogglePriceRange(min, max int64) {
	d := c.draftOrOpen()
	if d.MinPrice == min && d.MaxPrice == max {
		d.MinPrice, d.MaxPrice = 0, 0
		return
	}
	d.MinPrice, d.MaxPrice = min, max
}

// TogglePowerRange behaves like TogglePriceRange for the wattage facet.
func (c *Controller) TogglePowerRange(min, max int) {
	d := c.draftOrOpen()
	if d.MinPower == min && d.MaxPower == max {
		d.MinPower, d.MaxPower = 0, 0
		return
	}
	d.MinPower, d.MaxPower = min, max
}

// ToggleTag is a plain set toggle on the multi-valued tag facet.
func (c *Controller) ToggleTag(code string) {
	d := c.draftOrOpen()
	if i := slices.Index(d.Tags, code); i >= 0 {
		d.Tags = slices.Delete(d.Tags, i, i+1)
		return
	}
	d.Tags = append(d.Tags, code)
}

func (c *Controller) Draft() *State {
	return c.draftOrOpen()
}

// Apply promotes the draft to committed, bumps the revision and notifies
// subscribers. Applying resets the page, a new facet set starts at the first
// page.
func (c *Controller) Apply() Applied {
	d := c.draftOrOpen()
	d.Page = 0
	c.committed = d.Copy()
	c.draft = nil
	return c.emit()
}

// ApplyQuick mutates committed state directly, bypassing the draft, for
// one-tap filters outside the popup.
func (c *Controller) ApplyQuick(mutate func(*State)) Applied {
	next := c.committed.Copy()
	mutate(next)
	next.Sanitize()
	next.Page = 0
	c.committed = next
	c.draft = nil
	return c.emit()
}

// ClearDraft resets every draft facet to its default without touching
// committed state.
func (c *Controller) ClearDraft() {
	c.draft = NewState()
}

// ClearAll resets committed state directly and notifies, the URL drops back
// to its bare path.
func (c *Controller) ClearAll() Applied {
	c.committed = NewState()
	c.draft = nil
	return c.emit()
}

func (c *Controller) emit() Applied {
	c.revision++
	applied := Applied{State: c.committed.Copy(), Revision: c.revision}
	for _, fn := range c.onApply {
		fn(applied)
	}
	return applied
}
