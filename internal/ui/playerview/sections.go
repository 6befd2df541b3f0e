package playerview

// sectionCursor tracks the highlighted row of the section list and the first
// visible row. The list length and viewport height are passed in because they
// change with the feed and the window.
type sectionCursor struct {
	pos    int
	offset int
	margin int
}

func (c *sectionCursor) move(delta, listLen, height int) {
	c.jump(c.pos+delta, listLen, height)
}

func (c *sectionCursor) jump(pos, listLen, height int) {
	if listLen == 0 {
		return
	}
	c.pos = min(max(pos, 0), listLen-1)
	c.ensureVisible(listLen, height)
}

func (c *sectionCursor) ensureVisible(listLen, height int) {
	if height <= 0 || listLen == 0 {
		return
	}
	margin := min(c.margin, (height-1)/2)
	if c.pos < c.offset+margin {
		c.offset = c.pos - margin
	}
	if c.pos >= c.offset+height-margin {
		c.offset = c.pos - height + margin + 1
	}
	c.offset = min(max(c.offset, 0), max(listLen-height, 0))
}

// visible returns the visible index range [start, end).
func (c sectionCursor) visible(listLen, height int) (start, end int) {
	if listLen == 0 || height <= 0 {
		return 0, 0
	}
	return c.offset, min(c.offset+height, listLen)
}
