package parser

import "regexp"

var (
	// anchorRe matches "<day> <month-name> <year>" anywhere in a line.
	anchorRe = regexp.MustCompile(`(\d{1,2})\s+([A-Za-z]{3,})\s+(\d{4})`)
	// clockRe is the loose "looks like a time" check used for layout guessing.
	clockRe = regexp.MustCompile(`\d{1,2}:\d{2}`)
	// clockPartsRe extracts hour and minute; the am/pm suffix is optional.
	clockPartsRe = regexp.MustCompile(`(\d{1,2}):(\d{2})(am|pm)?`)
	stylistRe    = regexp.MustCompile(`with\s+(.+)`)
	serviceRe    = regexp.MustCompile(`^(?:\*\s*|•\s*)?(.+)$`)
	priceRe      = regexp.MustCompile(`[£$€]\d+(\.\d+)?`)
	durationRe   = regexp.MustCompile(`\d+\s+mins?`)
	leadingIntRe = regexp.MustCompile(`(\d+)`)
)

// cursor walks the tokenized lines. Reads past the end return ok=false
// rather than an empty-looking value.
type cursor struct {
	lines []string
	pos   int
}

func (c *cursor) done() bool {
	return c.pos >= len(c.lines)
}

// peek returns the line at offset n from the cursor without moving.
func (c *cursor) peek(n int) (string, bool) {
	i := c.pos + n
	if i < 0 || i >= len(c.lines) {
		return "", false
	}
	return c.lines[i], true
}

// next returns the current line and advances by one.
func (c *cursor) next() (string, bool) {
	l, ok := c.peek(0)
	if !c.done() {
		c.pos++
	}
	return l, ok
}

func (c *cursor) skip() {
	if !c.done() {
		c.pos++
	}
}

// skipToAnchor discards lines until the next date anchor or the end.
func (c *cursor) skipToAnchor() {
	for !c.done() && !anchorRe.MatchString(c.lines[c.pos]) {
		c.pos++
	}
}
