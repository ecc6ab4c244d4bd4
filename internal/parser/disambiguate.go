package parser

import (
	"strings"

	"barbercal/internal/model"
)

// GuessFormat picks a layout from the two lines following a date anchor.
// l0ok / l1ok report whether those lines exist.
//
// Format 1 is checked first and wins whenever L0 is present, is not a clock
// time and carries no asterisk. A time followed by a starred service line is
// Format 2, and so is anything that fits neither layout.
func GuessFormat(l0 string, l0ok bool, l1 string, l1ok bool) model.Format {
	if l0ok && !clockRe.MatchString(l0) && !strings.Contains(l0, "*") {
		return model.Format1
	}
	return model.Format2
}

// looksLikeFormat2 reports the positive Format 2 signal. It only feeds the
// debug log; GuessFormat falls back to Format 2 either way.
func looksLikeFormat2(l0 string, l0ok bool, l1 string, l1ok bool) bool {
	return l0ok && clockRe.MatchString(l0) && l1ok && strings.Contains(l1, "*")
}

func (c *cursor) guessFormat() (model.Format, bool) {
	l0, ok0 := c.peek(0)
	l1, ok1 := c.peek(1)
	return GuessFormat(l0, ok0, l1, ok1), looksLikeFormat2(l0, ok0, l1, ok1)
}
