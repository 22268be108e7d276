package social

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"social-publisher/domain/model"
)

// ComposeCaption joins the caption and hashtags the way every publisher posts them.
func ComposeCaption(c *model.Content) string {
	tags := make([]string, 0, len(c.Hashtags))
	for _, h := range c.Hashtags {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if !strings.HasPrefix(h, "#") {
			h = "#" + h
		}
		tags = append(tags, h)
	}
	caption := strings.TrimSpace(c.Caption)
	switch {
	case len(tags) == 0:
		return caption
	case caption == "":
		return strings.Join(tags, " ")
	}
	return caption + "\n\n" + strings.Join(tags, " ")
}

func Length(s string) int { return utf8.RuneCountInString(s) }

// Checker accumulates validation problems.
type Checker struct {
	problems []string
}

func (c *Checker) Require(ok bool, msg string) {
	if !ok {
		c.problems = append(c.problems, msg)
	}
}

func (c *Checker) MaxLength(field, value string, max int) {
	if n := Length(value); n > max {
		c.problems = append(c.problems, fmt.Sprintf("%s exceeds %d characters (%d)", field, max, n))
	}
}

func (c *Checker) Result() model.ValidationResult {
	return model.ValidationResult{Valid: len(c.problems) == 0, Errors: c.problems}
}
