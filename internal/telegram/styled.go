package telegram

import (
	"strings"

	"github.com/gotd/td/telegram/message/styling"
)

type segment struct {
	text string
	bold bool
}

// splitBold cuts text on ** markers. Odd segments are bold.
func splitBold(text string) []segment {
	var out []segment
	for i, part := range strings.Split(text, "**") {
		if part == "" {
			continue
		}
		out = append(out, segment{text: part, bold: i%2 == 1})
	}
	return out
}

// Styled converts **bold** markup into message entities.
func Styled(text string) []styling.StyledTextOption {
	segs := splitBold(text)
	if len(segs) == 0 {
		return []styling.StyledTextOption{styling.Plain(text)}
	}
	opts := make([]styling.StyledTextOption, 0, len(segs))
	for _, s := range segs {
		if s.bold {
			opts = append(opts, styling.Bold(s.text))
		} else {
			opts = append(opts, styling.Plain(s.text))
		}
	}
	return opts
}
