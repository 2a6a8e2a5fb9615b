// Package media renders the text published alongside uploaded videos:
// captions, channel headers, and the course index.
//
// Text uses a light markup where **x** marks bold; the messaging adapter
// converts it to entities.
package media

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MaxMessageRunes is the largest chunk of index text sent as one message.
const MaxMessageRunes = 4000

const boldMarker = "**"

// Plain collapses ** in names taken from the filesystem so they cannot
// open or close bold text.
func Plain(s string) string {
	for strings.Contains(s, boldMarker) {
		s = strings.ReplaceAll(s, boldMarker, "*")
	}
	return s
}

// Title strips the extension from a media file name.
func Title(file string) string {
	base := filepath.Base(file)
	return Plain(strings.TrimSuffix(base, filepath.Ext(base)))
}

// Caption joins the video title and the credit template with a blank line.
func Caption(title, credit string) string {
	return "🎥 **" + Plain(title) + "**\n\n" + credit
}

// CourseHeader is the first message of a run.
func CourseHeader(course string) string {
	return "🎓 **COURSE: " + Plain(course) + "**\n━━━━━━━━━━━━━━"
}

// SectionHeader separates units in the target chat.
func SectionHeader(unit string) string {
	return "📂 **" + Plain(unit) + "**\n➖➖➖➖➖➖➖"
}

// UnescapeCredit turns literal \n sequences typed by the operator into newlines.
func UnescapeCredit(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

// Index accumulates the navigable table of contents for a course.
// Only confirmed uploads are added as entries.
type Index struct {
	b    strings.Builder
	open bool
}

// NewIndex starts an index with its header line.
func NewIndex(course string) *Index {
	ix := &Index{}
	ix.b.WriteString("📚 **INDEX: " + Plain(course) + "**\n\n")
	return ix
}

// Section opens a new unit section, closing the previous one.
func (ix *Index) Section(unit string) {
	ix.closeSection()
	ix.b.WriteString("📂 **" + Plain(unit) + "**\n")
	ix.open = true
}

// Entry lists one published video under the current section.
func (ix *Index) Entry(title string) {
	ix.b.WriteString("   ├─ " + Plain(title) + "\n")
}

// String returns the document with the last section closed.
func (ix *Index) String() string {
	ix.closeSection()
	return ix.b.String()
}

func (ix *Index) closeSection() {
	if ix.open {
		ix.b.WriteString("\n")
		ix.open = false
	}
}

// Chunk splits s into consecutive pieces of at most n code points.
// Boundaries depend only on length; joining the result yields s.
func Chunk(s string, n int) []string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return []string{s}
	}
	var out []string
	count, start := 0, 0
	for i := range s {
		if count == n {
			out = append(out, s[start:i])
			start, count = i, 0
		}
		count++
	}
	return append(out, s[start:])
}

// BalanceBold makes every chunk of a split document self-contained: a bold
// run cut by a chunk boundary is closed at the end of one chunk and reopened
// at the start of the next. Markers are paired left to right over the whole
// document, so a marker split across a boundary still counts once.
func BalanceBold(chunks []string) []string {
	rs := []rune(strings.Join(chunks, ""))
	start := make([]bool, len(rs))  // first rune of a marker
	second := make([]bool, len(rs)) // second rune of a marker
	for i := 0; i+1 < len(rs); i++ {
		if rs[i] == '*' && rs[i+1] == '*' {
			start[i], second[i+1] = true, true
			i++
		}
	}

	out := make([]string, 0, len(chunks))
	bold, pos := false, 0
	for _, c := range chunks {
		end := pos + utf8.RuneCountInString(c)
		var b strings.Builder
		if bold {
			b.WriteString(boldMarker)
		}
		for i := pos; i < end; i++ {
			switch {
			case start[i]:
				b.WriteString(boldMarker)
				bold = !bold
			case second[i]:
			default:
				b.WriteRune(rs[i])
			}
		}
		if bold {
			b.WriteString(boldMarker)
		}
		out = append(out, b.String())
		pos = end
	}
	return out
}
