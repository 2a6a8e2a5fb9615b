package media

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "lec1.mkv", want: "lec1"},
		{in: "/a/b/Intro to Go.mp4", want: "Intro to Go"},
		{in: "v1.2.final.MOV", want: "v1.2.final"},
		{in: "noext", want: "noext"},
	}
	for _, tt := range tests {
		if got := Title(tt.in); got != tt.want {
			t.Errorf("Title(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCaption(t *testing.T) {
	credit := UnescapeCredit(`Uploaded by @me\nJoin us`)
	got := Caption("lec1", credit)
	want := "🎥 **lec1**\n\nUploaded by @me\nJoin us"
	if got != want {
		t.Errorf("Caption = %q, want %q", got, want)
	}
}

func TestIndex_Sections(t *testing.T) {
	ix := NewIndex("Course")
	ix.Section("Course")
	ix.Entry("a")
	ix.Section("Week1")
	ix.Entry("lec1")
	ix.Entry("lec2")
	ix.Section("Empty")

	want := "📚 **INDEX: Course**\n\n" +
		"📂 **Course**\n   ├─ a\n\n" +
		"📂 **Week1**\n   ├─ lec1\n   ├─ lec2\n\n" +
		"📂 **Empty**\n\n"
	if got := ix.String(); got != want {
		t.Errorf("index =\n%q\nwant\n%q", got, want)
	}
	// String is idempotent.
	if got := ix.String(); got != want {
		t.Errorf("second String() changed the document: %q", got)
	}
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		n         int
		wantParts int
	}{
		{name: "short", in: "abc", n: 4000, wantParts: 1},
		{name: "exactly limit", in: strings.Repeat("a", 4000), n: 4000, wantParts: 1},
		{name: "one over", in: strings.Repeat("a", 4001), n: 4000, wantParts: 2},
		{name: "multiple", in: strings.Repeat("a", 12000), n: 4000, wantParts: 3},
		{name: "multibyte", in: strings.Repeat("├─📂", 3000), n: 4000, wantParts: 3},
		{name: "empty", in: "", n: 4000, wantParts: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := Chunk(tt.in, tt.n)
			if len(parts) != tt.wantParts {
				t.Fatalf("len(parts) = %d, want %d", len(parts), tt.wantParts)
			}
			if strings.Join(parts, "") != tt.in {
				t.Errorf("joined chunks differ from input")
			}
			for i, p := range parts {
				if !utf8.ValidString(p) {
					t.Errorf("part %d is not valid UTF-8", i)
				}
				if c := utf8.RuneCountInString(p); c > tt.n {
					t.Errorf("part %d has %d runes, limit %d", i, c, tt.n)
				}
				if i < len(parts)-1 && utf8.RuneCountInString(p) != tt.n {
					t.Errorf("non-final part %d is not full size", i)
				}
			}
		})
	}
}

func TestPlain(t *testing.T) {
	tests := map[string]string{
		"lec1":       "lec1",
		"a**b":       "a*b",
		"***x****":   "*x*",
		"single*one": "single*one",
	}
	for in, want := range tests {
		if got := Plain(in); got != want {
			t.Errorf("Plain(%q) = %q, want %q", in, got, want)
		}
	}
	if got := Title("/c/**Bonus**.mp4"); got != "*Bonus*" {
		t.Errorf("Title with markers = %q", got)
	}
	if got := SectionHeader("a**b"); strings.Count(got, "**") != 2 {
		t.Errorf("SectionHeader leaks markers: %q", got)
	}
}

func TestBalanceBold(t *testing.T) {
	doc := "📚 **INDEX: Go**\n\n📂 **Week1**\n   ├─ lec1\n\n📂 **Week2 has a long name**\n\n"
	unmark := func(s string) string { return strings.ReplaceAll(s, "**", "") }

	for n := 1; n <= utf8.RuneCountInString(doc); n++ {
		chunks := Chunk(doc, n)
		got := BalanceBold(chunks)
		if len(got) != len(chunks) {
			t.Fatalf("n=%d: %d chunks, want %d", n, len(got), len(chunks))
		}
		var joined strings.Builder
		for i, c := range got {
			if strings.Count(c, "**")%2 != 0 {
				t.Errorf("n=%d chunk %d leaves bold open: %q", n, i, c)
			}
			joined.WriteString(c)
		}
		if unmark(joined.String()) != unmark(doc) {
			t.Errorf("n=%d: visible text changed:\n%q\nwant\n%q", n, unmark(joined.String()), unmark(doc))
		}
	}

	// A cut inside a bold run reopens it in the next chunk.
	got := BalanceBold([]string{"a **bo", "ld** c"})
	want := []string{"a **bo**", "**ld** c"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, got[i], want[i])
		}
	}

	// A marker split by the boundary still pairs once.
	got = BalanceBold([]string{"x *", "*y** z"})
	if unmark(got[0]) != "x " || unmark(got[1]) != "y z" {
		t.Errorf("split marker = %q", got)
	}
	if !strings.HasPrefix(got[1], "**y**") {
		t.Errorf("second chunk should reopen bold: %q", got[1])
	}

	if got := BalanceBold([]string{"plain"}); got[0] != "plain" {
		t.Errorf("unchanged text = %q", got[0])
	}
}
