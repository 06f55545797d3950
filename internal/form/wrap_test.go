package form

import (
	"strings"
	"testing"
)

func TestBuildStyledRunesHeadlineThenBody(t *testing.T) {
	runes := buildStyledRunes([]rune("ab\ncd"), healthyStyle, bodyStyle)
	if len(runes) != 5 {
		t.Fatalf("expected 5 runes, got %d", len(runes))
	}
	if runes[0].s != healthyStyle.Render("a") {
		t.Fatalf("expected headline style for first line")
	}
	if !runes[2].isBreak {
		t.Fatalf("expected newline to become a break")
	}
	if runes[3].s != bodyStyle.Render("c") {
		t.Fatalf("expected body style after the break")
	}
}

func TestWrapStyledRunesAtSpaces(t *testing.T) {
	runes := buildStyledRunes([]rune("one two three"), bodyStyle, bodyStyle)
	out := wrapStyledRunes(runes, 8)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out)
	}
	if lines[0] != bodyStyle.Render("o")+bodyStyle.Render("n")+bodyStyle.Render("e")+bodyStyle.Render(" ")+bodyStyle.Render("t")+bodyStyle.Render("w")+bodyStyle.Render("o") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
}

func TestWrapStyledRunesHardBreakTrimsIndent(t *testing.T) {
	runes := buildStyledRunes([]rune("yes\n no"), bodyStyle, bodyStyle)
	out := wrapStyledRunes(runes, 0)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out)
	}
	if lines[1] != bodyStyle.Render("n")+bodyStyle.Render("o") {
		t.Fatalf("expected leading space trimmed, got %q", lines[1])
	}
}

func TestWrapStyledRunesSplitsLongWord(t *testing.T) {
	runes := buildStyledRunes([]rune("abcdef"), bodyStyle, bodyStyle)
	out := wrapStyledRunes(runes, 4)
	if got := strings.Count(out, "\n"); got != 1 {
		t.Fatalf("expected one break, got %d in %q", got, out)
	}
}

func TestWrapStyledRunesWideRunes(t *testing.T) {
	runes := buildStyledRunes([]rune("日本 語"), bodyStyle, bodyStyle)
	if runes[0].width != 2 {
		t.Fatalf("expected wide rune width 2, got %d", runes[0].width)
	}
	out := wrapStyledRunes(runes, 4)
	if got := strings.Count(out, "\n"); got != 1 {
		t.Fatalf("expected one break, got %d in %q", got, out)
	}
}
