package markdown

import (
	"strings"
	"testing"
)

func TestWrapLineWidthBound(t *testing.T) {
	inputs := []string{
		"короткая строка",
		"одно слово и ещё несколько слов которые должны быть упакованы жадно по строкам",
		strings.Repeat("x", 500),
		"параграф один\n\nпараграф два с бо́льшим количеством слов внутри",
		"",
	}
	for _, width := range []int{1, 7, 80} {
		for _, in := range inputs {
			for _, line := range Wrap(in, width) {
				if n := len([]rune(line)); n > width {
					t.Errorf("width=%d: 行超宽 (%d): %q", width, n, line)
				}
			}
		}
	}
}

func TestWrapPreservesWordOrder(t *testing.T) {
	in := "раз два три четыре пять шесть семь восемь девять десять"
	lines := Wrap(in, 15)
	got := strings.Fields(strings.Join(lines, " "))
	want := strings.Fields(in)
	if len(got) != len(want) {
		t.Fatalf("слов стало %d, было %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("позиция %d: %q != %q", i, got[i], want[i])
		}
	}
}

func TestWrapHardSplitsLongWord(t *testing.T) {
	word := strings.Repeat("ю", 25)
	lines := Wrap(word, 10)
	if len(lines) != 3 {
		t.Fatalf("ожидалось 3 фрагмента, получено %d: %v", len(lines), lines)
	}
	if strings.Join(lines, "") != word {
		t.Errorf("фрагменты не восстанавливают слово: %v", lines)
	}
}

func TestWrapNoWhitespaceInput(t *testing.T) {
	in := strings.Repeat("a", 1000)
	lines := Wrap(in, 80)
	for _, line := range lines {
		if len(line) > 80 {
			t.Errorf("行超宽: %d", len(line))
		}
	}
	if strings.Join(lines, "") != in {
		t.Error("硬切片段拼接后与原文不一致")
	}
}

func TestWrapKeepsParagraphBoundaries(t *testing.T) {
	lines := Wrap("первый\n\nвторой", 80)
	want := []string{"первый", "", "второй"}
	if len(lines) != len(want) {
		t.Fatalf("行数 %d != %d: %v", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("行 %d: %q != %q", i, lines[i], want[i])
		}
	}
}
