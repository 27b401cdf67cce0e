package util

import (
	"strings"
	"unicode/utf8"
)

// CollapseSpace trims s and folds every whitespace run into a single space
// CollapseSpace 去除首尾空白并将连续空白合并为一个空格
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateRunes keeps at most max runes of s
// TruncateRunes 最多保留 max 个字符
func TruncateRunes(s string, max int) string {
	if max < 0 {
		return s
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}

// Preview collapses whitespace and cuts the result to max runes, appending an ellipsis when cut.
// Preview 合并空白后截断到 max 个字符，发生截断时追加省略号
func Preview(s string, max int) string {
	s = CollapseSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimRight(TruncateRunes(s, max), " ") + "…"
}
