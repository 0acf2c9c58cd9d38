// Package width computes terminal display width for Mermaid labels.
//
// Width is never taken from rune count or byte length: every rune is
// classified through a fast ASCII path, then East-Asian-Width (via
// golang.org/x/text/width), then a small set of hand-written range
// tables for emoji presentation and zero-width combining marks that
// x/text/width does not cover. All coordinate math in the layout and
// raster packages is expressed in the columns this package returns.
package width

import (
	"unicode/utf8"

	xtwidth "golang.org/x/text/width"
)

// runeRange is an inclusive [lo, hi] codepoint range.
type runeRange struct {
	lo, hi rune
}

func inRanges(r rune, ranges []runeRange) bool {
	lo, hi := 0, len(ranges)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch {
		case r < ranges[mid].lo:
			hi = mid - 1
		case r > ranges[mid].hi:
			lo = mid + 1
		default:
			return true
		}
	}
	return false
}

// emojiTable lists ranges whose default presentation is emoji (width 2),
// layered on top of x/text/width's East-Asian-Width classification which
// does not account for emoji presentation.
var emojiTable = []runeRange{
	{0x2600, 0x26FF},   // Miscellaneous symbols
	{0x2700, 0x27BF},   // Dingbats
	{0x1F000, 0x1F0FF}, // Mahjong/domino/playing cards
	{0x1F300, 0x1F5FF}, // Misc symbols and pictographs
	{0x1F600, 0x1F64F}, // Emoticons
	{0x1F680, 0x1F6FF}, // Transport and map symbols
	{0x1F700, 0x1F77F}, // Alchemical symbols
	{0x1F780, 0x1F7FF}, // Geometric shapes extended
	{0x1F800, 0x1F8FF}, // Supplemental arrows-C
	{0x1F900, 0x1F9FF}, // Supplemental symbols and pictographs
	{0x1FA00, 0x1FA6F}, // Chess symbols
	{0x1FA70, 0x1FAFF}, // Symbols and pictographs extended-A
}

// zeroWidthTable lists combining marks and format characters that
// attach to a preceding base rune and never advance the cursor.
var zeroWidthTable = []runeRange{
	{0x0300, 0x036F}, // Combining diacritical marks
	{0x0483, 0x0489}, // Cyrillic combining marks
	{0x0591, 0x05BD}, // Hebrew combining marks
	{0x05BF, 0x05BF},
	{0x05C1, 0x05C2},
	{0x05C4, 0x05C5},
	{0x05C7, 0x05C7},
	{0x0610, 0x061A}, // Arabic combining marks
	{0x064B, 0x065F},
	{0x0670, 0x0670},
	{0x06D6, 0x06DC},
	{0x06DF, 0x06E4},
	{0x06E7, 0x06E8},
	{0x06EA, 0x06ED},
	{0x0901, 0x0902}, // Devanagari combining marks
	{0x093A, 0x093A},
	{0x093C, 0x093C},
	{0x0941, 0x0948},
	{0x094D, 0x094D},
	{0x0951, 0x0957},
	{0x0962, 0x0963},
	{0x1AB0, 0x1AFF}, // Combining diacritical marks extended
	{0x200B, 0x200F}, // ZWSP, LRM, RLM, ZWJ, ZWNJ
	{0x202A, 0x202E}, // Directional formatting
	{0x20D0, 0x20FF}, // Combining marks for symbols
	{0xFE00, 0xFE0F}, // Variation selectors
	{0xFE20, 0xFE2F}, // Combining half marks
	{0xFEFF, 0xFEFF}, // Zero-width no-break space / BOM
}

// RuneWidth returns the display width of a single rune: 0, 1, or 2.
func RuneWidth(r rune) int {
	if r == 0 {
		return 0
	}
	if r < 0x20 || r == 0x7F {
		return 0 // control characters contribute no columns
	}
	if r < 0x7F {
		return 1 // ASCII fast path
	}
	if inRanges(r, zeroWidthTable) {
		return 0
	}
	if inRanges(r, emojiTable) {
		return 2
	}
	switch xtwidth.LookupRune(r).Kind() {
	case xtwidth.EastAsianWide, xtwidth.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

// StringWidth returns the total display width of s, clustering each
// base rune with any immediately following zero-width combining marks
// into a single display unit.
func StringWidth(s string) int {
	total := 0
	for _, r := range s {
		total += RuneWidth(r)
	}
	return total
}

// Truncate returns the longest prefix of s whose display width is at
// most max, never splitting a multi-byte rune.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	w := 0
	for i, r := range s {
		rw := RuneWidth(r)
		if w+rw > max {
			return s[:i]
		}
		w += rw
	}
	return s
}

// Pad right-pads s with spaces so its display width equals w. If s is
// already at least w columns wide, s is returned unchanged.
func Pad(s string, w int) string {
	cur := StringWidth(s)
	if cur >= w {
		return s
	}
	buf := make([]byte, 0, len(s)+(w-cur))
	buf = append(buf, s...)
	for i := 0; i < w-cur; i++ {
		buf = append(buf, ' ')
	}
	return string(buf)
}

// Center pads s with spaces on both sides so its display width equals w.
func Center(s string, w int) string {
	cur := StringWidth(s)
	if cur >= w {
		return s
	}
	total := w - cur
	left := total / 2
	right := total - left
	out := make([]byte, 0, len(s)+total)
	for i := 0; i < left; i++ {
		out = append(out, ' ')
	}
	out = append(out, s...)
	for i := 0; i < right; i++ {
		out = append(out, ' ')
	}
	return string(out)
}

// FirstRuneWidth reports the width of the first rune in s and its byte
// length, for callers that need to walk a string one cluster at a time.
func FirstRuneWidth(s string) (w int, size int) {
	if s == "" {
		return 0, 0
	}
	r, size := utf8.DecodeRuneInString(s)
	return RuneWidth(r), size
}
