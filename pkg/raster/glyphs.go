package raster

import "github.com/mermaid-ascii/ma/pkg/config"

// glyphTable holds every rune the rasterizer needs for one glyph set
// (Unicode box-drawing or plain ASCII).
type glyphTable struct {
	lightJunction map[uint8]rune
	heavyJunction map[uint8]rune

	dashedHorizontal rune
	dashedVertical   rune

	arrowUp, arrowDown, arrowLeft, arrowRight rune
	openArrowUp, openArrowDown               rune
	openArrowLeft, openArrowRight            rune
	cross                                    rune

	lightBox boxGlyphs
	heavyBox boxGlyphs
}

type boxGlyphs struct {
	topLeft, topRight, bottomLeft, bottomRight rune
	horizontal, vertical                       rune
}

func (t glyphTable) box(s Style) boxGlyphs {
	if s == StyleThick {
		return t.heavyBox
	}
	return t.lightBox
}

// lineMask keys, shared by both junction tables: bit 1=N, 2=S, 4=E, 8=W.
func tableFor(gs config.GlyphSet) glyphTable {
	if gs == config.GlyphSetASCII {
		return asciiTable()
	}
	return unicodeTable()
}

func unicodeTable() glyphTable {
	light := map[uint8]rune{
		1: '│', 2: '│', 3: '│',
		4: '─', 8: '─', 12: '─',
		5: '└', 9: '┘', 6: '┌', 10: '┐',
		7: '├', 11: '┤', 13: '┴', 14: '┬', 15: '┼',
	}
	heavy := map[uint8]rune{
		1: '┃', 2: '┃', 3: '┃',
		4: '━', 8: '━', 12: '━',
		5: '┗', 9: '┛', 6: '┏', 10: '┓',
		7: '┣', 11: '┫', 13: '┻', 14: '┳', 15: '╋',
	}
	return glyphTable{
		lightJunction:    light,
		heavyJunction:    heavy,
		dashedHorizontal: '╌',
		dashedVertical:   '╎',
		arrowUp:          '▲',
		arrowDown:        '▼',
		arrowLeft:        '◀',
		arrowRight:       '▶',
		openArrowUp:      '△',
		openArrowDown:    '▽',
		openArrowLeft:    '◁',
		openArrowRight:   '▷',
		cross:            '✗',
		lightBox: boxGlyphs{
			topLeft: '┌', topRight: '┐', bottomLeft: '└', bottomRight: '┘',
			horizontal: '─', vertical: '│',
		},
		heavyBox: boxGlyphs{
			topLeft: '┏', topRight: '┓', bottomLeft: '┗', bottomRight: '┛',
			horizontal: '━', vertical: '┃',
		},
	}
}

func asciiTable() glyphTable {
	corner := map[uint8]rune{
		1: '|', 2: '|', 3: '|',
		4: '-', 8: '-', 12: '-',
		5: '+', 9: '+', 6: '+', 10: '+',
		7: '+', 11: '+', 13: '+', 14: '+', 15: '+',
	}
	return glyphTable{
		lightJunction:    corner,
		heavyJunction:    corner,
		dashedHorizontal: '-',
		dashedVertical:   '|',
		arrowUp:          '^',
		arrowDown:        'v',
		arrowLeft:        '<',
		arrowRight:       '>',
		openArrowUp:      '^',
		openArrowDown:    'v',
		openArrowLeft:    '<',
		openArrowRight:   '>',
		cross:            'x',
		lightBox: boxGlyphs{
			topLeft: '+', topRight: '+', bottomLeft: '+', bottomRight: '+',
			horizontal: '-', vertical: '|',
		},
		heavyBox: boxGlyphs{
			topLeft: '+', topRight: '+', bottomLeft: '+', bottomRight: '+',
			horizontal: '=', vertical: '|',
		},
	}
}
