package tui

import "github.com/gdamore/tcell/v2"

var (
	ColorBg        = tcell.NewRGBColor(0, 0, 128)
	ColorFieldBg   = tcell.NewRGBColor(0, 0, 64)
	ColorFg        = tcell.NewRGBColor(192, 192, 192)
	ColorBorder    = tcell.NewRGBColor(0, 255, 255)
	ColorTitle     = tcell.NewRGBColor(255, 255, 255)
	ColorHighlight = tcell.NewRGBColor(0, 255, 255)
	ColorStatusBg  = tcell.NewRGBColor(0, 128, 128)
)
