package terminal

import "github.com/gdamore/tcell/v2"

type palette struct {
	header, hidden, revealed, picked, solved, cursor, status, help tcell.Style
}

// paletteFor maps a board style tag to colors. Unknown tags use the classic look.
func paletteFor(style string) palette {
	base := tcell.StyleDefault
	switch style {
	case "dark":
		return palette{
			header:   base.Foreground(tcell.ColorSilver).Bold(true),
			hidden:   base.Foreground(tcell.ColorDimGray),
			revealed: base.Foreground(tcell.ColorWhite),
			picked:   base.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver),
			solved:   base.Foreground(tcell.ColorDarkSeaGreen),
			cursor:   base.Foreground(tcell.ColorWhite).Bold(true),
			status:   base.Foreground(tcell.ColorSilver),
			help:     base.Foreground(tcell.ColorDimGray),
		}
	case "neon":
		return palette{
			header:   base.Foreground(tcell.ColorFuchsia).Bold(true),
			hidden:   base.Foreground(tcell.ColorPurple),
			revealed: base.Foreground(tcell.ColorAqua),
			picked:   base.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow),
			solved:   base.Foreground(tcell.ColorLime).Bold(true),
			cursor:   base.Foreground(tcell.ColorFuchsia).Bold(true),
			status:   base.Foreground(tcell.ColorAqua),
			help:     base.Foreground(tcell.ColorPurple),
		}
	}
	return palette{
		header:   base.Bold(true),
		hidden:   base.Foreground(tcell.ColorNavy),
		revealed: base,
		picked:   base.Reverse(true),
		solved:   base.Foreground(tcell.ColorGreen),
		cursor:   base.Foreground(tcell.ColorYellow).Bold(true),
		status:   base,
		help:     base.Dim(true),
	}
}
