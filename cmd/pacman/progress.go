package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// renderProgress draws a single-line, terminal-width-aware progress
// bar for the package currently being retrieved or installed,
// overwriting the previous line with a carriage return the way
// pacman's own terminal output does.
func renderProgress(label string, percent int) {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}

	const gutter = 8 // space reserved for " 100%" plus brackets
	barWidth := width - len(label) - gutter
	if barWidth < 10 {
		fmt.Printf("\r%s %3d%%", label, percent)
		return
	}

	filled := barWidth * percent / 100
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled)
	fmt.Printf("\r%s [%s] %3d%%", label, bar, percent)
	if percent >= 100 {
		fmt.Println()
	}
}
