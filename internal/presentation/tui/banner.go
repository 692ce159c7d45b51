package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"  _ __   __ _ _ __ _ __ __ _| |_ ___  _ __",
	" | '_ \\ / _` | '__| '__/ _` | __/ _ \\| '__|",
	" | | | | (_| | |  | | | (_| | || (_) | |",
	" |_| |_|\\__,_|_|  |_|  \\__,_|\\__\\___/|_|",
}

var bannerColors = []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9"}

// PrintBanner writes the narrator banner to w with the colours profile supports.
func PrintBanner(w io.Writer, profile termenv.Profile) {
	out := termenv.NewOutput(w, termenv.WithProfile(profile))
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(out.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)
}
