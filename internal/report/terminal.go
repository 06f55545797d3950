package report

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

const terminalWidthBackup = 80

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// ColorEnabled reports whether ANSI colours should be written to w.
func ColorEnabled(w io.Writer) bool {
	return shouldUseColor(w, false)
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func heading(w io.Writer, title string) error {
	_, err := fmt.Fprintln(w, title)
	return err
}

func blank(w io.Writer) error {
	_, err := fmt.Fprintln(w)
	return err
}
