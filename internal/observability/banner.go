package observability

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	colorReset    = "\033[0m"
	colorNeonCyan = "\033[96m"
)

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return w
}

// PrintBanner writes the startup banner centered on the terminal. Colors are
// only used when out is a terminal.
func PrintBanner(out io.Writer, inst Instance, addr string) {
	banner := `
    ___    ____  _______
   /   |  / __ \/  _/   |
  / /| | / /_/ // // /| |
 / ___ |/ _, _// // ___ |
/_/  |_/_/ |_/___/_/  |_|

   >> AI GOAL PLANNER BACKEND <<
`
	color, reset := "", ""
	width := 80
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		color, reset = colorNeonCyan, colorReset
		width = termWidth()
	}

	for _, l := range strings.Split(banner, "\n") {
		padding := (width - len(l)) / 2
		if padding < 0 {
			padding = 0
		}
		fmt.Fprintf(out, "%s%s%s%s\n", strings.Repeat(" ", padding), color, l, reset)
	}

	rule := strings.Repeat("=", 60)
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "[SERVER] Instance: %s\n", inst.ID)
	fmt.Fprintf(out, "[SERVER] Process ID: %d\n", inst.PID)
	fmt.Fprintf(out, "[SERVER] Listening: %s\n", addr)
	fmt.Fprintf(out, "[SERVER] Started: %s\n", inst.StartedAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintln(out, rule)
}
