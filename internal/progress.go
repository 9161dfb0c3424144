package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// WatchRefresh is how often WatchBoard polls the board
const WatchRefresh = 200 * time.Millisecond

// WatchBoard re-renders the board on w whenever its state changes until every
// attachment has settled or ctx is done. On a terminal the previous frame is
// redrawn in place; elsewhere only state changes are logged.
func WatchBoard(ctx context.Context, w io.Writer, board *Board, presenter *Presenter) error {
	tty := isTerminal(w)
	ticker := time.NewTicker(WatchRefresh)
	defer ticker.Stop()

	var (
		lastFrame  string
		lastHeight int
		lastStates = map[AttachmentID]StateKind{}
	)
	for {
		snapshot := board.Snapshot()
		if tty {
			frame := presenter.Render(snapshot)
			if frame != lastFrame {
				if lastHeight > 0 {
					// move up and clear the previous frame
					fmt.Fprintf(w, "\033[%dA\033[J", lastHeight)
				}
				fmt.Fprintln(w, frame)
				lastFrame, lastHeight = frame, strings.Count(frame, "\n")+1
			}
		} else {
			for _, att := range snapshot {
				if prev, seen := lastStates[att.ID]; !seen || prev != att.State.Kind {
					LogInfo("%s: %s", att.Path, att.State)
					lastStates[att.ID] = att.State.Kind
				}
			}
		}

		if board.Settled() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	if isTerminal(os.Stderr) {
		fmt.Fprintf(os.Stderr, "%s %s\n", successStyle.Render("✓"), message)
	} else {
		fmt.Fprintln(os.Stderr, message)
	}
}

// PrintError prints an error message
func PrintError(message string) {
	if isTerminal(os.Stderr) {
		fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("✗"), message)
	} else {
		fmt.Fprintf(os.Stderr, "%s\n", message)
	}
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	if isTerminal(os.Stderr) {
		fmt.Fprintf(os.Stderr, "%s %s\n", progressStyle.Render("ℹ"), message)
	} else {
		fmt.Fprintln(os.Stderr, message)
	}
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	if isTerminal(os.Stderr) {
		fmt.Fprintf(os.Stderr, "%s %s\n", warningStyle.Render("⚠"), message)
	} else {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", message)
	}
}
