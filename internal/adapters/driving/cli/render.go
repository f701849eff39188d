package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/custodia-labs/flowsync/internal/adapters/driving/cli/styles"
	"github.com/custodia-labs/flowsync/internal/core/domain"
	"github.com/custodia-labs/flowsync/internal/core/ports/driving"
)

const timeLayout = "2006-01-02 15:04:05.000"

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printTable writes rows as a bordered lipgloss table on a terminal and as
// aligned plain text otherwise, so output stays greppable when piped.
func printTable(w io.Writer, headers []string, rows [][]string, style func(row, col int) lipgloss.Style) {
	if isTerminal(w) {
		s := styles.DefaultStyles()
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(s.Theme().Border)).
			Headers(headers...).
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return s.Header.Padding(0, 1)
				}
				if style != nil {
					return style(row, col).Padding(0, 1)
				}
				return s.Normal.Padding(0, 1)
			})
		fmt.Fprintln(w, t.Render())
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

// printStatus renders planned passes: both snapshots and the decision.
func printStatus(w io.Writer, reports []driving.PassReport) {
	s := styles.DefaultStyles()
	headers := []string{"BINDING", "LOCAL MODIFIED", "LOCAL HASH", "REMOTE MODIFIED", "REMOTE HASH", "DECISION"}

	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.Binding.Name,
			snapshotTime(r.Local),
			hashOrDash(r.Local),
			snapshotTime(r.Remote),
			hashOrDash(r.Remote),
			r.Decision.Label(),
		})
	}

	printTable(w, headers, rows, func(row, col int) lipgloss.Style {
		if col == len(headers)-1 && row >= 0 && row < len(reports) {
			return s.Decision(reports[row].Decision)
		}
		return s.Normal
	})

	for _, r := range reports {
		if r.Err != nil {
			fmt.Fprintf(w, "%s: %v\n", r.Binding.Name, r.Err)
		}
	}
}

// printPassResult writes one line per completed pass.
func printPassResult(w io.Writer, r driving.PassReport) {
	line := fmt.Sprintf("%s: %s", r.Binding.Name, r.Outcome)
	if r.Decision != "" && string(r.Decision) != string(r.Outcome) {
		line += fmt.Sprintf(" (%s)", r.Decision.Label())
	}
	if r.Err != nil {
		line += fmt.Sprintf(": %v", r.Err)
	}
	if isTerminal(w) {
		line = styles.DefaultStyles().Outcome(r.Outcome).Render(line)
	}
	fmt.Fprintln(w, line)
}

// printHistory renders recorded passes, most recent first.
func printHistory(w io.Writer, records []domain.PassRecord) {
	s := styles.DefaultStyles()
	headers := []string{"STARTED", "BINDING", "TRIGGER", "DECISION", "OUTCOME", "DURATION", "ERROR"}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.StartedAt.Local().Format(timeLayout),
			r.Binding,
			string(r.Trigger),
			string(r.Decision),
			string(r.Outcome),
			r.Duration().Round(time.Millisecond).String(),
			r.Error,
		})
	}

	printTable(w, headers, rows, func(row, col int) lipgloss.Style {
		if col == 4 && row >= 0 && row < len(records) {
			return s.Outcome(records[row].Outcome)
		}
		return s.Normal
	})
}

// printStats writes the aggregate counters for a binding.
func printStats(w io.Writer, binding string, stats domain.PassStats) {
	fmt.Fprintf(w, "%s: %d passes, %d pushed, %d pulled, %d in sync, %d conflicts, %d skipped, %d failed\n",
		binding, stats.Total, stats.Pushed, stats.Pulled, stats.InSync, stats.Conflicts, stats.Skipped, stats.Failed)
	if !stats.LastPass.IsZero() {
		fmt.Fprintf(w, "last pass: %s\n", stats.LastPass.Local().Format(timeLayout))
	}
}

func snapshotTime(s *domain.Snapshot) string {
	if s == nil {
		return "-"
	}
	return s.LastModifiedAt.Local().Format(timeLayout)
}

func hashOrDash(s *domain.Snapshot) string {
	if h := s.ShortHash(); h != "" {
		return h
	}
	return "-"
}
