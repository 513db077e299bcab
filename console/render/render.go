package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/amidaware/schedctl/console/notify"
	"github.com/amidaware/schedctl/shared"
	"github.com/rickb777/date/period"
)

const (
	Never      = "Never"
	ManualOnly = "Manual Only"
)

// Relative renders t against now, "in 4 minutes" or "2 hours ago".
// A nil or zero time renders as Never.
func Relative(t *time.Time, now time.Time) string {
	if t == nil || t.IsZero() {
		return Never
	}

	var p period.Period
	past := t.Before(now)
	if past {
		p = period.Between(*t, now)
	} else {
		p = period.Between(now, *t)
	}

	amount := largest(p)
	if amount == "" {
		return "just now"
	}
	if past {
		return amount + " ago"
	}
	return "in " + amount
}

func largest(p period.Period) string {
	units := []struct {
		n    int
		name string
	}{
		{p.Years(), "year"},
		{p.Months(), "month"},
		{p.Days(), "day"},
		{p.Hours(), "hour"},
		{p.Minutes(), "minute"},
		{p.Seconds(), "second"},
	}
	for _, u := range units {
		if u.n > 0 {
			return plural(u.n, u.name)
		}
	}
	return ""
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func Schedule(s string) string {
	if strings.TrimSpace(s) == "" {
		return ManualOnly
	}
	return s
}

func Timestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return Never
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func Scripts(w io.Writer, scripts []shared.Script, now time.Time) error {
	if len(scripts) == 0 {
		_, err := fmt.Fprintln(w, "No scripts yet.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSCHEDULE\tLAST RUN")
	for _, s := range scripts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Type, Schedule(s.Schedule), Relative(s.LastRun, now))
	}
	return tw.Flush()
}

func Tasks(w io.Writer, tasks []shared.Task, now time.Time) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks yet.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tSCRIPT\tSTATUS\tLAST RUN\tNEXT RUN")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Name, t.ScriptName, Status(t.Status), Relative(t.LastRun, now), Relative(t.NextRun, now))
	}
	return tw.Flush()
}

// Status shows the older "success" status the same way as completed
func Status(s shared.TaskStatus) string {
	if s == shared.TaskSuccess {
		return string(shared.TaskCompleted)
	}
	if s == "" {
		return string(shared.TaskPending)
	}
	return string(s)
}

func Script(w io.Writer, s shared.Script, nextRuns []time.Time, now time.Time) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%d\n", s.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", s.Name)
	fmt.Fprintf(tw, "Type:\t%s\n", s.Type.Label())
	fmt.Fprintf(tw, "Schedule:\t%s\n", Schedule(s.Schedule))
	fmt.Fprintf(tw, "Last Run:\t%s\n", Relative(s.LastRun, now))
	for i, t := range nextRuns {
		label := ""
		if i == 0 {
			label = "Next Runs:"
		}
		fmt.Fprintf(tw, "%s\t%s (%s)\n", label, t.Local().Format("2006-01-02 15:04"), Relative(&t, now))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%s\n", s.Content)
	return err
}

func Task(w io.Writer, t shared.Task) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%d\n", t.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", t.Name)
	fmt.Fprintf(tw, "Script:\t%s\n", t.ScriptName)
	fmt.Fprintf(tw, "Status:\t%s\n", Status(t.Status))
	fmt.Fprintf(tw, "Created:\t%s\n", Timestamp(t.CreatedAt))
	fmt.Fprintf(tw, "Updated:\t%s\n", Timestamp(t.UpdatedAt))
	fmt.Fprintf(tw, "Last Run:\t%s\n", Timestamp(t.LastRun))
	fmt.Fprintf(tw, "Next Run:\t%s\n", Timestamp(t.NextRun))
	if err := tw.Flush(); err != nil {
		return err
	}
	if t.Output != "" {
		fmt.Fprintf(w, "\nOutput:\n%s\n", t.Output)
	}
	if t.Error != "" {
		fmt.Fprintf(w, "\nError:\n%s\n", t.Error)
	}
	if !t.Status.Finished() {
		fmt.Fprintln(w, "\nStill running, output is shown once the run finishes.")
	}
	return nil
}

func Toasts(w io.Writer, toasts []notify.Toast) error {
	for _, t := range toasts {
		if _, err := fmt.Fprintf(w, "%s %s\n", t.Kind.Symbol(), t.Message); err != nil {
			return err
		}
	}
	return nil
}
