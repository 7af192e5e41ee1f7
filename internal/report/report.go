package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/giantswarm/sdkmatrix/internal/matrix"
	"github.com/giantswarm/sdkmatrix/internal/orchestrator"
	"github.com/giantswarm/sdkmatrix/internal/portalloc"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// Summary writes one row per environment followed by the totals line.
func Summary(w io.Writer, s orchestrator.Summary) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ENVIRONMENT\tSTATUS\tDURATION\tDETAIL")
	for _, r := range s.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, strings.ToUpper(string(r.Status)), r.Duration.Round(time.Millisecond), detail(r))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	_, err := fmt.Fprintf(w, "\nrun %s: %d total, %d passed, %d failed, %.1f%% pass rate\n",
		s.RunID, s.Total, s.Passed, s.Failed, s.Rate())
	return err
}

func detail(r orchestrator.Result) string {
	if r.Err == nil {
		return "-"
	}
	var se *orchestrator.StepError
	if errors.As(r.Err, &se) {
		if se.Err != nil {
			return fmt.Sprintf("%s: %v", se.Step, se.Err)
		}
		return fmt.Sprintf("%s: exit code %d", se.Step, se.ExitCode)
	}
	return r.Err.Error()
}

// Combinations writes the combination list with its port pairs. A nil
// table omits the port columns.
func Combinations(w io.Writer, cs []matrix.Combination, ports *portalloc.Table) error {
	tw := newTable(w)
	if ports != nil {
		fmt.Fprintln(tw, "CLIENT\tSERVER\tCLIENT PORT\tSERVER PORT")
	} else {
		fmt.Fprintln(tw, "CLIENT\tSERVER")
	}
	for _, c := range cs {
		client := c.ClientLang + " " + c.ClientVersion
		server := c.ServerLang + " " + c.ServerVersion
		if ports == nil {
			fmt.Fprintf(tw, "%s\t%s\n", client, server)
			continue
		}
		if as, ok := ports.Lookup(c.Key()); ok {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", client, server, as.Client, as.Server)
		} else {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\n", client, server)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write combinations: %w", err)
	}
	_, err := fmt.Fprintf(w, "\n%d combinations\n", len(cs))
	return err
}
