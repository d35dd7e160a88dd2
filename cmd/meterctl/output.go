package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/meterd/pkg/meter"
)

// errDenied marks a limit check that completed but did not allow the action.
var errDenied = errors.New("denied")

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// render writes v as indented JSON when --json is set, otherwise as a table.
func (o *rootOptions) render(cmd *cobra.Command, v any, table func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if o.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

func row(w io.Writer, label string, value any) {
	_, _ = fmt.Fprintf(w, "%s\t%v\n", label, value)
}

func formatPercent(p float64) string {
	if math.IsInf(p, 1) {
		return "inf"
	}
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}

func formatRemaining(n int64) string {
	if n < 0 {
		return "unlimited"
	}
	return strconv.FormatInt(n, 10)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func deniedError(reason string) error {
	if reason == "" {
		return errDenied
	}
	return fmt.Errorf("%w: %s", errDenied, reason)
}

func writeLine(w io.Writer, name string, l meter.UsageLine) {
	_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%t\n",
		name, l.Used, l.Limit, formatRemaining(l.Remaining), formatPercent(l.Percentage), l.IsExhausted)
}
