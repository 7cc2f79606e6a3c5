// Package tui renders discovery results for the terminal.
package tui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"github.com/logflow/alphaminer/pkg/alpha"
	"github.com/logflow/alphaminer/pkg/miner"
	"github.com/logflow/alphaminer/pkg/petrinet"
)

var (
	accent  = lipgloss.Color("#FF0000")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	white   = lipgloss.Color("#FFFFFF")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
)

const rule = "  ─────────────────────────────────────"

func field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render(label), titleStyle.Render(value))
}

// PrintResult prints a one-screen summary of a discovery run.
func PrintResult(w io.Writer, res *miner.Result) {
	fmt.Fprintln(w)
	header := "✓ NET DISCOVERED"
	if res.Cached {
		header = "✓ NET DISCOVERED (cached)"
	}
	fmt.Fprintln(w, successStyle.Render("  "+header))
	fmt.Fprintln(w, mutedStyle.Render(rule))
	if res.Name != "" {
		field(w, "Log:", res.Name)
	}
	field(w, "Algorithm:", res.Algorithm.String())
	field(w, "Traces:", formatNumber(int64(res.Traces)))
	field(w, "Events:", formatNumber(int64(res.Events)))
	field(w, "Places:", fmt.Sprint(len(res.Net.AllPlaces())))
	field(w, "Transitions:", fmt.Sprint(len(res.Net.AllTransitions())))
	field(w, "Arcs:", fmt.Sprint(res.Net.ArcCount()))
	field(w, "Time:", formatDuration(res.Duration))
	fmt.Fprintln(w, mutedStyle.Render(rule))
}

// PrintNet lists every place with the transitions around it, in id order.
func PrintNet(w io.Writer, net *petrinet.Net) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, accentStyle.Render("▸ PLACES"))
	for _, p := range net.AllPlaces() {
		in := transitionNames(net.GetIncomingTransitions(p.ID))
		out := transitionNames(net.GetOutgoingTransitions(p.ID))
		fmt.Fprintf(w, "  %-28s %s %s %s\n",
			titleStyle.Render(p.Name),
			mutedStyle.Render(strings.Join(in, ",")),
			mutedStyle.Render("→ • →"),
			mutedStyle.Render(strings.Join(out, ",")))
	}
}

func transitionNames(ts []*petrinet.Transition) []string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Name
	}
	sort.Strings(names)
	return names
}

// PrintSharp prints the Alpha# advanced orderings and the tuples that became
// silent transitions.
func PrintSharp(w io.Writer, res *alpha.SharpResult) {
	u := res.Universe
	fmt.Fprintln(w)
	fmt.Fprintln(w, accentStyle.Render("▸ ADVANCED ORDERINGS"))
	if len(res.Orderings) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  none"))
	}
	for _, p := range res.Orderings {
		fmt.Fprintf(w, "  %s ↣ %s\n", u.Name(p.First), u.Name(p.Second))
	}
	for _, p := range res.Redundant {
		fmt.Fprintf(w, "  %s\n", mutedStyle.Render(fmt.Sprintf("%s ↣ %s (redundant)", u.Name(p.First), u.Name(p.Second))))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, accentStyle.Render("▸ SILENT TRANSITIONS"))
	if len(res.Tuples) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  none"))
	}
	for i, t := range res.Tuples {
		fmt.Fprintf(w, "  %s %s\n", titleStyle.Render(fmt.Sprintf("tau_%d", i+1)), t.Signature(u))
	}
}

// BatchReport summarizes a batch run.
type BatchReport struct {
	Files     int
	Succeeded int
	Failed    int
	Cached    int
	Duration  time.Duration
}

// PrintBatchReport prints the totals of a batch run.
func PrintBatchReport(w io.Writer, r BatchReport) {
	fmt.Fprintln(w)
	if r.Failed > 0 {
		fmt.Fprintln(w, accentStyle.Render(fmt.Sprintf("  ✗ %d of %d logs failed", r.Failed, r.Files)))
	} else {
		fmt.Fprintln(w, successStyle.Render("  ✓ BATCH COMPLETE"))
	}
	field(w, "Logs:", formatNumber(int64(r.Files)))
	field(w, "Discovered:", formatNumber(int64(r.Succeeded)))
	field(w, "From cache:", formatNumber(int64(r.Cached)))
	field(w, "Time:", formatDuration(r.Duration))
	fmt.Fprintln(w)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

func formatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// ShowProgress creates a progress bar counting processed logs.
func ShowProgress(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
