package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/citadel-app/citadel/internal/app/progression"
	"github.com/citadel-app/citadel/internal/domain"
)

func init() {
	statusCmd.Flags().BoolVar(&statusMap, "map", false, "Load show data and include map regions")
	rootCmd.AddCommand(statusCmd, quoteCmd)
}

var statusMap bool

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"profile"},
	Short:   "Show level, counters, achievements and unlocks",
	RunE:    runStatus,
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Show the quote of the day",
	Args:  cobra.NoArgs,
	RunE:  runQuote,
}

func runStatus(cmd *cobra.Command, args []string) error {
	b, release, err := openBackend(cmd, statusMap)
	if err != nil {
		return err
	}
	defer release()

	snap, err := b.Progress(cmd.Context())
	if err != nil {
		return err
	}
	return renderStatus(cmd.OutOrStdout(), snap)
}

func runQuote(cmd *cobra.Command, args []string) error {
	b, release, err := openBackend(cmd, false)
	if err != nil {
		return err
	}
	defer release()

	q, err := b.QuoteOfTheDay(cmd.Context(), time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\"%s\"\n  - %s\n", q.Text, q.Character)
	return nil
}

func renderStatus(out io.Writer, snap progression.Snapshot) error {
	lvl := snap.Level
	fmt.Fprintf(out, "Level %d  %s %3.0f%%  %d XP", lvl.Level, xpBar(snap.ProgressPct), snap.ProgressPct, lvl.XP)
	if lvl.Level < domain.MaxLevel {
		fmt.Fprintf(out, " (%d to level %d)", snap.XPToNextLevel, lvl.Level+1)
	}
	fmt.Fprintf(out, "\nBadge: %s   Portal: %s\n\n", snap.SelectedBadge, snap.SelectedPortalStyle)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COUNTER\tVALUE")
	for _, k := range domain.CounterKeys {
		fmt.Fprintf(w, "%s\t%d\n", k, snap.Counters[k])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "ACHIEVEMENT (%d/%d)\tPROGRESS\tXP\n", snap.CompletedCount, len(snap.Achievements))
	for _, a := range snap.Achievements {
		mark := " "
		if a.Completed {
			mark = "x"
		}
		fmt.Fprintf(w, "[%s] %s %s\t%d/%d\t%d\n", mark, a.Icon, a.Title, a.Progress, a.Requirement, a.XPReward)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "BADGE\tUNLOCKED")
	for _, b := range snap.Badges {
		fmt.Fprintf(w, "%s %s\t%s\n", b.Icon, b.Name, yesNo(b.Unlocked))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "PORTAL STYLE\tCOLOR\tUNLOCKED")
	for _, p := range snap.PortalStyles {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.Color, yesNo(p.Unlocked))
	}

	if snap.WorldLoaded {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "REGION\tDISCOVERED\tOPEN")
		for _, r := range snap.Regions {
			fmt.Fprintf(w, "%s\t%d/%d\t%s\n", r.Name, r.Discovered, r.Total, yesNo(r.Unlocked))
		}
		fmt.Fprintf(w, "\nCharacters found on the map: %d\n", len(snap.Drops))
	}
	return w.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
