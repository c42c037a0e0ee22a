package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/citadel-app/citadel/internal/api"
	"github.com/citadel-app/citadel/internal/app/progression"
	"github.com/citadel-app/citadel/internal/daemon"
	"github.com/citadel-app/citadel/internal/domain"
)

// barWidth is the number of characters in the XP bar.
const barWidth = 30

// backend is what one-shot commands drive: the engine in-process, or a
// running daemon over its HTTP API.
type backend interface {
	Progress(ctx context.Context) (progression.Snapshot, error)
	QuoteOfTheDay(ctx context.Context, now time.Time) (domain.Quote, error)
	RecordActivity(ctx context.Context, now time.Time) (progression.Outcome, error)
	UsePortal(ctx context.Context) (progression.Outcome, error)
	VisitSection(ctx context.Context, section string) (progression.Outcome, error)
	AddFavorite(ctx context.Context, characterID int) (progression.Outcome, error)
	RemoveFavorite(ctx context.Context, characterID int) (progression.Outcome, error)
	AddCustomCharacter(ctx context.Context, name, origin, image string, now time.Time) (progression.Outcome, error)
	WatchEpisode(ctx context.Context, episodeID, rating int, notes string, now time.Time) (progression.Outcome, error)
	DiscoverLocation(ctx context.Context, locationID int) (progression.Outcome, error)
	CompleteQuiz(ctx context.Context, correct, total int, now time.Time) (progression.Outcome, error)
	AwardXP(ctx context.Context, amount int) (progression.Outcome, error)
}

var (
	_ backend = localEngine{}
	_ backend = (*api.Client)(nil)
)

// localEngine runs commands against an engine this process owns.
type localEngine struct {
	*progression.Engine
}

func (l localEngine) Progress(context.Context) (progression.Snapshot, error) {
	return l.Snapshot(), nil
}

// openBackend routes a command through the serving daemon when one holds the
// progress record, so there is only ever one writer. Otherwise it opens the
// record in-process; withWorld then also loads the show data. The returned
// func releases the backend.
func openBackend(cmd *cobra.Command, withWorld bool) (backend, func(), error) {
	d, err := openDaemon(cmd, withWorld)
	var locked *daemon.LockedError
	if errors.As(err, &locked) {
		if locked.Addr == "" {
			return nil, nil, fmt.Errorf("%w, try again when it finishes", err)
		}
		return api.NewClient(locked.Addr), func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return localEngine{d.Engine}, d.Close, nil
}

// openDaemon builds the daemon for a one-shot command. Logging is reduced to
// warnings unless --verbose is set. withWorld also loads the show data.
func openDaemon(cmd *cobra.Command, withWorld bool) (*daemon.Daemon, error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return nil, err
	}
	if !verbose {
		cfg.Logging.Level = "warn"
	}
	logger, err := daemon.NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	d, err := daemon.NewWithConfig(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}
	if withWorld {
		if err := d.LoadWorld(cmd.Context()); err != nil {
			d.Close()
			return nil, err
		}
	}
	return d, nil
}

// xpBar renders [=========>..........] for pct in [0,100].
func xpBar(pct float64) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	empty := barWidth - filled

	switch {
	case filled == barWidth:
		return "[" + strings.Repeat("=", filled) + "]"
	case filled > 0:
		return "[" + strings.Repeat("=", filled-1) + ">" + strings.Repeat(".", empty) + "]"
	default:
		return "[" + strings.Repeat(".", barWidth) + "]"
	}
}

// printOutcome reports what an event changed.
func printOutcome(w io.Writer, out progression.Outcome) {
	if !out.Changed {
		fmt.Fprintln(w, "Nothing new.")
		return
	}
	if out.Destination != "" {
		fmt.Fprintf(w, "Portal opened to %s\n", out.Destination)
	}
	if out.XPAwarded > 0 {
		fmt.Fprintf(w, "+%d XP\n", out.XPAwarded)
	}
	if out.Level.LeveledUp {
		fmt.Fprintf(w, "[level up] %d -> %d\n", out.Level.OldLevel, out.Level.NewLevel)
	}
	for _, a := range out.Achievements {
		fmt.Fprintf(w, "[achievement] %s %s (+%d XP)\n", a.Icon, a.Title, a.XPReward)
	}
	for _, r := range out.Rewards {
		fmt.Fprintf(w, "[unlocked] %s %s\n", strings.ReplaceAll(string(r.Kind), "_", " "), r.ID)
	}
	for _, r := range out.Regions {
		fmt.Fprintf(w, "[region] %s is now open\n", r.Name)
	}
	if out.Custom != nil {
		fmt.Fprintf(w, "[created] %s (#%d) added to favorites\n", out.Custom.Name, out.Custom.ID)
	}
	if out.Drop != nil {
		name := fmt.Sprintf("character #%d", out.Drop.CharacterID)
		if out.DropCharacter != nil {
			name = out.DropCharacter.Name
		}
		fmt.Fprintf(w, "[found] %s\n", name)
	}
}
