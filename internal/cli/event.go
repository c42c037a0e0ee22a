package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/citadel-app/citadel/internal/app/progression"
)

func init() {
	watchCmd.Flags().IntVar(&watchRating, "rating", 0, "Rating from 0 to 5")
	watchCmd.Flags().StringVar(&watchNotes, "notes", "", "Personal notes")
	createCmd.Flags().StringVar(&createOrigin, "origin", "", "Where the character comes from")
	createCmd.Flags().StringVar(&createImage, "image", "", "Image path or URL")
	_ = createCmd.MarkFlagRequired("origin")
	_ = createCmd.MarkFlagRequired("image")

	eventCmd.AddCommand(
		activityCmd, portalCmd, visitCmd, favoriteCmd, unfavoriteCmd,
		createCmd, watchCmd, discoverCmd, quizCmd, xpCmd,
	)
	rootCmd.AddCommand(eventCmd)
}

var (
	watchRating  int
	watchNotes   string
	createOrigin string
	createImage  string
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Record an app event, through the serving daemon when one is running",
}

// engineOp is one engine call driven by positional arguments.
type engineOp func(ctx context.Context, e backend, args []string) (progression.Outcome, error)

// eventRunner opens the backend, runs op, and prints the outcome.
func eventRunner(withWorld bool, op engineOp) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		b, release, err := openBackend(cmd, withWorld)
		if err != nil {
			return err
		}
		defer release()

		out, err := op(cmd.Context(), b, args)
		if err != nil {
			return err
		}
		printOutcome(cmd.OutOrStdout(), out)
		return nil
	}
}

func intArg(args []string, i int, name string) (int, error) {
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, args[i])
	}
	return v, nil
}

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Count today as an active day",
	Args:  cobra.NoArgs,
	RunE: eventRunner(false, func(ctx context.Context, e backend, args []string) (progression.Outcome, error) {
		return e.RecordActivity(ctx, time.Now())
	}),
}

var portalCmd = &cobra.Command{
	Use:   "portal",
	Short: "Jump through the portal",
	Args:  cobra.NoArgs,
	RunE: eventRunner(false, func(ctx context.Context, e backend, args []string) (progression.Outcome, error) {
		return e.UsePortal(ctx)
	}),
}

var visitCmd = &cobra.Command{
	Use:       "visit <section>",
	Short:     "Visit an app section",
	Args:      cobra.ExactArgs(1),
	ValidArgs: progression.Sections,
	RunE: eventRunner(false, func(ctx context.Context, e backend, args []string) (progression.Outcome, error) {
		return e.VisitSection(ctx, args[0])
	}),
}

var favoriteCmd = &cobra.Command{
	Use:   "favorite <character-id>",
	Short: "Add a character to favorites",
	Args:  cobra.ExactArgs(1),
	RunE: eventRunner(true, func(ctx context.Context, e backend, args []string) (progression.Outcome, error) {
		id, err := intArg(args, 0, "character id")
		if err != nil {
			return progression.Outcome{}, err
		}
		return e.AddFavorite(ctx, id)
	}),
}

var unfavoriteCmd = &cobra.Command{
	Use:   "unfavorite <character-id>",
	Short: "Remove a character from favorites",
	Args:  cobra.ExactArgs(1),
	RunE: eventRunner(false, func(ctx context.Context, e backend, args []string) (progression.Outcome, error) {
		id, err := intArg(args, 0, "character id")
		if err != nil {
			return progression.Outcome{}, err
		}
		return e.RemoveFavorite(ctx, id)
	}),
}

var createCmd = &cobra.Command{
	Use:   "create <name> --origin <origin> --image <image>",
	Short: "Create a custom character and add it to favorites",
	Args:  cobra.ExactArgs(1),
	RunE: eventRunner(false, func(ctx context.Context, e backend, args []string) (progression.Outcome, error) {
		return e.AddCustomCharacter(ctx, args[0], createOrigin, createImage, time.Now())
	}),
}

var watchCmd = &cobra.Command{
	Use:   "watch <episode-id>",
	Short: "Mark an episode as watched",
	Args:  cobra.ExactArgs(1),
	RunE: eventRunner(true, func(ctx context.Context, e backend, args []string) (progression.Outcome, error) {
		id, err := intArg(args, 0, "episode id")
		if err != nil {
			return progression.Outcome{}, err
		}
		return e.WatchEpisode(ctx, id, watchRating, watchNotes, time.Now())
	}),
}

var discoverCmd = &cobra.Command{
	Use:   "discover <location-id>",
	Short: "Discover a map location",
	Args:  cobra.ExactArgs(1),
	RunE: eventRunner(true, func(ctx context.Context, e backend, args []string) (progression.Outcome, error) {
		id, err := intArg(args, 0, "location id")
		if err != nil {
			return progression.Outcome{}, err
		}
		return e.DiscoverLocation(ctx, id)
	}),
}

var quizCmd = &cobra.Command{
	Use:   "quiz <correct> <total>",
	Short: "Record a finished quiz",
	Args:  cobra.ExactArgs(2),
	RunE: eventRunner(false, func(ctx context.Context, e backend, args []string) (progression.Outcome, error) {
		correct, err := intArg(args, 0, "correct")
		if err != nil {
			return progression.Outcome{}, err
		}
		total, err := intArg(args, 1, "total")
		if err != nil {
			return progression.Outcome{}, err
		}
		return e.CompleteQuiz(ctx, correct, total, time.Now())
	}),
}

var xpCmd = &cobra.Command{
	Use:    "xp <amount>",
	Short:  "Grant XP directly",
	Args:   cobra.ExactArgs(1),
	Hidden: true,
	RunE: eventRunner(false, func(ctx context.Context, e backend, args []string) (progression.Outcome, error) {
		amount, err := intArg(args, 0, "amount")
		if err != nil {
			return progression.Outcome{}, err
		}
		return e.AwardXP(ctx, amount)
	}),
}
