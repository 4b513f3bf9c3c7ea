package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/shortplay/shortplay/backend"
	"github.com/shortplay/shortplay/constant"
	"github.com/shortplay/shortplay/history"
	"github.com/shortplay/shortplay/key"
	"github.com/shortplay/shortplay/player"
	"github.com/shortplay/shortplay/session"
	"github.com/shortplay/shortplay/source"
	"github.com/shortplay/shortplay/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(playCmd)
	addPlayFlags(playCmd)
}

func addPlayFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("episode", "e", 0, "Position of the episode to start from, counting from 1")
	cmd.Flags().BoolP("continue", "c", false, "Resume from the last watched episode")
	cmd.MarkFlagsMutuallyExclusive("episode", "continue")
}

var playCmd = &cobra.Command{
	Use:   "play [title id]",
	Short: "Play a title episode after episode",
	Long: `Play a title episode after episode.
Without a title id the titles you watched before are listed.`,
	Args:    cobra.MaximumNArgs(1),
	Example: "  " + constant.Shortplay + " play 41786 --episode 3\n  " + constant.Shortplay + " play --continue",
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(play(cmd, args))
	},
}

var (
	errNoHistory       = errors.New("nothing to continue: history is empty")
	errEpisodeNeedsID  = errors.New("--episode needs a title id")
	errInvalidPosition = errors.New("--episode must be at least 1")
)

func play(cmd *cobra.Command, args []string) error {
	var titleID string
	if len(args) > 0 {
		titleID = strings.TrimSpace(args[0])
		if err := source.ValidateID(titleID); err != nil {
			return err
		}
	}

	titleID, start, err := startingPoint(cmd, titleID)
	if err != nil {
		return err
	}

	return watch(titleID, start)
}

// startingPoint applies --episode and --continue to the requested title.
func startingPoint(cmd *cobra.Command, titleID string) (string, int, error) {
	if cmd.Flags().Changed("episode") {
		episode := lo.Must(cmd.Flags().GetInt("episode"))
		switch {
		case titleID == "":
			return "", 0, errEpisodeNeedsID
		case episode < 1:
			return "", 0, errInvalidPosition
		}
		return titleID, episode - 1, nil
	}

	if !lo.Must(cmd.Flags().GetBool("continue")) {
		return titleID, 0, nil
	}

	if titleID == "" {
		records, err := history.Recent()
		if err != nil {
			return "", 0, err
		}
		if len(records) == 0 {
			return "", 0, errNoHistory
		}
		return records[0].TitleID, records[0].EpisodeIndex, nil
	}

	record, err := history.Lookup(titleID)
	if err != nil {
		return "", 0, err
	}
	if r, ok := record.Get(); ok {
		return titleID, r.EpisodeIndex, nil
	}
	return titleID, 0, nil
}

// watch opens the playback screen.
func watch(titleID string, start int) error {
	client, err := backend.FromConfig()
	if err != nil {
		return err
	}

	sink, err := newSink(titleID)
	if err != nil {
		return err
	}

	return tui.Run(&tui.Options{
		TitleID:     titleID,
		StartIndex:  start,
		Backend:     client,
		Sink:        sink,
		Session:     session.OptionsFromConfig(),
		SaveHistory: viper.GetBool(key.HistorySaveOnPlay),
	})
}

func newSink(title string) (player.Sink, error) {
	switch name := viper.GetString(key.Player); name {
	case constant.PlayerMPV:
		if err := CheckDependencies(); err != nil {
			return nil, err
		}
		return player.NewMPV(title), nil
	case constant.PlayerNone:
		return player.NewNull(), nil
	default:
		return nil, fmt.Errorf("unknown player %q", name)
	}
}
