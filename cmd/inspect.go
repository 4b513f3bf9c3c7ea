package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/shortplay/shortplay/backend"
	"github.com/shortplay/shortplay/filesystem"
	"github.com/shortplay/shortplay/icon"
	"github.com/shortplay/shortplay/inline"
	"github.com/shortplay/shortplay/open"
	"github.com/shortplay/shortplay/session"
	"github.com/shortplay/shortplay/source"
	"github.com/shortplay/shortplay/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringP("episodes", "e", "", "Episodes to include (first, last, all, N, N-M or @text@)")
	inspectCmd.Flags().BoolP("resolve", "r", false, "Ask the backend for play URLs of the selected episodes")
	inspectCmd.Flags().BoolP("json", "j", false, "Print a JSON document")
	inspectCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	inspectCmd.Flags().Bool("open", false, "Open the first selected episode with the default application")

	inspectCmd.AddCommand(inspectSchemaCmd)
}

var errNothingToOpen = errors.New("no selected episode has a play url")

var inspectCmd = &cobra.Command{
	Use:   "inspect <title id>",
	Short: "Load a title without playing it and print its episodes",
	Long: `Load a title the way playback does, without a player, and print its episodes.

Episode selectors:
  first     first episode
  last      last episode
  all       every episode
  N         episode number N
  N-M       episode numbers N through M
  @text@    episodes whose title contains text`,
	Args:    cobra.ExactArgs(1),
	Example: "  shortplay inspect 41786 --episodes 1-3 --resolve --json",
	Run: func(cmd *cobra.Command, args []string) {
		titleID := args[0]
		handleErr(source.ValidateID(titleID))

		client, err := backend.FromConfig()
		handleErr(err)

		var out io.Writer = os.Stdout
		if path := lo.Must(cmd.Flags().GetString("output")); path != "" {
			f, err := filesystem.API().Create(path)
			handleErr(err)
			defer util.Ignore(f.Close)
			out = f
		}

		filter := mo.None[inline.EpisodesFilter]()
		if description := lo.Must(cmd.Flags().GetString("episodes")); description != "" {
			fn, err := inline.ParseEpisodesFilter(description)
			handleErr(err)
			filter = mo.Some(fn)
		}

		openFirst := lo.Must(cmd.Flags().GetBool("open"))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		output, err := inline.Run(ctx, &inline.Options{
			Out:            out,
			Backend:        client,
			Session:        session.OptionsFromConfig(),
			TitleID:        titleID,
			Json:           lo.Must(cmd.Flags().GetBool("json")),
			Resolve:        lo.Must(cmd.Flags().GetBool("resolve")) || openFirst,
			EpisodesFilter: filter,
		})
		handleErr(err)

		if openFirst {
			episode, ok := lo.Find(output.Episodes, source.Episode.Resolved)
			if !ok {
				handleErr(errNothingToOpen)
			}
			fmt.Fprintf(os.Stderr, "%s Opening %s\n", icon.Get(icon.Link), episode)
			handleErr(open.Start(episode.ResolvedURL))
		}
	},
}

var inspectSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of inspect --json output",
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true
		reflector.Namer = func(t reflect.Type) string {
			switch t {
			case reflect.TypeOf(session.Error{}):
				return "SessionError"
			case reflect.TypeOf(session.Info{}):
				return "EpisodeInfo"
			}
			return t.Name()
		}

		handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(reflector.Reflect(&inline.Output{})))
	},
}
