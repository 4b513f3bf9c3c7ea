package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/shortplay/shortplay/icon"
	"github.com/shortplay/shortplay/util"
	"github.com/shortplay/shortplay/where"
	"github.com/spf13/cobra"
)

type clearTarget struct {
	name     string
	argLong  string
	argShort mo.Option[string]
	location func() string
}

var clearTargets = []clearTarget{
	{"cache directory", "cache", mo.Some("c"), where.Cache},
	{"watch history", "history", mo.Some("s"), where.History},
	{"search queries", "queries", mo.Some("q"), where.Queries},
	{"logs", "logs", mo.Some("l"), where.Logs},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := fmt.Sprintf("clear %s", target.name)
		if short, ok := target.argShort.Get(); ok {
			clearCmd.Flags().BoolP(target.argLong, short, false, help)
		} else {
			clearCmd.Flags().Bool(target.argLong, false, help)
		}
	}
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete cached data, history or logs",
	Run: func(cmd *cobra.Command, args []string) {
		targets := lo.Filter(clearTargets, func(t clearTarget, _ int) bool {
			return lo.Must(cmd.Flags().GetBool(t.argLong))
		})

		if len(targets) == 0 {
			handleErr(cmd.Help())
			return
		}

		for _, target := range targets {
			erase := util.PrintErasable(fmt.Sprintf("%s Clearing %s...", icon.Get(icon.Progress), target.name))
			err := util.Delete(target.location())
			erase()

			if err != nil && !errors.Is(err, os.ErrNotExist) {
				handleErr(err)
			}
			fmt.Printf("%s %s cleared\n", icon.Get(icon.Success), util.Capitalize(target.name))
		}
	},
}
