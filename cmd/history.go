package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/shortplay/shortplay/color"
	"github.com/shortplay/shortplay/history"
	"github.com/shortplay/shortplay/icon"
	"github.com/shortplay/shortplay/style"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyRemoveCmd)

	historyListCmd.Flags().BoolP("json", "j", false, "Print as JSON")
	historyListCmd.Flags().BoolP("raw", "r", false, "Print title ids only")
	historyListCmd.MarkFlagsMutuallyExclusive("json", "raw")
	historyListCmd.SetOut(os.Stdout)

	historyRemoveCmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		records, err := history.Recent()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return lo.Map(records, func(r *history.Record, _ int) string {
			return r.TitleID
		}), cobra.ShellCompDirectiveNoFileComp
	}
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage resume points of watched titles",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watched titles, most recent first",
	Run: func(cmd *cobra.Command, args []string) {
		records, err := history.Recent()
		handleErr(err)

		switch {
		case lo.Must(cmd.Flags().GetBool("json")):
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(records))
		case lo.Must(cmd.Flags().GetBool("raw")):
			for _, r := range records {
				cmd.Println(r.TitleID)
			}
		default:
			for _, r := range records {
				line := fmt.Sprintf("%s %s", style.Fg(color.Purple)(r.TitleID), r.String())
				if r.Finished() {
					line += style.Fg(color.Green)(" (watched)")
				}
				cmd.Println(line + " " + style.Faint(r.UpdatedAt.Format(time.DateTime)))
			}
		}
	},
}

var historyRemoveCmd = &cobra.Command{
	Use:     "remove <title id>...",
	Short:   "Forget the resume point of titles",
	Aliases: []string{"rm"},
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, id := range args {
			handleErr(history.Remove(id))
			fmt.Printf("%s removed %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(id))
		}
	},
}
