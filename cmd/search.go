package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/shortplay/shortplay/backend"
	"github.com/shortplay/shortplay/icon"
	"github.com/shortplay/shortplay/key"
	"github.com/shortplay/shortplay/log"
	"github.com/shortplay/shortplay/query"
	"github.com/shortplay/shortplay/source"
	"github.com/shortplay/shortplay/style"
	"github.com/shortplay/shortplay/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().BoolP("json", "j", false, "Print the results as JSON instead of picking one")
	searchCmd.Flags().IntP("limit", "n", 0, "Maximum number of results")
	lo.Must0(viper.BindPFlag(key.SearchLimit, searchCmd.Flags().Lookup("limit")))

	searchCmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return query.SuggestMany(toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find a title by name and play it",
	Run: func(cmd *cobra.Command, args []string) {
		q := strings.TrimSpace(strings.Join(args, " "))
		if q == "" {
			handleErr(survey.AskOne(&survey.Input{
				Message: "Search",
				Suggest: query.SuggestMany,
			}, &q, survey.WithValidator(survey.Required)))
		}

		client, err := backend.FromConfig()
		handleErr(err)

		erase := util.PrintErasable(fmt.Sprintf("%s Searching %s...", icon.Get(icon.Search), style.Bold(q)))
		results, err := client.Search(context.Background(), q)
		erase()
		handleErr(err)

		if err := query.Remember(q, 1); err != nil {
			log.Warnf("remember query: %v", err)
		}

		results = rankResults(q, results)
		if limit := viper.GetInt(key.SearchLimit); limit > 0 && len(results) > limit {
			results = results[:limit]
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(results))
			return
		}

		if len(results) == 0 {
			fmt.Printf("%s Nothing found for %s\n", icon.Get(icon.Fail), style.Bold(q))
			return
		}

		var choice int
		handleErr(survey.AskOne(&survey.Select{
			Message:  "Pick a title",
			Options:  lo.Map(results, func(r source.Result, _ int) string { return describeResult(r) }),
			PageSize: 10,
		}, &choice))

		handleErr(watch(results[choice].ID, 0))
	},
}

// rankResults moves titles that fuzzily match the query to the front, closest first.
// The rest keep the backend's order.
func rankResults(q string, results []source.Result) []source.Result {
	titles := lo.Map(results, func(r source.Result, _ int) string { return r.Title })
	ranks := fuzzy.RankFindNormalizedFold(q, titles)
	sort.Stable(ranks)

	ranked := make([]source.Result, 0, len(results))
	seen := make(map[int]struct{}, len(ranks))
	for _, rank := range ranks {
		ranked = append(ranked, results[rank.OriginalIndex])
		seen[rank.OriginalIndex] = struct{}{}
	}

	for i, r := range results {
		if _, ok := seen[i]; !ok {
			ranked = append(ranked, r)
		}
	}

	return ranked
}

func describeResult(r source.Result) string {
	parts := []string{r.Title}
	if r.Episodes != "" {
		parts = append(parts, "("+r.Episodes+")")
	}
	if r.Genres != "" {
		parts = append(parts, "- "+r.Genres)
	}
	return strings.Join(parts, " ")
}
