package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/shortplay/shortplay/color"
	"github.com/shortplay/shortplay/config"
	"github.com/shortplay/shortplay/constant"
	"github.com/shortplay/shortplay/filesystem"
	"github.com/shortplay/shortplay/icon"
	"github.com/shortplay/shortplay/style"
	"github.com/shortplay/shortplay/where"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

// closestKey suggests the known key nearest to a mistyped one.
func closestKey(key string) string {
	return lo.MinBy(lo.Keys(config.Default), func(a string, b string) bool {
		return levenshtein.Distance(key, a) < levenshtein.Distance(key, b)
	})
}

func errUnknownKey(key string) error {
	return fmt.Errorf(
		"unknown key %s, did you mean %s?",
		style.Fg(color.Red)(key),
		style.Fg(color.Yellow)(closestKey(key)),
	)
}

func lookupField(key string) (config.Field, error) {
	field, ok := config.Default[key]
	if !ok {
		return config.Field{}, errUnknownKey(key)
	}
	return field, nil
}

// parseValue converts command line words to the type of the field's default.
func parseValue(field config.Field, words []string) (any, error) {
	if len(words) == 0 {
		return nil, errors.New("value is required")
	}

	raw := strings.TrimSpace(words[0])
	switch field.Value.(type) {
	case string:
		return raw, nil
	case int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid integer value for %s: %q", field.Key, raw)
		}
		return n, nil
	case bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean value for %s: %q", field.Key, raw)
		}
		return b, nil
	case []string:
		return words, nil
	default:
		return nil, fmt.Errorf("%s cannot be set from the command line", field.Key)
	}
}

func configFilePath() string {
	return filepath.Join(where.Config(), constant.Shortplay+".toml")
}

// persist writes the live configuration, creating the file on first use.
func persist() error {
	if err := config.Validate(); err != nil {
		return err
	}

	err := viper.WriteConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return viper.SafeWriteConfig()
	}
	return err
}

func completionConfigKeys(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return lo.Keys(config.Default), cobra.ShellCompDirectiveNoFileComp
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInfoCmd, configSetCmd, configGetCmd, configWriteCmd, configDeleteCmd, configResetCmd)

	configInfoCmd.Flags().StringSliceP("key", "k", []string{}, "Only describe these keys")
	configInfoCmd.Flags().BoolP("json", "j", false, "Print as JSON")
	_ = configInfoCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)
	configInfoCmd.SetOut(os.Stdout)

	configWriteCmd.Flags().BoolP("force", "f", false, "Overwrite an existing config file")

	configResetCmd.Flags().BoolP("all", "a", false, "Reset every key")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change settings",
}

var configInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe settings with their current and default values",
	Run: func(cmd *cobra.Command, args []string) {
		keys := lo.Must(cmd.Flags().GetStringSlice("key"))
		fields := lo.Values(config.Default)

		if len(keys) > 0 {
			fields = make([]config.Field, 0, len(keys))
			for _, key := range keys {
				field, err := lookupField(key)
				handleErr(err)
				fields = append(fields, field)
			}
		}

		slices.SortFunc(fields, func(a, b config.Field) int {
			return strings.Compare(a.Key, b.Key)
		})

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(lo.ToSlicePtr(fields)))
			return
		}

		for i, field := range fields {
			cmd.Print(field.Pretty())
			if i < len(fields)-1 {
				cmd.Print("\n\n")
			}
		}
		cmd.Println()
	},
}

var configSetCmd = &cobra.Command{
	Use:               "set <key> <value>...",
	Short:             "Change a setting and save it",
	Args:              cobra.MinimumNArgs(2),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		field, err := lookupField(args[0])
		handleErr(err)

		value, err := parseValue(field, args[1:])
		handleErr(err)

		previous := viper.Get(field.Key)
		viper.Set(field.Key, value)
		if err := persist(); err != nil {
			viper.Set(field.Key, previous)
			handleErr(err)
		}

		fmt.Printf(
			"%s set %s to %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Purple)(field.Key),
			style.Fg(color.Yellow)(fmt.Sprint(value)),
		)
	},
}

var configGetCmd = &cobra.Command{
	Use:               "get <key>",
	Short:             "Print the current value of a setting",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		field, err := lookupField(args[0])
		handleErr(err)
		fmt.Println(viper.Get(field.Key))
	},
}

var configWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Write the current settings to the config file",
	Run: func(cmd *cobra.Command, args []string) {
		path := configFilePath()

		if lo.Must(cmd.Flags().GetBool("force")) {
			if err := filesystem.API().Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				handleErr(err)
			}
		}

		handleErr(viper.SafeWriteConfig())
		fmt.Printf("%s wrote config to %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), path)
	},
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete",
	Short:   "Delete the config file",
	Aliases: []string{"remove"},
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(filesystem.API().Remove(configFilePath()))
		fmt.Printf("%s deleted config\n", style.Fg(color.Green)(icon.Get(icon.Success)))
	},
}

var configResetCmd = &cobra.Command{
	Use:               "reset [key]",
	Short:             "Restore settings to their defaults",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		all := lo.Must(cmd.Flags().GetBool("all"))

		var fields []config.Field
		switch {
		case all:
			fields = lo.Values(config.Default)
		case len(args) == 1:
			field, err := lookupField(args[0])
			handleErr(err)
			fields = []config.Field{field}
		default:
			handleErr(errors.New("give a key or --all"))
		}

		for _, field := range fields {
			viper.Set(field.Key, field.Value)
		}
		handleErr(persist())

		if all {
			fmt.Printf("%s reset all settings\n", style.Fg(color.Green)(icon.Get(icon.Success)))
			return
		}

		fmt.Printf(
			"%s reset %s to %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Purple)(fields[0].Key),
			style.Fg(color.Yellow)(fmt.Sprint(fields[0].Value)),
		)
	},
}
