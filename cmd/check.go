package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shortplay/shortplay/backend"
	"github.com/shortplay/shortplay/color"
	"github.com/shortplay/shortplay/constant"
	"github.com/shortplay/shortplay/icon"
	"github.com/shortplay/shortplay/key"
	"github.com/shortplay/shortplay/style"
	"github.com/shortplay/shortplay/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errMissingDependency = errors.New("missing dependency")

// CheckDependencies verifies that mpv is on the PATH and explains how to install it otherwise.
func CheckDependencies() error {
	if _, err := exec.LookPath(constant.PlayerMPV); err != nil {
		printMissingDependencyError(constant.PlayerMPV)
		return fmt.Errorf("%w: %s", errMissingDependency, constant.PlayerMPV)
	}
	return nil
}

func printMissingDependencyError(dep string) {
	var installCmd string
	switch runtime.GOOS {
	case constant.Darwin:
		installCmd = "brew install mpv"
	case constant.Linux:
		installCmd = "sudo apt install mpv"
	case constant.Windows:
		installCmd = "scoop install mpv"
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.ErrorColor).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.ErrorColor).Render(fmt.Sprintf("%s Error: Missing Dependency", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("The required dependency '%s' was not found in your PATH.", dep))

	suggestion := ""
	if installCmd != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(installCmd))
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().DurationP("timeout", "t", 10*time.Second, "How long to wait for the backend")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the player is installed and the backend is reachable",
	Run: func(cmd *cobra.Command, args []string) {
		ok := func(format string, a ...any) {
			cmd.Printf("%s %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), fmt.Sprintf(format, a...))
		}
		fail := func(format string, a ...any) {
			cmd.Printf("%s %s\n", style.Fg(color.Red)(icon.Get(icon.Fail)), fmt.Sprintf(format, a...))
		}

		var failed bool

		if viper.GetString(key.Player) == constant.PlayerMPV {
			if path, err := exec.LookPath(constant.PlayerMPV); err != nil {
				failed = true
				fail("mpv not found in PATH")
			} else {
				ok("mpv found at %s", style.Faint(path))
			}
		}

		client, err := backend.FromConfig()
		handleErr(err)

		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		url := style.Fg(color.Purple)(viper.GetString(key.BackendURL))
		health, err := client.Health(ctx)
		switch {
		case err != nil:
			failed = true
			fail("backend at %s is unreachable: %v", url, err)
		case health.Version == "":
			ok("backend at %s is %s", url, health.Status)
		default:
			if cmp, err := version.Compare(health.Version, constant.MinBackendVersion); err == nil && cmp < 0 {
				failed = true
				fail("backend at %s runs %s, at least %s is required", url, health.Version, constant.MinBackendVersion)
			} else {
				ok("backend at %s is %s (version %s)", url, health.Status, health.Version)
			}
		}

		if failed {
			handleErr(errors.New("some checks failed"))
		}
	},
}
