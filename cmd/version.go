package cmd

import (
	"os"
	"runtime"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/shortplay/shortplay/color"
	"github.com/shortplay/shortplay/constant"
	"github.com/shortplay/shortplay/style"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.SetOut(os.Stdout)
	versionCmd.Flags().BoolP("short", "s", false, "Only print the version number")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(constant.Version)
			return
		}

		versionInfo := struct {
			Version    string
			OS         string
			Arch       string
			BuiltAt    string
			BuiltBy    string
			Revision   string
			App        string
			MinBackend string
		}{
			Version:    constant.Version,
			App:        constant.Shortplay,
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			BuiltAt:    strings.TrimSpace(constant.BuiltAt),
			BuiltBy:    constant.BuiltBy,
			Revision:   constant.Revision,
			MinBackend: constant.MinBackendVersion,
		}

		t, err := template.New("version").Funcs(map[string]any{
			"faint":   style.Faint,
			"bold":    style.Bold,
			"magenta": style.Fg(color.Purple),
		}).Parse(`{{ magenta "▇▇▇" }} {{ magenta .App }}

  {{ faint "Version" }}         {{ bold .Version }}
  {{ faint "Git Commit" }}      {{ bold .Revision }}
  {{ faint "Build Date" }}      {{ bold .BuiltAt }}
  {{ faint "Built By" }}        {{ bold .BuiltBy }}
  {{ faint "Platform" }}        {{ bold .OS }}/{{ bold .Arch }}
  {{ faint "Backend" }}         {{ bold .MinBackend }} or newer
`)
		handleErr(err)
		handleErr(t.Execute(cmd.OutOrStdout(), versionInfo))
	},
}
