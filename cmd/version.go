package cmd

import (
	"os"
	"runtime"
	"strings"
	"text/template"

	"github.com/plst4-cli/plst4/color"
	"github.com/plst4-cli/plst4/constant"
	"github.com/plst4-cli/plst4/style"
	"github.com/plst4-cli/plst4/version"
	"github.com/samber/lo"
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

		defer version.Notify()

		versionInfo := struct {
			Version   string
			OS        string
			Arch      string
			BuiltAt   string
			BuiltBy   string
			Revision  string
			App       string
			UserAgent string
		}{
			Version:   constant.Version,
			App:       constant.Plst4,
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			BuiltAt:   strings.TrimSpace(constant.BuiltAt),
			BuiltBy:   constant.BuiltBy,
			Revision:  constant.Revision,
			UserAgent: constant.UserAgent,
		}

		t, err := template.New("version").Funcs(map[string]any{
			"faint":   style.Faint,
			"bold":    style.Bold,
			"magenta": style.Fg(color.Purple),
			"green":   style.Fg(color.Green),
		}).Parse(`{{ magenta .App }}

  {{ faint "Version" }}      {{ bold .Version }}
  {{ faint "Revision" }}     {{ bold .Revision }}
  {{ faint "Built at" }}     {{ bold .BuiltAt }} {{ faint "by" }} {{ bold .BuiltBy }}
  {{ faint "Platform" }}     {{ bold .OS }}/{{ bold .Arch }}
  {{ faint "User agent" }}   {{ green .UserAgent }}
`)
		handleErr(err)
		handleErr(t.Execute(cmd.OutOrStdout(), versionInfo))
	},
}
