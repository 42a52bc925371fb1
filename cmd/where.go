package cmd

import (
	"encoding/json"
	"os"

	"github.com/plst4-cli/plst4/color"
	"github.com/plst4-cli/plst4/style"
	"github.com/plst4-cli/plst4/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type location struct {
	Name  string `json:"name"`
	Flag  string `json:"-"`
	Short string `json:"-"`
	Path  string `json:"path"`

	resolve func() string
}

// Cache and temp are cleared with plst4 clear and rarely looked up, so they
// get no shorthand.
var locations = []*location{
	{Name: "config", Flag: "config", Short: "c", resolve: where.Config},
	{Name: "logs", Flag: "logs", Short: "l", resolve: where.Logs},
	{Name: "sessions", Flag: "sessions", Short: "s", resolve: where.Sessions},
	{Name: "cache", Flag: "cache", resolve: where.Cache},
	{Name: "temp", Flag: "temp", resolve: where.Temp},
}

func init() {
	rootCmd.AddCommand(whereCmd)

	for _, l := range locations {
		whereCmd.Flags().BoolP(l.Flag, l.Short, false, "Only print the "+l.Name+" path")
	}
	whereCmd.Flags().BoolP("json", "j", false, "Print every path as JSON")

	whereCmd.MarkFlagsMutuallyExclusive(append(lo.Map(locations, func(l *location, _ int) string {
		return l.Flag
	}), "json")...)

	whereCmd.SetOut(os.Stdout)
}

var whereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show the paths plst4 keeps its files in",
	Run: func(cmd *cobra.Command, args []string) {
		if selected, ok := lo.Find(locations, func(l *location) bool {
			return lo.Must(cmd.Flags().GetBool(l.Flag))
		}); ok {
			cmd.Println(selected.resolve())
			return
		}

		for _, l := range locations {
			l.Path = l.resolve()
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(locations))
			return
		}

		name := style.New().Bold(true).Foreground(color.Purple).Width(10).Render
		for _, l := range locations {
			cmd.Printf("%s %s\n", name(l.Name), l.Path)
		}
	},
}
