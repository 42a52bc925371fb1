package cmd

import (
	"fmt"

	"github.com/plst4-cli/plst4/icon"
	"github.com/plst4-cli/plst4/style"
	"github.com/plst4-cli/plst4/util"
	"github.com/plst4-cli/plst4/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
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
	{"session history", "sessions", mo.Some("s"), where.Sessions},
	{"log directory", "logs", mo.Some("l"), where.Logs},
	{"mpv sockets left by crashed sessions", "temp", mo.None[string](), where.Temp},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := fmt.Sprintf("clear %s", target.name)
		if target.argShort.IsPresent() {
			clearCmd.Flags().BoolP(target.argLong, target.argShort.MustGet(), false, help)
		} else {
			clearCmd.Flags().Bool(target.argLong, false, help)
		}
	}
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached files, logs and the session history",
	Run: func(cmd *cobra.Command, args []string) {
		var anyCleared bool

		for _, target := range clearTargets {
			if !lo.Must(cmd.Flags().GetBool(target.argLong)) {
				continue
			}
			anyCleared = true

			erase := util.PrintErasable(style.Faint(fmt.Sprintf("Clearing %s...", target.name)))
			err := util.Delete(target.location())
			erase()

			if err != nil {
				fmt.Printf("%s %s: %s\n", icon.Get(icon.Fail), util.Capitalize(target.name), err)
				continue
			}
			fmt.Printf("%s %s cleared\n", icon.Get(icon.Success), util.Capitalize(target.name))
		}

		if !anyCleared {
			handleErr(cmd.Help())
		}
	},
}
