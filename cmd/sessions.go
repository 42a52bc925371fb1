package cmd

import (
	"os"

	"github.com/plst4-cli/plst4/color"
	"github.com/plst4-cli/plst4/history"
	"github.com/plst4-cli/plst4/icon"
	"github.com/plst4-cli/plst4/key"
	"github.com/plst4-cli/plst4/style"
	"github.com/plst4-cli/plst4/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.Flags().BoolP("all", "a", false, "List sessions of every server, not just the configured one")
	sessionsCmd.Flags().StringP("forget", "f", "", "Forget the session with this id")
	sessionsCmd.SetOut(os.Stdout)
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List the watch sessions joined from this machine",
	Run: func(cmd *cobra.Command, args []string) {
		server := viper.GetString(key.ServerURL)
		if lo.Must(cmd.Flags().GetBool("all")) {
			server = ""
		}

		sessions, err := history.Recent(server)
		handleErr(err)

		if id := lo.Must(cmd.Flags().GetString("forget")); id != "" {
			forgotten := lo.Filter(sessions, func(s *history.Session, _ int) bool { return s.ID == id })
			for _, s := range forgotten {
				handleErr(history.Remove(s))
			}
			cmd.Printf("%s forgot %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), util.Quantify(len(forgotten), "session", "sessions"))
			return
		}

		if len(sessions) == 0 {
			cmd.Println(style.Faint("no sessions joined yet"))
			return
		}

		for _, s := range sessions {
			cmd.Printf("%s %s %s\n",
				style.Fg(color.Purple)(s.ID),
				style.Faint(s.Server),
				style.Faint(s.JoinedAt.Format("2006-01-02 15:04")+", "+util.Quantify(s.Joins, "join", "joins")),
			)
		}
	},
}
