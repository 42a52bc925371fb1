// Package cmd implements the plst4 command line.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/plst4-cli/plst4/color"
	"github.com/plst4-cli/plst4/constant"
	"github.com/plst4-cli/plst4/icon"
	"github.com/plst4-cli/plst4/key"
	"github.com/plst4-cli/plst4/log"
	"github.com/plst4-cli/plst4/style"
	"github.com/plst4-cli/plst4/version"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Icons variant: emoji, plain or nerd")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().String("server", "", "Base URL of the plst4 server")
	lo.Must0(viper.BindPFlag(key.ServerURL, rootCmd.PersistentFlags().Lookup("server")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})
}

var rootCmd = &cobra.Command{
	Use:   constant.Plst4,
	Short: "Watch plst4 sessions from the terminal",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.Accent).Render("    - Join a plst4 watch session and keep local players in sync"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}
		handleErr(cmd.Help())
	},
}

// Execute runs the command line.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// errSilent exits with status 1 without printing anything more.
var errSilent = errors.New("")

func handleErr(err error) {
	if err == nil {
		return
	}
	log.Error(err)
	if !errors.Is(err, errSilent) {
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
	}
	os.Exit(1)
}
