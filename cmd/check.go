package cmd

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/plst4-cli/plst4/color"
	"github.com/plst4-cli/plst4/constant"
	"github.com/plst4-cli/plst4/icon"
	"github.com/plst4-cli/plst4/key"
	"github.com/plst4-cli/plst4/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the external players plst4 relies on are installed",
	Run: func(cmd *cobra.Command, args []string) {
		path, err := mpvPath()
		if err != nil {
			printMissingDependency(viper.GetString(key.PlayerMpvPath))
			handleErr(errSilent)
		}
		cmd.Printf("%s mpv found at %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), path)
	},
}

// mpvPath resolves player.mpv_path on PATH.
func mpvPath() (string, error) {
	return exec.LookPath(viper.GetString(key.PlayerMpvPath))
}

func installHint() string {
	switch runtime.GOOS {
	case constant.Darwin:
		return "brew install mpv"
	case constant.Linux:
		return "sudo apt install mpv"
	case constant.Windows:
		return "scoop install mpv"
	default:
		return ""
	}
}

func printMissingDependency(dep string) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color.Red).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(color.Red).Render(fmt.Sprintf("%s Missing dependency", icon.Get(icon.Fail)))
	body := fmt.Sprintf("%q was not found in your PATH.\nInline audio and video (testvideo, testaudio) need it.", dep)

	suggestion := ""
	if hint := installHint(); hint != "" {
		suggestion = "\nTo install it, try running:\n  " + style.New().Foreground(color.Accent).Bold(true).Render(hint)
	}

	fmt.Println(box.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, suggestion)))
}
