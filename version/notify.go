package version

import (
	"fmt"

	"github.com/plst4-cli/plst4/color"
	"github.com/plst4-cli/plst4/constant"
	"github.com/plst4-cli/plst4/key"
	"github.com/plst4-cli/plst4/style"
	"github.com/plst4-cli/plst4/util"
	"github.com/spf13/viper"
)

// Notify prints a banner when a newer release than the running one exists.
// Lookup failures are silent.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	erase := util.PrintErasable(style.Faint("Checking for a new version..."))
	latest, err := Latest()
	erase()
	if err != nil {
		return
	}

	if cmp, err := Compare(latest, constant.Version); err != nil || cmp <= 0 {
		return
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(latest),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/plst4-cli/plst4/releases/tag/v"+latest),
	)
}
