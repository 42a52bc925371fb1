// Package main is the entry point of the plst4 watch client.
package main

import (
	"github.com/plst4-cli/plst4/cmd"
	"github.com/plst4-cli/plst4/config"
	"github.com/plst4-cli/plst4/internal/cache"
	"github.com/plst4-cli/plst4/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	go cache.CollectGarbage()

	cmd.Execute()
}
