package main

import (
	"github.com/samber/lo"
	"github.com/shortplay/shortplay/cmd"
	"github.com/shortplay/shortplay/config"
	"github.com/shortplay/shortplay/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
