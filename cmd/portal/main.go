package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path"

	"github.com/youta-t/flarc"

	"github.com/strongaya/fdm-portal/cmd/portal/subcommands/common"
	subfetch "github.com/strongaya/fdm-portal/cmd/portal/subcommands/fetch"
	subinit "github.com/strongaya/fdm-portal/cmd/portal/subcommands/initialize"
	subver "github.com/strongaya/fdm-portal/cmd/portal/subcommands/version"
	"github.com/strongaya/fdm-portal/pkg/utils/try"
)

func main() {
	name := path.Base(os.Args[0])
	logger := log.New(os.Stderr, "", log.LstdFlags)
	logger.SetPrefix(fmt.Sprintf("[%s] ", name))

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill,
	)
	defer cancel()

	cf := try.To(common.Flags(".")).OrFatal(logger)
	init := try.To(subinit.New()).OrFatal(logger)
	fetch := try.To(subfetch.New()).OrFatal(logger)
	version := try.To(subver.New()).OrFatal(logger)

	portal := try.To(
		flarc.NewCommandGroup(
			"Federated data management portal commandline interface",
			cf,
			flarc.WithSubcommand("init", init),
			flarc.WithSubcommand("fetch", fetch),
			flarc.WithSubcommand("version", version),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, portal, flarc.WithHelp(true)))
}
