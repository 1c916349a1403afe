package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"loanledger/cmd/api"
	"loanledger/cmd/sweep"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "LoanLedger CMD"
	app.Usage = "The LoanLedger command line interface"

	app.Commands = []cli.Command{
		apiCMD,
		sweeperCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	apiCMD = cli.Command{
		Name:        "api",
		Usage:       "run API server",
		Action:      apiAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the loan accounting API server`,
	}
	sweeperCMD = cli.Command{
		Name:        "sweeper",
		Usage:       "run lateness sweeper",
		Action:      sweeperAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the recurring payment lateness sweep`,
	}
)

func apiAction(_ *cli.Context) error {

	logrus.Info("Starting API CMD")
	logrus.WithField("cmd", "api")

	a := &api.API{}
	err := a.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func sweeperAction(_ *cli.Context) error {

	logrus.Info("Starting sweeper CMD")
	logrus.WithField("cmd", "sweeper")

	s := &sweep.Sweep{}
	err := s.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}
