// brc20cli is the operator tool of the BRC20 oracle: it derives record
// addresses, assembles instruction pairs for offline signing and
// submission, decodes stored records, and can replay full scenarios
// against an in-memory ledger.
package main

import (
	"fmt"
	"os"

	"github.com/boolnetwork/brc20-oracle-solana/program"
	"github.com/btcsuite/btclog"
	"github.com/urfave/cli"
)

const (
	programIDName = "program_id"
	debugName     = "debug"
)

func main() {
	app := cli.NewApp()
	app.Name = "brc20cli"
	app.Usage = "control tool for the BRC20 oracle program"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name: programIDName,
			Usage: "the base58 identity the oracle program is " +
				"deployed under",
			Value: "6Z69Yzja3ZUHs6WrZxNMs823nUc3bEZDMkfjbkqUHKZY",
		},
		cli.BoolFlag{
			Name:  debugName,
			Usage: "log engine output to stderr",
		},
	}
	app.Before = func(ctx *cli.Context) error {
		if ctx.GlobalBool(debugName) {
			backend := btclog.NewBackend(os.Stderr)
			logger := backend.Logger(program.Subsystem)
			logger.SetLevel(btclog.LevelDebug)
			program.UseLogger(logger)
		}
		return nil
	}
	app.Commands = []cli.Command{
		keygenCommand,
		committeeAddrCommand,
		assetAddrCommand,
		buildSetCommitteeCommand,
		buildRequestCommand,
		buildInsertCommand,
		decodeRecordCommand,
		simulateCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[brc20cli] %v\n", err)
	os.Exit(1)
}
