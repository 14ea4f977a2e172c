// Command regbench benchmarks regression models over dataset variants and
// preprocessing regimes.
//
//	$ regbench models -config regbench.yaml -m knn,sgd
//	$ regbench nn -config regbench.yaml
package main

import (
	"fmt"
	"os"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
)

func newApp() *commander.Command {
	app := &commander.Command{
		UsageLine: "regbench",
		Short:     "benchmark regression models",
		Subcommands: []*commander.Command{
			modelsCmd(),
			nnCmd(),
		},
		Flag: *flag.NewFlagSet("regbench", flag.ExitOnError),
	}
	return app
}

func main() {
	app := newApp()
	if err := app.Flag.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "**err**: %v\n", err)
		os.Exit(1)
	}
	if err := app.Dispatch(app.Flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "**err**: %v\n", err)
		os.Exit(1)
	}
}
