package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/perfgo/seacan/config"
)

const AppName = "seacan"

type App struct {
	logger zerolog.Logger
	cli    *cli.App
	cfg    *config.Config
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		cfg:    config.Default(),
		cli: &cli.App{
			Name:  AppName,
			Usage: "Build cargo targets and discover the tests inside them",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
				&cli.StringFlag{
					Name:    "config",
					Aliases: []string{"c"},
					Usage:   "Path to a YAML config file",
					EnvVars: []string{config.EnvVar},
				},
			},
		},
	}
	app.cli.Before = app.before

	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "build",
		Usage:     "Build a binary or example and print the executable path",
		ArgsUsage: " ",
		Action:    app.build,
		Flags: append(buildFlags(),
			&cli.StringFlag{
				Name:  "bin",
				Usage: "Build the binary target with this name",
			},
			&cli.StringFlag{
				Name:  "example",
				Usage: "Build the example target with this name",
			},
			&cli.BoolFlag{
				Name:  "archive",
				Usage: "Copy the executable into the history directory",
			},
		),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "test",
		Usage:     "Build test targets and list the tests matching a filter",
		ArgsUsage: "[TESTNAME]",
		Action:    app.test,
		Flags:     testFlags(),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Build test targets and run exactly the tests matching a filter",
		ArgsUsage: "[TESTNAME] [-- TEST ARGS]",
		Action:    app.runTests,
		Flags:     testFlags(),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "list",
		Usage:  "List previous runs",
		Action: app.list,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "Filter by relative path (e.g., crates/parser)",
			},
			&cli.StringFlag{
				Name:  "type",
				Usage: "Filter by run type (build, test)",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Limit number of results (default: 20)",
				Value:   20,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:            "view",
		Usage:           "View a run from history",
		ArgsUsage:       "[ID|INDEX] [FILE...]",
		Action:          app.view,
		SkipFlagParsing: true,
		Description: `View a run from history.

Arguments:
  0           View last run (default)
  -1          View 2nd last run
  -2          View 3rd last run
  <hex-id>    View run matching the ID prefix

Files:
  diagnostics, stderr, stdout, tests
  Without a file the first one present in this order is shown.

Examples:
  seacan view                 # View last run
  seacan view -1              # View 2nd last run
  seacan view abc123 stderr   # Show cargo's stderr of run abc123`,
	})

	return app
}

func (a *App) before(ctx *cli.Context) error {
	if ctx.Bool("verbose") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger.Debug().Interface("config", cfg).Msg("Loaded configuration")
	return nil
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && len(commit) >= 8 {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}
