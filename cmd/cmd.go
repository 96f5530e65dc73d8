// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file (default: $LIKECAST_CONFIG or config.toml)",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}
}

// runCommand performs a single sync
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Post newly liked tracks once and update the snapshot",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Log posts instead of publishing them (the snapshot is still updated)",
			},
			&cli.BoolFlag{
				Name:  "skip-bootstrap",
				Usage: "When no snapshot exists yet, record the current tracks without posting",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the run result as JSON",
			},
		},
		Action: r.Run,
	}
}

// watchCommand repeats the sync on a schedule
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Run the sync on a cron schedule until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "schedule",
				Aliases: []string{"s"},
				Usage:   "Cron spec or descriptor, e.g. \"@every 30m\" (default: sync.schedule)",
			},
			&cli.BoolFlag{
				Name:  "now",
				Usage: "Run once immediately before waiting for the schedule",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Log posts instead of publishing them",
			},
			&cli.BoolFlag{
				Name:  "skip-bootstrap",
				Usage: "When no snapshot exists yet, record the current tracks without posting",
			},
		},
		Action: r.Watch,
	}
}

// diffCommand previews the next run
func diffCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "diff",
		Usage: "Show the tracks the next run would post, without posting or saving",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		},
		Action: r.Diff,
	}
}

// snapshotCommand inspects the stored snapshot
func snapshotCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Snapshot file operations",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the stored snapshot",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SnapshotShow,
			},
		},
	}
}

// historyCommand lists recorded post outcomes
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recorded post outcomes",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of records to show",
				Value:   20,
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "Only show records of this run id",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// setupCommand creates the config file and database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write an example config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Where to write the config file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Create the post history database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}
