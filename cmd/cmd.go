// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Path to a dotenv file with WLX_* overrides",
			Value: ".env",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

// tuningFlags override the [settings] section for one invocation.
func tuningFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "scan-delay",
			Usage: "Milliseconds to wait between page fetches (0-10000)",
		},
		&cli.IntFlag{
			Name:  "delete-delay",
			Usage: "Milliseconds to wait between delete batches (0-10000)",
		},
		&cli.IntFlag{
			Name:  "sort-attempts",
			Usage: "Sort verification attempts (1-30)",
		},
		&cli.IntFlag{
			Name:  "sort-poll",
			Usage: "Milliseconds between sort verification attempts (0-10000)",
		},
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Export format: json, yaml or csv (default from config)",
	}
}

// pruneCommand removes the oldest entries
func pruneCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		&cli.IntFlag{
			Name:     "count",
			Aliases:  []string{"n"},
			Usage:    "Number of oldest entries to remove",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Verify sort and scan, then report what would be removed",
		},
		&cli.BoolFlag{
			Name:  "export-before",
			Usage: "Write a snapshot of the playlist before removing anything",
		},
		&cli.BoolFlag{
			Name:  "include-raw",
			Usage: "Include raw renderer payloads in snapshots",
		},
		&cli.BoolFlag{
			Name:  "save-deleted",
			Usage: "Write an audit document of removed entries",
		},
		formatFlag(),
		&cli.IntFlag{
			Name:  "batch",
			Usage: "Entries per remove request (1-50)",
		},
		&cli.BoolFlag{
			Name:  "tui",
			Usage: "Show an interactive progress view",
		},
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "Skip the confirmation screen in --tui mode",
		},
	}

	return &cli.Command{
		Name:   "prune",
		Usage:  "Force oldest-first order and remove the oldest N entries",
		Flags:  append(flags, tuningFlags()...),
		Action: r.Prune,
	}
}

// exportCommand writes a snapshot without modifying the playlist
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Scan the playlist in its current order and write a snapshot",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "include-raw",
				Usage: "Include raw renderer payloads",
			},
			formatFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default: a timestamped file in the export dir)",
			},
			&cli.IntFlag{
				Name:  "scan-delay",
				Usage: "Milliseconds to wait between page fetches (0-10000)",
			},
		},
		Action: r.Export,
	}
}

// sortCommand forces and verifies oldest-first order only
func sortCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "sort",
		Usage:  "Force and verify oldest-first order without removing anything",
		Flags:  tuningFlags(),
		Action: r.Sort,
	}
}

// setupCommand handles setup operations for database and authentication.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize the history database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:    "youtube",
				Aliases: []string{"yt"},
				Usage:   "Store request headers captured from a signed-in browser session",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL) of a youtubei/v1 request",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output path for the headers file (default: credentials.youtube.headers_path)",
					},
				},
				Action: r.SetupYouTube,
			},
		},
	}
}

// historyCommand inspects recorded runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect recorded runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show (0 for all)",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show a run and the entries it removed",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryShow,
			},
			{
				Name:  "find",
				Usage: "Find past removals of a video",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "video-id",
					},
				},
				Action: r.HistoryFind,
			},
		},
	}
}
