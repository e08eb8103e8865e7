// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// serveCommand runs the badge server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the track and daylist badges over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on (defaults to server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (defaults to server.port or $PORT)",
			},
		},
		Action: r.Serve,
	}
}

// trackCommand prints the track the badge would show
func trackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "track",
		Usage: "Show the currently playing or last played track",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
			},
		},
		Action: r.Track,
	}
}

// whoamiCommand prints the account the refresh token belongs to
func whoamiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the Spotify account the configured credentials resolve to",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Whoami,
	}
}

// playlistsCommand lists the account's playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List Spotify playlists",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of playlists to print",
				Value: 50,
			},
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "Only show the first playlist whose name starts with this (case-insensitive)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Export as csv, markdown or text instead of the styled list",
			},
		},
		Action: r.Playlists,
	}
}

// daylistCommand groups the daylist phrase operations
func daylistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "daylist",
		Usage: "Resolve or scrape the daylist phrase",
		Commands: []*cli.Command{
			{
				Name:  "resolve",
				Usage: "Run the cache, artifact and scraper chain once and print the phrase",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.DaylistResolve,
			},
			{
				Name:  "scrape",
				Usage: "Scrape the phrase with a live browser and write it to disk",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "headed",
						Usage: "Show the browser window",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Text file to write the phrase to",
						Value:   "data/daylist.txt",
					},
					&cli.StringFlag{
						Name:  "zip",
						Usage: "Also write a zip artifact containing daylist.txt",
					},
				},
				Action: r.DaylistScrape,
			},
		},
	}
}

// authCommand mints a refresh token through the authorization code flow
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize with Spotify and print a refresh token",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "write-env",
				Usage: "Store REFRESH_TOKEN in the env file",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Env file updated by --write-env",
				Value: ".env",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser callback",
				Value: authTimeout,
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the consent URL instead of opening it",
			},
		},
		Action: r.Auth,
	}
}

// setupCommand prepares config, storage, cookies and the browser
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration, storage and scraper state",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config file to --config",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Create the sqlite cache database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the latest migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "cookies",
				Usage: "Import browser cookies from a DevTools \"Copy as cURL\" command",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command as a string",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "File containing the cURL command",
					},
				},
				Action: r.SetupCookies,
			},
			{
				Name:   "browser",
				Usage:  "Download the Chromium build used by the scraper",
				Action: r.SetupBrowser,
			},
		},
	}
}

// cacheCommand manages the response cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the response cache",
		Commands: []*cli.Command{
			{
				Name:   "clear",
				Usage:  "Remove every cached entry",
				Action: r.CacheClear,
			},
			{
				Name:   "purge",
				Usage:  "Remove expired entries (sqlite backend)",
				Action: r.CachePurge,
			},
		},
	}
}
