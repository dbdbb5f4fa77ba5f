package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bodgit/forest"
	"github.com/bodgit/forest/client"
	"github.com/bodgit/forest/server"
	"github.com/bodgit/forest/store"
	"github.com/urfave/cli/v2"
)

const (
	defaultDB    = "forest.db"
	defaultCount = 15
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
		logger.SetFlags(log.LstdFlags)
	}
	return logger
}

func newForest(c *cli.Context, logger *log.Logger) (*forest.Forest, error) {
	svc, err := client.New(client.Config{
		BaseURL: c.String("url"),
		Timeout: c.Duration("timeout"),
	}, nil, logger)
	if err != nil {
		return nil, err
	}
	return forest.New(svc, logger), nil
}

func main() {
	app := cli.NewApp()

	app.Name = "forest"
	app.Usage = "Digital forest pixel-art plant utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "url",
			EnvVars: []string{"FOREST_URL"},
			Value:   client.DefaultBaseURL,
			Usage:   "base URL of the plant service",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			EnvVars: []string{"FOREST_TIMEOUT"},
			Value:   client.DefaultTimeout,
			Usage:   "request timeout",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "serve",
			Usage:       "Run the plant service",
			Description: "",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "addr",
					EnvVars: []string{"FOREST_ADDR"},
					Value:   server.DefaultAddr,
					Usage:   "address to listen on",
				},
				&cli.StringFlag{
					Name:    "db",
					EnvVars: []string{"FOREST_DB"},
					Value:   filepath.Join(cwd, defaultDB),
					Usage:   "path to database",
				},
				&cli.StringSliceFlag{
					Name:    "origin",
					EnvVars: []string{"FOREST_ORIGINS"},
					Value:   cli.NewStringSlice(server.DefaultOrigins...),
					Usage:   "browser origin allowed to use the service",
				},
			},
			Action: func(c *cli.Context) error {
				logger := newLogger(c)

				st, err := store.New(c.String("db"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer st.Close()

				s := server.New(st, server.Config{
					Addr:    c.String("addr"),
					Origins: c.StringSlice("origin"),
				}, logger)

				ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				if err := s.ListenAndServe(ctx); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "random",
			Usage:       "List random plants, optionally saving their images",
			Description: "",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "count",
					Aliases: []string{"n"},
					Value:   defaultCount,
					Usage:   "number of plants",
				},
				&cli.StringFlag{
					Name:    "out",
					Aliases: []string{"o"},
					Usage:   "directory to save images in",
				},
			},
			Action: func(c *cli.Context) error {
				logger := newLogger(c)

				f, err := newForest(c, logger)
				if err != nil {
					return cli.Exit(err, 1)
				}

				if dir := c.String("out"); dir != "" {
					plants, err := f.Download(c.Context, c.Int("count"), dir)
					if err != nil {
						return cli.Exit(err, 1)
					}
					fmt.Printf("Saved %d plants to %s\n", len(plants), dir)
					return nil
				}

				if err := f.List(c.Context, os.Stdout, c.Int("count")); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "submit",
			Usage:       "Plant a drawing from an image or grid text file",
			Description: "",
			ArgsUsage:   "FILE",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "author",
					Aliases:  []string{"a"},
					EnvVars:  []string{"FOREST_AUTHOR"},
					Required: true,
					Usage:    "name to plant the drawing under",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.Name, 1)
				}

				logger := newLogger(c)

				f, err := newForest(c, logger)
				if err != nil {
					return cli.Exit(err, 1)
				}

				p, err := f.SubmitFile(c.Context, c.String("author"), c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				fmt.Printf("Planted %d by %s\n", p.ID, p.Author)

				return nil
			},
		},
		{
			Name:        "show",
			Usage:       "Print a plant image as grid text",
			Description: "",
			ArgsUsage:   "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.Name, 1)
				}

				fh, err := os.Open(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer fh.Close()

				if err := forest.Show(os.Stdout, fh); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
