// Package main provides the catalog maintenance CLI: loading the book CSV
// into the search or vector index and issuing development identity tokens.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/pagewise/pagewise-server/internal/auth"
	"github.com/pagewise/pagewise-server/internal/catalog"
	"github.com/pagewise/pagewise-server/internal/config"
	"github.com/pagewise/pagewise-server/internal/di/providers"
	"github.com/pagewise/pagewise-server/internal/logger"
	"github.com/pagewise/pagewise-server/internal/search"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envFlag := &cli.StringFlag{
		Name:  "env-file",
		Usage: "Path to .env file",
		Value: ".env",
	}
	csvFlags := []cli.Flag{
		envFlag,
		&cli.StringFlag{
			Name:  "csv",
			Usage: "Catalog CSV (defaults to CATALOG_CSV)",
		},
		&cli.BoolFlag{
			Name:  "replace",
			Usage: "Drop existing documents before loading",
		},
	}

	app := &cli.Command{
		Name:  "pagewise-catalog",
		Usage: "Pagewise catalog maintenance",
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Load the catalog CSV into the bleve search index",
				Flags:  csvFlags,
				Action: ingestAction,
			},
			{
				Name:   "embed",
				Usage:  "Embed the catalog CSV into the pgvector table",
				Flags:  csvFlags,
				Action: embedAction,
			},
			{
				Name:  "token",
				Usage: "Issue a development identity token (AUTH_PROVIDER=paseto)",
				Flags: []cli.Flag{
					envFlag,
					&cli.StringFlag{
						Name:     "uid",
						Usage:    "User ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "email",
						Usage: "Email address",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Display name",
					},
				},
				Action: tokenAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cli.Command) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load([]string{"-env-file", cmd.String("env-file")})
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
		Writer:      os.Stderr,
	})
	return cfg, log, nil
}

func csvPath(cmd *cli.Command, cfg *config.Config) (string, error) {
	path := cmd.String("csv")
	if path == "" {
		path = cfg.Catalog.CSVPath
	}
	if path == "" {
		return "", errors.New("no catalog CSV: pass --csv or set CATALOG_CSV")
	}
	return path, nil
}

func ingestAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path, err := csvPath(cmd, cfg)
	if err != nil {
		return err
	}

	index, err := search.NewIndex(search.Options{
		DataPath: filepath.Join(cfg.Data.BasePath, "search"),
		Logger:   log.Logger,
	})
	if err != nil {
		return err
	}
	defer index.Close()

	n, err := catalog.NewIngester(index, "bleve", log.Logger).IngestFile(ctx, path, cmd.Bool("replace"))
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %d books from %s\n", n, path)
	return nil
}

func embedAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path, err := csvPath(cmd, cfg)
	if err != nil {
		return err
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("POSTGRES_DSN is required")
	}

	vectors, err := providers.OpenVectorStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer vectors.Close()

	n, err := catalog.NewIngester(vectors, "pgvector", log.Logger).IngestFile(ctx, path, cmd.Bool("replace"))
	if err != nil {
		return err
	}

	fmt.Printf("Embedded %d books from %s\n", n, path)
	return nil
}

func tokenAction(_ context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	keyHex, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService(keyHex, cfg.Auth.TokenDuration)
	if err != nil {
		return err
	}

	token, err := tokens.Issue(auth.Identity{
		UID:   cmd.String("uid"),
		Email: cmd.String("email"),
		Name:  cmd.String("name"),
	})
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
