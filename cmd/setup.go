package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/wlx/internal/shared"
)

// SetupDatabase creates a config file when missing, then initializes the history database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}

	path := shared.ExpandPath(r.config.Database.Path)
	r.logger.Info("initializing database", "path", path)

	db, err := shared.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", path)
	return r.writePlain("✓ Database ready at %s\n", path)
}

// SetupYouTube stores headers from a "Copy as cURL" capture of a signed-in youtubei/v1 request.
func (r *Runner) SetupYouTube(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	outputPath := cmd.String("output")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var curlHeaders *shared.CurlHeaders
	var err error

	if curlFile != "" {
		curlHeaders, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		curlHeaders, err = shared.ParseCurlCommand(curlCmd)
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	if curlHeaders.Cookie == "" {
		r.logger.Warn("no cookie found in the capture; requests will not be signed in")
	}

	if outputPath == "" {
		outputPath = r.config.Credentials.YouTube.HeadersPath
	}
	if outputPath == "" {
		return fmt.Errorf("%w: --output or credentials.youtube.headers_path is required", shared.ErrMissingArgument)
	}
	outputPath = shared.ExpandPath(outputPath)

	if err := curlHeaders.WriteHeadersFile(outputPath); err != nil {
		return err
	}
	r.logger.Info("headers saved", "path", outputPath, "count", len(curlHeaders.ToHeaderMap()))

	r.writePlain("✓ YouTube request headers saved to %s\n", outputPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.youtube.headers_path = \"%s\" in your config\n", outputPath)
	if key := curlHeaders.APIKey(); key != "" {
		r.writePlain("2. Set credentials.youtube.api_key = \"%s\" (or WLX_API_KEY)\n", key)
	}
	if version := curlHeaders.ClientVersion(); version != "" {
		r.writePlain("3. Set credentials.youtube.client_version = \"%s\" (or WLX_CLIENT_VERSION)\n", version)
	}
	r.writePlain("Then run 'wlx sort' to check the session works\n")

	return nil
}
