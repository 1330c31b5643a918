// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/api"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/bootstrap"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/config"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/helper/posix"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/render"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/internal/x509/header"
	"github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/logger"
	mcpserver "github.com/H0llyW00dzZ/tls-trust-anchor-resolver/src/mcp-server"
)

// ErrNoDomains is returned when a batch command is invoked without domains.
var ErrNoDomains = errors.New("cli: at least one domain is required")

// ShutdownTimeout bounds graceful shutdown of the HTTP server.
const ShutdownTimeout = 10 * time.Second

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	log        logger.Logger
}

// Execute runs the command tree against os.Args, handling cancellation
// through ctx.
func Execute(ctx context.Context, version string, log logger.Logger) error {
	return NewRootCommand(version, log).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. log receives diagnostics; result
// documents go to the command's output writer.
func NewRootCommand(version string, log logger.Logger) *cobra.Command {
	if log == nil {
		log = logger.NewCLILogger()
	}
	opts := &rootOptions{log: log}

	rootCmd := &cobra.Command{
		Use:           posix.GetExecutableName(),
		Short:         "Vet domains and resolve their TLS trust anchors",
		Long:          "Vets domains against Google Safe Browsing, resolves their TLS certificates or trust anchors, and renders BearSSL trust anchor headers.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"configuration file (JSON or YAML, default: $"+config.EnvConfigFile+")")

	rootCmd.AddCommand(
		newResolveCommand(opts),
		newHeaderCommand(opts),
		newServeCommand(opts),
		newMCPCommand(opts, version),
	)
	return rootCmd
}

// requireDomains is a cobra.PositionalArgs that rejects empty batches.
func requireDomains(_ *cobra.Command, args []string) error {
	if len(args) == 0 {
		return ErrNoDomains
	}
	return nil
}

// load reads the configuration and wires the application, logging to log.
func (o *rootOptions) load(ctx context.Context, log logger.Logger) (*bootstrap.App, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(ctx, cfg, bootstrap.WithLogger(log))
}

func newResolveCommand(opts *rootOptions) *cobra.Command {
	var (
		wantRoot bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "resolve DOMAIN...",
		Short: "Resolve leaf certificates or trust anchors for domains",
		Args:  requireDomains,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := opts.load(ctx, opts.log)
			if err != nil {
				return err
			}

			res, err := app.Pipeline.Run(ctx, args, wantRoot)
			if err != nil {
				return err
			}

			if !asJSON {
				return render.Table(cmd.OutOrStdout(), res)
			}
			return writeDocument(cmd.OutOrStdout(), render.NewResultDocument(res))
		},
	}

	cmd.Flags().BoolVarP(&wantRoot, "root", "r", false, "resolve trust anchors instead of leaf certificates")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "emit the result document as JSON instead of a table")
	return cmd
}

func newHeaderCommand(opts *rootOptions) *cobra.Command {
	var (
		params     api.Params
		outputFile string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "header DOMAIN...",
		Short: "Generate a BearSSL trust anchor header for domains",
		Args:  requireDomains,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := opts.load(ctx, opts.log)
			if err != nil {
				return err
			}

			svc := api.NewService(app.Pipeline, app.Config.HeaderNames(), opts.log)
			doc, err := svc.Header(ctx, args, params)
			if err != nil {
				return err
			}
			for _, d := range doc.InvalidDomains {
				opts.log.Printf("skipped %s", d)
			}

			if asJSON {
				return writeDocument(cmd.OutOrStdout(), doc)
			}
			if outputFile != "" {
				if err := os.WriteFile(outputFile, []byte(doc.Header), 0o644); err != nil {
					return fmt.Errorf("failed to write header: %w", err)
				}
				opts.log.Printf("wrote header for %d domains to %s", len(doc.ValidDomains), outputFile)
				return nil
			}
			_, err = io.WriteString(cmd.OutOrStdout(), doc.Header)
			return err
		},
	}

	cmd.Flags().StringVar(&params.ArrayName, "array-name", "", "name of the trust anchor array (default: header.arrayName or "+header.DefaultArrayName+")")
	cmd.Flags().StringVar(&params.LengthName, "length-name", "", "name of the array length macro (default: header.lengthName or "+header.DefaultLengthName+")")
	cmd.Flags().StringVar(&params.GuardName, "guard-name", "", "include guard macro (default: header.guardName or "+header.DefaultGuardName+")")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "write the header to OUTPUT_FILE (default: stdout)")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "emit the bundle document as JSON")
	return cmd
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logger.NewJSONLogger(cmd.ErrOrStderr(), false)

			app, err := opts.load(ctx, log)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = app.Config.Server.Addr
			}

			svc := api.NewService(app.Pipeline, app.Config.HeaderNames(), log)
			srv := api.NewServer(addr, api.NewRouter(svc, app.Registry))
			return serveHTTP(ctx, srv, log)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default: server.addr or $"+config.EnvAddr+")")
	return cmd
}

func newMCPCommand(opts *rootOptions, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the resolver tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			// stdout carries the protocol
			log := logger.NewJSONLogger(cmd.ErrOrStderr(), false)

			app, err := opts.load(ctx, log)
			if err != nil {
				return err
			}

			svc := api.NewService(app.Pipeline, app.Config.HeaderNames(), log)
			return mcpserver.Serve(ctx, svc, version, log, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// serveHTTP runs srv until ctx is cancelled, then shuts it down.
func serveHTTP(ctx context.Context, srv *http.Server, log logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Println("server stopped")
	return nil
}

func writeDocument(w io.Writer, doc any) error {
	data, err := render.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
