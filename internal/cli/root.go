// Package cli implements pricewatchctl, the command line client of the
// price watch gRPC service.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	grpcadapter "github.com/simaogato/pricewatch-backend/internal/adapter/grpc"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Addr    string
	Token   string
	Format  string // "json" | "text"
	Timeout time.Duration

	// Connect opens the client connection; tests replace it
	Connect func(ctx context.Context, opts *RootOptions) (grpc.ClientConnInterface, io.Closer, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the pricewatchctl CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{Connect: dial})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pricewatchctl",
		Short: "pricewatchctl - manage tracked items and run price watch cycles",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.Addr, "addr", envOr("PRICEWATCH_ADDR", "localhost:8080"), "gRPC server address")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", envOr("API_TOKEN", "dev-token"), "API token")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "request timeout")

	// Add subcommands
	cmd.AddCommand(NewCreateUserCommand(opts))
	cmd.AddCommand(NewAddItemCommand(opts))
	cmd.AddCommand(NewItemsCommand(opts))
	cmd.AddCommand(NewDeactivateItemCommand(opts))
	cmd.AddCommand(NewAddRuleCommand(opts))
	cmd.AddCommand(NewDisableRuleCommand(opts))
	cmd.AddCommand(NewRunCycleCommand(opts))
	cmd.AddCommand(NewAlertsCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func dial(_ context.Context, opts *RootOptions) (grpc.ClientConnInterface, io.Closer, error) {
	conn, err := grpc.NewClient(opts.Addr, grpcadapter.DefaultClientDialOptions(opts.Token)...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", opts.Addr, err)
	}
	return conn, conn, nil
}

// call sends one request and returns the response fields
func call(cmd *cobra.Command, opts *RootOptions, method string, fields map[string]any) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	conn, closer, err := opts.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	resp, err := grpcadapter.NewClient(conn).Call(ctx, method, fields)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return resp, nil
}
