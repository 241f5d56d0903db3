package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/webtrace/deploycheck/pkg/verify"
)

// errChecksFailed marks a completed run with failing checks. The tally has
// already been printed by then, so main only maps it to exit code 1.
var errChecksFailed = errors.New("one or more checks failed")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "deploycheck",
		Short: "Verify a live deployment of the webtrace crawling platform",
		Long: `deploycheck runs a dependency-ordered battery of checks against a live
deployment of the crawling platform: namespace existence, deployment
readiness, service reachability, application health, and the backend
connectivity the crawler needs at runtime.

With no arguments it behaves like "deploycheck test".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runTest(cmd.Context())
		},
	}
	// Errors are printed by main so a failed run does not get an extra
	// "Error:" line after its tally; usage still prints on parse errors.
	root.SilenceErrors = true

	root.AddCommand(newTestCmd(), newStatusCmd(), newNetworkCmd(), newAllCmd())
	return root
}

func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run the verification battery (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runTest(cmd.Context())
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Dump raw resource state for the target namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			h, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer h.close()
			h.runStatus(cmd.Context())
			return nil
		},
	}
}

func newNetworkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "network",
		Short: "Print live network telemetry from the crawler API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			h, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer h.close()
			h.runNetwork(cmd.Context())
			return nil
		},
	}
}

func newAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run the battery, then the status dump, then network telemetry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx := cmd.Context()
			h, err := setup(ctx)
			if err != nil {
				return err
			}
			defer h.close()

			sum := h.runChecks(ctx)
			verify.Report(os.Stdout, h.cfg, sum)

			// Diagnostics run unconditionally: they exist for the failure case.
			fmt.Println("\n=== status ===")
			h.runStatus(ctx)
			fmt.Println("\n=== network ===")
			h.runNetwork(ctx)

			if !sum.AllPassed() {
				return errChecksFailed
			}
			return nil
		},
	}
}

func runTest(ctx context.Context) error {
	h, err := setup(ctx)
	if err != nil {
		return err
	}
	defer h.close()

	sum := h.runChecks(ctx)
	verify.Report(os.Stdout, h.cfg, sum)
	if !sum.AllPassed() {
		return errChecksFailed
	}
	return nil
}
