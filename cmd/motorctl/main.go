package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"motord/internal/client"
)

var (
	addr    string
	timeout time.Duration
)

func main() {
	root := &cobra.Command{
		Use:           "motorctl",
		Short:         "Send commands to a motord server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&addr, "addr", "127.0.0.1:12345", "motord address")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second, "Timeout for the exchange")

	root.AddCommand(
		&cobra.Command{
			Use:   "ping",
			Short: "Check the server is alive",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return send(cmd, "ping")
			},
		},
		&cobra.Command{
			Use:   "set <motor_id> <forward|backward> <speed>",
			Short: "Set a motor's direction and speed",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return send(cmd, strings.Join(args, ","))
			},
		},
		&cobra.Command{
			Use:   "send <raw command>",
			Short: "Send a raw protocol line",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return send(cmd, args[0])
			},
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func send(cmd *cobra.Command, line string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	reply, err := client.Send(ctx, addr, line)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	if strings.HasPrefix(reply, "ERROR:") {
		os.Exit(2)
	}
	return nil
}
