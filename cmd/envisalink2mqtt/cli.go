package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/daemonp/envisalink2mqtt/internal/types"
	"github.com/spf13/cobra"
)

var eventsChannel string

var cliCmd = &cobra.Command{
	Use:   "cli",
	Short: "Send commands typed on stdin and print panel events",
	Long: `Every line read from stdin is pushed to the commands channels, either a
literal command (arm, disarm, fire, medical, police, status) or a JSON
command such as {"code": "001"}. Events arriving on the events channel
are printed as they come in.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, _, transport, adapter, err := setup(ctx)
		if err != nil {
			return err
		}
		defer adapter.Close()

		events, err := transport.Subscribe(ctx, []string{eventsChannel})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", eventsChannel, err)
		}
		go func() {
			for body := range events {
				var event types.Event
				if err := json.Unmarshal(body, &event); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\n", body)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s [%s]: %s\n", event.Type, event.Raw, event.Message)
			}
		}()

		lines := make(chan string)
		go func() {
			defer close(lines)
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				lines <- strings.TrimSpace(scanner.Text())
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				if line == "" {
					continue
				}
				for _, channel := range cfg.Bus.Channels.Commands {
					if err := transport.Publish(ctx, channel, []byte(line)); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "failed to send to %s: %v\n", channel, err)
					}
				}
			}
		}
	},
}

func init() {
	cliCmd.Flags().StringVar(&eventsChannel, "events-channel", "cli", "Events channel to print")
}
