package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/daemonp/envisalink2mqtt/internal/types"
	"github.com/spf13/cobra"
)

// samples are the events published by the simulate command, one per type.
var samples = map[types.EventType]types.Event{
	types.EventCommand:  {Code: "123", Message: "Arm alarm command issued", Raw: "123 command issued"},
	types.EventInfo:     {Code: "236", Message: "Some kind of general information event occurred", Raw: "236 INFO GENERAL"},
	types.EventArmed:    {Code: "535", Message: "Alarm now armed", Raw: "535 ARMED"},
	types.EventDisarmed: {Code: "525", Message: "Alarm is disarmed", Raw: "525 disarmed"},
	types.EventResponse: {Code: "123", Message: "ACK of command", Raw: "123 response"},
	types.EventAlarm:    {Code: "911", Message: "Alarm triggered in sector 5", Raw: "911 ALARM ALARM"},
	types.EventRecovery: {Code: "1332", Message: "Alarm recovered", Raw: "1332 recovery"},
	types.EventFault:    {Code: "666", Message: "Flux Capaciter Failed", Raw: "666 FLUXERR"},
	types.EventUnknown:  {Code: "???", Message: "unknown", Raw: "Unknown error, there's no helping you now"},
}

func sample(name string) (types.Event, error) {
	t, err := types.ParseEventType(name)
	if err != nil {
		return types.Event{}, err
	}
	s := samples[t]
	return types.NewEvent(t, s.Code, s.Raw, s.Message), nil
}

func eventTypeNames() string {
	names := make([]string, 0, len(types.EventTypes))
	for _, t := range types.EventTypes {
		names = append(names, string(t))
	}
	return strings.Join(names, "|")
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Publish sample events to exercise bus consumers",
	Long: `Reads an event type per line from stdin and publishes a sample event of
that type to every events channel. No panel connection is made.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, _, _, adapter, err := setup(ctx)
		if err != nil {
			return err
		}
		defer adapter.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Which alarm event would you like to simulate? [%s]\n", eventTypeNames())
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			name := strings.TrimSpace(scanner.Text())
			if name == "" {
				continue
			}
			event, err := sample(name)
			if err != nil {
				fmt.Fprintf(out, "Request a specific alarm event to simulate from: [%s]\n", eventTypeNames())
				continue
			}
			if err := adapter.Publish(ctx, event); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed to publish: %v\n", err)
			}
		}
		return scanner.Err()
	},
}
