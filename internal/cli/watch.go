package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/adarsh-anand15/quantum-learning/internal/events"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <run-id>",
		Short: "Stream live progress of a run",
		Long: `Stream a run's progress over the server's websocket until the run
reaches a terminal status. The first line is the run's current state, so
watching an already finished run prints its result and exits.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchRun(cmd, rootOpts.Server, args[0])
		},
	}

	return cmd
}

// watchRun follows the run's websocket stream, printing one line per
// status message. It returns an error if the run fails, so the exit code
// reflects the run outcome.
func watchRun(cmd *cobra.Command, server, id string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	wsURL, err := streamURL(server, id)
	if err != nil {
		return err
	}

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("cannot open run stream: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	out := cmd.OutOrStdout()
	for {
		var msg events.RunStatusData
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("run stream closed unexpectedly: %w", err)
		}

		writeStatusLine(out, &msg)

		switch msg.Status {
		case "completed", "cancelled":
			return nil
		case "failed":
			if msg.Error != "" {
				return fmt.Errorf("run failed: %s", msg.Error)
			}
			return fmt.Errorf("run failed")
		}
	}
}

// writeStatusLine renders one stream message as a progress line.
func writeStatusLine(out io.Writer, msg *events.RunStatusData) {
	switch msg.Status {
	case "queued":
		fmt.Fprintf(out, "[queued]    waiting for a free slot\n")
	case "started":
		fmt.Fprintf(out, "[started]   %s\n", msg.RunID)
	case "running":
		fmt.Fprintf(out, "[running]   iter %d  cost=%.6g  fidelity=%.6f\n", msg.Iteration, msg.Cost, msg.Fidelity)
	case "progress":
		fmt.Fprintf(out, "[progress]  iter %d/%d  cost=%.6g  fidelity=%.6f\n", msg.Iteration, msg.TotalIterations, msg.Cost, msg.Fidelity)
	case "completed":
		fmt.Fprintf(out, "[completed] cost=%.6g  fidelity=%.6f  (%d iterations)\n", msg.Cost, msg.Fidelity, msg.Iteration)
	case "failed":
		fmt.Fprintf(out, "[failed]    %s\n", msg.Error)
	case "cancelled":
		fmt.Fprintf(out, "[cancelled] stopped after %d iterations\n", msg.Iteration)
	default:
		fmt.Fprintf(out, "[%s] iter %d\n", msg.Status, msg.Iteration)
	}
}

// streamURL converts the HTTP base URL into the run's websocket URL.
func streamURL(server, id string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", server, err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
		// Already a websocket URL.
	default:
		return "", fmt.Errorf("invalid server URL %q: unsupported scheme %q", server, u.Scheme)
	}

	return u.JoinPath("api", "runs", id, "stream").String(), nil
}
