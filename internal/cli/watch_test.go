package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/adarsh-anand15/quantum-learning/internal/events"
)

// streamServer fakes the run stream endpoint: it accepts the websocket,
// pushes the given messages in order, then closes normally.
func streamServer(t *testing.T, messages []events.RunStatusData) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		require.NoError(t, err)
		for i := range messages {
			require.NoError(t, wsjson.Write(r.Context(), conn, &messages[i]))
		}
		conn.Close(websocket.StatusNormalClosure, "")
	}))
}

func TestWatchFollowsRunToCompletion(t *testing.T) {
	now := time.Now()
	srv := streamServer(t, []events.RunStatusData{
		{RunID: "run-1", Status: "running", Iteration: 0, Timestamp: now},
		{RunID: "run-1", Status: "progress", Iteration: 50, TotalIterations: 100, Cost: 0.5, Fidelity: 0.5, Timestamp: now},
		{RunID: "run-1", Status: "completed", Iteration: 100, Cost: 0.01, Fidelity: 0.99, Timestamp: now},
	})
	defer srv.Close()

	buf := &bytes.Buffer{}
	cmd := NewWatchCommand(&RootOptions{Server: srv.URL})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"run-1"})
	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "[running]")
	assert.Contains(t, output, "iter 50/100")
	assert.Contains(t, output, "[completed]")
	assert.Contains(t, output, "fidelity=0.990000")
}

func TestWatchFailedRunReturnsError(t *testing.T) {
	srv := streamServer(t, []events.RunStatusData{
		{RunID: "run-2", Status: "running", Timestamp: time.Now()},
		{RunID: "run-2", Status: "failed", Error: "optimizer diverged", Timestamp: time.Now()},
	})
	defer srv.Close()

	buf := &bytes.Buffer{}
	cmd := NewWatchCommand(&RootOptions{Server: srv.URL})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"run-2"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "optimizer diverged")
	assert.Contains(t, buf.String(), "[failed]")
}

func TestWatchFinishedRunSnapshotOnly(t *testing.T) {
	// A stream opened against a finished run sends one snapshot and closes.
	srv := streamServer(t, []events.RunStatusData{
		{RunID: "run-3", Status: "cancelled", Iteration: 120, Timestamp: time.Now()},
	})
	defer srv.Close()

	buf := &bytes.Buffer{}
	cmd := NewWatchCommand(&RootOptions{Server: srv.URL})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"run-3"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "[cancelled] stopped after 120 iterations")
}

func TestStreamURL(t *testing.T) {
	url, err := streamURL("http://localhost:8090", "abc")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8090/api/runs/abc/stream", url)

	url, err = streamURL("https://ql.example.com", "abc")
	require.NoError(t, err)
	assert.Equal(t, "wss://ql.example.com/api/runs/abc/stream", url)

	_, err = streamURL("ftp://nope", "abc")
	require.Error(t, err)
}
