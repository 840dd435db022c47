package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/adarsh-anand15/quantum-learning/internal/events"
	"github.com/adarsh-anand15/quantum-learning/internal/modules/runs"
)

const (
	// streamWriteWait bounds each websocket write
	streamWriteWait = 10 * time.Second

	// streamPingInterval keeps idle connections alive through proxies
	streamPingInterval = 30 * time.Second

	// streamBuffer is the per-connection update queue; progress events that
	// arrive faster than the client drains them are dropped
	streamBuffer = 64
)

// streamEventTypes are the live run events forwarded to stream clients.
// RunQueued is not included: a stream is always opened against an existing
// run, and its current status is sent as the first message instead.
var streamEventTypes = []events.EventType{
	events.RunStarted,
	events.RunProgress,
	events.RunCompleted,
	events.RunFailed,
	events.RunCancelled,
}

// HandleStreamRun handles GET /api/runs/{id}/stream.
//
// It upgrades the connection to a websocket and pushes run status messages
// until the run reaches a terminal status or the client disconnects. The
// first message is a snapshot of the run's current state, so clients that
// connect mid-run (or after completion) still receive a consistent picture.
func (h *Handler) HandleStreamRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.service.Get(id)
	if err != nil {
		if errors.Is(err, runs.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Run not found: "+id)
			return
		}
		h.log.Error().Err(err).Str("run_id", id).Msg("Failed to get run for stream")
		h.writeError(w, http.StatusInternalServerError, "Failed to get run")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Str("run_id", id).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream aborted")

	// The stream is push-only. CloseRead discards inbound frames and returns
	// a context cancelled when the client goes away. The router's request
	// timeout must not apply here: streams live until the run is terminal.
	ctx := conn.CloseRead(context.WithoutCancel(r.Context()))

	updates := make(chan *events.RunStatusData, streamBuffer)
	unsubscribe := make([]func(), 0, len(streamEventTypes))
	for _, eventType := range streamEventTypes {
		unsubscribe = append(unsubscribe, h.bus.Subscribe(eventType, func(event *events.Event) {
			data, ok := event.GetTypedData().(*events.RunStatusData)
			if !ok || data.RunID != id {
				return
			}
			select {
			case updates <- data:
			default:
				h.log.Debug().Str("run_id", id).Msg("Stream buffer full, dropping update")
			}
		}))
	}
	defer func() {
		for _, cancel := range unsubscribe {
			cancel()
		}
	}()

	h.log.Debug().Str("run_id", id).Str("status", run.Status).Msg("Run stream opened")

	if err := h.writeStream(ctx, conn, runStatusSnapshot(run)); err != nil {
		return
	}
	if run.IsTerminal() {
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}

	pinger := time.NewTicker(streamPingInterval)
	defer pinger.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Debug().Str("run_id", id).Msg("Run stream client disconnected")
			return

		case data := <-updates:
			if err := h.writeStream(ctx, conn, data); err != nil {
				h.log.Debug().Err(err).Str("run_id", id).Msg("Run stream write failed")
				return
			}
			switch data.Status {
			case runs.StatusCompleted, runs.StatusFailed, runs.StatusCancelled:
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}

		case <-pinger.C:
			pingCtx, cancel := context.WithTimeout(ctx, streamWriteWait)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				h.log.Debug().Err(err).Str("run_id", id).Msg("Run stream ping failed")
				return
			}
		}
	}
}

// writeStream writes one status message with a bounded write context.
func (h *Handler) writeStream(ctx context.Context, conn *websocket.Conn, data *events.RunStatusData) error {
	writeCtx, cancel := context.WithTimeout(ctx, streamWriteWait)
	defer cancel()
	return wsjson.Write(writeCtx, conn, data)
}

// runStatusSnapshot builds the initial stream message from the stored run
// record. The status is the record's own value, so a freshly queued run
// reports "queued" and a finished one reports its terminal status directly.
func runStatusSnapshot(run *runs.Run) *events.RunStatusData {
	data := &events.RunStatusData{
		RunID:     run.ID,
		Kind:      run.Kind,
		Status:    run.Status,
		Iteration: run.Iterations,
		Error:     run.Error,
		Timestamp: time.Now(),
	}
	if run.FinalCost != nil {
		data.Cost = *run.FinalCost
	}
	if run.Fidelity != nil {
		data.Fidelity = *run.Fidelity
	}
	if run.MeanOverlap != nil {
		data.MeanOverlap = *run.MeanOverlap
	}
	return data
}
