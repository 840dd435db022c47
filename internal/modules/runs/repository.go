package runs

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/adarsh-anand15/quantum-learning/internal/synthesis"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// runColumns is the scan order shared by Get and List queries.
// Trace and parameter blobs are loaded separately; they can be large.
const runColumns = `id, name, kind, status, spec, seed, final_cost, fidelity,
	mean_overlap, iterations, converged, error, created_at, started_at, finished_at`

// Repository handles run database operations (runs.db, runs table).
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new run repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "runs").Logger(),
	}
}

// Create inserts a new run record.
func (r *Repository) Create(run *Run) error {
	specJSON, err := json.Marshal(run.Spec)
	if err != nil {
		return fmt.Errorf("failed to marshal run spec: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO runs (id, name, kind, status, spec, seed, iterations, converged, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?)
	`,
		run.ID,
		run.Name,
		run.Kind,
		run.Status,
		string(specJSON),
		run.Seed,
		run.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	return nil
}

// Get retrieves a run by ID. Returns nil if the run doesn't exist.
func (r *Repository) Get(id string) (*Run, error) {
	row := r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// List retrieves runs newest first, optionally filtered by status and kind.
// A non-positive limit returns all matching runs.
func (r *Repository) List(status, kind string, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`

	var conditions []string
	var args []interface{}
	if status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, status)
	}
	if kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, kind)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var result []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan run row")
			continue
		}
		result = append(result, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return result, nil
}

// ListByStatus retrieves all runs with the given status, oldest first.
// Used by the work processor to find queued runs in submission order.
func (r *Repository) ListByStatus(status string) ([]*Run, error) {
	rows, err := r.db.Query(`SELECT `+runColumns+` FROM runs WHERE status = ? ORDER BY created_at ASC, id ASC`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs by status: %w", err)
	}
	defer rows.Close()

	var result []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan run row")
			continue
		}
		result = append(result, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return result, nil
}

// CountByStatus returns run counts grouped by status.
func (r *Repository) CountByStatus() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run counts: %w", err)
	}

	return counts, nil
}

// MarkRunning transitions a queued run to running. Returns false if the
// run was not in the queued state (already claimed, cancelled, or gone).
func (r *Repository) MarkRunning(id string) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE runs SET status = ?, started_at = ? WHERE id = ? AND status = ?
	`, StatusRunning, time.Now().Unix(), id, StatusQueued)
	if err != nil {
		return false, fmt.Errorf("failed to mark run %s running: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkCompleted records final results and transitions the run to completed.
func (r *Repository) MarkCompleted(id string, result *synthesis.Result) error {
	converged := 0
	if result.Converged {
		converged = 1
	}

	_, err := r.db.Exec(`
		UPDATE runs
		SET status = ?, final_cost = ?, fidelity = ?, mean_overlap = ?,
			iterations = ?, converged = ?, error = NULL, finished_at = ?
		WHERE id = ?
	`,
		StatusCompleted,
		result.FinalCost,
		result.Fidelity,
		result.MeanOverlap,
		result.Iterations,
		converged,
		time.Now().Unix(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark run %s completed: %w", id, err)
	}
	return nil
}

// MarkFailed records an error message and transitions the run to failed.
func (r *Repository) MarkFailed(id string, message string) error {
	_, err := r.db.Exec(`
		UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?
	`, StatusFailed, message, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to mark run %s failed: %w", id, err)
	}
	return nil
}

// MarkCancelled transitions a run to cancelled.
func (r *Repository) MarkCancelled(id string) error {
	_, err := r.db.Exec(`
		UPDATE runs SET status = ?, finished_at = ? WHERE id = ?
	`, StatusCancelled, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to mark run %s cancelled: %w", id, err)
	}
	return nil
}

// SaveTrace stores the final parameter vector and optimization trace as
// msgpack blobs.
func (r *Repository) SaveTrace(id string, params []float64, trace []synthesis.TracePoint) error {
	paramsBlob, err := msgpack.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode params for run %s: %w", id, err)
	}
	traceBlob, err := msgpack.Marshal(trace)
	if err != nil {
		return fmt.Errorf("failed to encode trace for run %s: %w", id, err)
	}

	_, err = r.db.Exec(`UPDATE runs SET final_params = ?, trace = ? WHERE id = ?`, paramsBlob, traceBlob, id)
	if err != nil {
		return fmt.Errorf("failed to save trace for run %s: %w", id, err)
	}
	return nil
}

// LoadTrace retrieves the stored optimization trace. Returns nil when no
// trace has been saved yet.
func (r *Repository) LoadTrace(id string) ([]synthesis.TracePoint, error) {
	var blob []byte
	err := r.db.QueryRow(`SELECT trace FROM runs WHERE id = ?`, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trace for run %s: %w", id, err)
	}
	if len(blob) == 0 {
		return nil, nil
	}

	var trace []synthesis.TracePoint
	if err := msgpack.Unmarshal(blob, &trace); err != nil {
		return nil, fmt.Errorf("failed to decode trace for run %s: %w", id, err)
	}
	return trace, nil
}

// LoadParams retrieves the stored final parameter vector. Returns nil when
// no parameters have been saved yet.
func (r *Repository) LoadParams(id string) ([]float64, error) {
	var blob []byte
	err := r.db.QueryRow(`SELECT final_params FROM runs WHERE id = ?`, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load params for run %s: %w", id, err)
	}
	if len(blob) == 0 {
		return nil, nil
	}

	var params []float64
	if err := msgpack.Unmarshal(blob, &params); err != nil {
		return nil, fmt.Errorf("failed to decode params for run %s: %w", id, err)
	}
	return params, nil
}

// Delete removes a run record.
func (r *Repository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	return nil
}

// PruneOlderThan deletes terminal runs created before the cutoff while
// always keeping the keepMin newest runs overall. Returns the number of
// deleted rows.
func (r *Repository) PruneOlderThan(cutoff time.Time, keepMin int) (int64, error) {
	if keepMin < 0 {
		keepMin = 0
	}

	res, err := r.db.Exec(`
		DELETE FROM runs
		WHERE status IN (?, ?, ?)
		  AND created_at < ?
		  AND id NOT IN (SELECT id FROM runs ORDER BY created_at DESC, id DESC LIMIT ?)
	`,
		StatusCompleted,
		StatusFailed,
		StatusCancelled,
		cutoff.Unix(),
		keepMin,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		r.log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("Pruned old runs")
	}
	return deleted, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanRun.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var specJSON string
	var finalCost, fidelity, meanOverlap sql.NullFloat64
	var converged int
	var errMsg sql.NullString
	var createdAt int64
	var startedAt, finishedAt sql.NullInt64

	err := row.Scan(
		&run.ID,
		&run.Name,
		&run.Kind,
		&run.Status,
		&specJSON,
		&run.Seed,
		&finalCost,
		&fidelity,
		&meanOverlap,
		&run.Iterations,
		&converged,
		&errMsg,
		&createdAt,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(specJSON), &run.Spec); err != nil {
		return nil, fmt.Errorf("failed to decode spec for run %s: %w", run.ID, err)
	}

	if finalCost.Valid {
		run.FinalCost = &finalCost.Float64
	}
	if fidelity.Valid {
		run.Fidelity = &fidelity.Float64
	}
	if meanOverlap.Valid {
		run.MeanOverlap = &meanOverlap.Float64
	}
	run.Converged = converged != 0
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	run.CreatedAt = time.Unix(createdAt, 0).UTC()
	if startedAt.Valid {
		t := time.Unix(startedAt.Int64, 0).UTC()
		run.StartedAt = &t
	}
	if finishedAt.Valid {
		t := time.Unix(finishedAt.Int64, 0).UTC()
		run.FinishedAt = &t
	}

	return &run, nil
}
