package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/aristath/escrow/internal/database"
)

// WALCheckpointJob truncates the WAL file periodically so the ledger
// database never accumulates an unbounded journal.
type WALCheckpointJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewWALCheckpointJob creates a new WAL checkpoint job
func NewWALCheckpointJob(db *database.DB, log zerolog.Logger) *WALCheckpointJob {
	return &WALCheckpointJob{
		db:  db,
		log: log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run forces a truncating WAL checkpoint
func (j *WALCheckpointJob) Run() error {
	return j.db.WALCheckpoint("TRUNCATE")
}
