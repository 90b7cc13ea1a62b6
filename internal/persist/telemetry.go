package persist

import (
	"context"
	"fmt"
)

// TickRow is one aggregate stats record.
type TickRow struct {
	Tick       uint64
	Active     int
	StateNs    int64
	MovementNs int64
	CombatNs   int64
}

// SnapshotRow is one agent position snapshot.
type SnapshotRow struct {
	Tick      uint64
	Identity  uint64
	Archetype string
	X, Y, Z   float32
	HP        int32
	Flags     uint8
}

// TelemetryRepo batch-writes simulation telemetry. Informational data only:
// the simulation never reads it back.
type TelemetryRepo struct {
	db *DB
}

func NewTelemetryRepo(db *DB) *TelemetryRepo {
	return &TelemetryRepo{db: db}
}

// WriteTick writes one stats row and its agent snapshots in a single
// transaction, matching the batch-flush shape of the write-ahead paths.
func (r *TelemetryRepo) WriteTick(ctx context.Context, row TickRow, snapshots []SnapshotRow) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("telemetry begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO tick_stats (tick, active, state_ns, movement_ns, combat_ns)
		 VALUES ($1, $2, $3, $4, $5)`,
		int64(row.Tick), row.Active, row.StateNs, row.MovementNs, row.CombatNs,
	); err != nil {
		return fmt.Errorf("telemetry tick insert: %w", err)
	}

	for _, s := range snapshots {
		if _, err := tx.Exec(ctx,
			`INSERT INTO agent_snapshots (tick, identity, archetype, x, y, z, hp, flags)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			int64(s.Tick), int64(s.Identity), s.Archetype, s.X, s.Y, s.Z, s.HP, int16(s.Flags),
		); err != nil {
			return fmt.Errorf("telemetry snapshot insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}
