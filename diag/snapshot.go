package diag

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/gridcache/registry"
)

// Snapshot is a point-in-time dump of every cache's stats, suitable for
// attaching to bug reports or diffing across ticks.
type Snapshot struct {
	TakenAt time.Time        `json:"taken_at"`
	Caches  []registry.Stats `json:"caches"`
}

// WriteSnapshot writes a zstd-compressed JSON snapshot of the registry's
// current stats to w.
func WriteSnapshot(w io.Writer, reg *registry.Registry) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}

	snap := Snapshot{
		TakenAt: time.Now().UTC(),
		Caches:  reg.Stats(),
	}

	if err := json.NewEncoder(enc).Encode(snap); err != nil {
		enc.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}

	return enc.Close()
}

// ReadSnapshot decodes a snapshot previously written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("create zstd reader: %w", err)
	}
	defer dec.Close()

	var snap Snapshot
	if err := json.NewDecoder(dec).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
