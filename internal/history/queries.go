package history

import (
	"crypto/rand"
	"database/sql"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/sitecat/internal/catalog"
	"github.com/hpungsan/sitecat/internal/errors"
)

// DefaultLimit caps Recent when the caller passes no limit.
const DefaultLimit = 20

// Record is one persisted build run.
type Record struct {
	ID           string `json:"id"`
	Root         string `json:"root"`
	Output       string `json:"output"`
	PagesScanned int    `json:"pages_scanned"`
	ToolsCount   int    `json:"tools_count"`
	Skipped      int    `json:"skipped"`
	Failed       int    `json:"failed"`
	DurationMS   int64  `json:"duration_ms"`
	CreatedAt    int64  `json:"created_at"`
}

// RecentOutput is the JSON shape of the history listing.
type RecentOutput struct {
	Builds []Record `json:"builds"`
}

// PruneOutput reports how many records Prune removed.
type PruneOutput struct {
	Pruned int `json:"pruned"`
}

// RecordBuild persists the outcome of one build run and returns the stored
// record.
func RecordBuild(db *sql.DB, out *catalog.BuildOutput) (*Record, error) {
	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	rec := &Record{
		ID:           id,
		Root:         out.Root,
		Output:       out.Output,
		PagesScanned: out.PagesScanned,
		ToolsCount:   out.ToolsCount,
		Skipped:      out.Skipped,
		Failed:       out.Failed,
		DurationMS:   out.DurationMS,
		CreatedAt:    time.Now().Unix(),
	}

	query := `
		INSERT INTO builds (
			id, root, output, pages_scanned, tools_count,
			skipped, failed, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if _, err := db.Exec(query,
		rec.ID, rec.Root, rec.Output, rec.PagesScanned, rec.ToolsCount,
		rec.Skipped, rec.Failed, rec.DurationMS, rec.CreatedAt,
	); err != nil {
		return nil, errors.NewInternal(err)
	}

	return rec, nil
}

// Recent returns the most recent build records, newest first. ULIDs sort
// by creation time, so the id tiebreaks records within the same second.
func Recent(db *sql.DB, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `
		SELECT id, root, output, pages_scanned, tools_count,
		       skipped, failed, duration_ms, created_at
		FROM builds
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID, &r.Root, &r.Output, &r.PagesScanned, &r.ToolsCount,
			&r.Skipped, &r.Failed, &r.DurationMS, &r.CreatedAt,
		); err != nil {
			return nil, errors.NewInternal(err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return records, nil
}

// Prune deletes records older than the given number of days and reports how
// many were removed.
func Prune(db *sql.DB, olderThanDays int) (int, error) {
	if olderThanDays <= 0 {
		return 0, errors.NewInvalidRequest("prune window must be positive")
	}

	cutoff := time.Now().AddDate(0, 0, -olderThanDays).Unix()
	res, err := db.Exec(`DELETE FROM builds WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

// The shared monotonic reader keeps IDs strictly increasing even when
// several builds land in the same millisecond. It is not concurrency safe
// on its own, hence the mutex.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func generateULID() (string, error) {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
