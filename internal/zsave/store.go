package zsave

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var ErrSlotNotFound = errors.New("save slot not found")

// SlotInfo describes one stored slot without loading its snapshot.
type SlotInfo struct {
	Name      string
	StoryID   string
	Release   uint16
	Serial    string
	CreatedAt time.Time
}

// Store keeps named save slots in a single SQLite database file. One row
// per slot; Put replaces an existing slot of the same name.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS slots (
	name       TEXT PRIMARY KEY,
	story_id   TEXT NOT NULL,
	release_num INTEGER NOT NULL,
	serial     TEXT NOT NULL,
	checksum   INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	data       BLOB NOT NULL
);`

// Open opens or creates the slot database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("zsave: open store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("zsave: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (st *Store) Close() error { return st.db.Close() }

// Put writes a snapshot into a named slot, replacing any previous
// occupant.
func (st *Store) Put(slot string, snap *Snapshot) error {
	data, err := snap.Marshal()
	if err != nil {
		return err
	}
	_, err = st.db.Exec(`
		INSERT INTO slots (name, story_id, release_num, serial, checksum, created_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			story_id = excluded.story_id,
			release_num = excluded.release_num,
			serial = excluded.serial,
			checksum = excluded.checksum,
			created_at = excluded.created_at,
			data = excluded.data`,
		slot, snap.StoryID, snap.Release, snap.Serial, snap.Checksum,
		time.Now().UTC().Format(time.RFC3339), data)
	if err != nil {
		return fmt.Errorf("zsave: put slot %q: %w", slot, err)
	}
	return nil
}

// Get loads the snapshot stored in a slot.
func (st *Store) Get(slot string) (*Snapshot, error) {
	var data []byte
	err := st.db.QueryRow(`SELECT data FROM slots WHERE name = ?`, slot).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrSlotNotFound, slot)
	}
	if err != nil {
		return nil, fmt.Errorf("zsave: get slot %q: %w", slot, err)
	}
	return Unmarshal(data)
}

// List returns metadata for every slot, newest first.
func (st *Store) List() ([]SlotInfo, error) {
	rows, err := st.db.Query(`
		SELECT name, story_id, release_num, serial, created_at
		FROM slots ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("zsave: list slots: %w", err)
	}
	defer rows.Close()

	var infos []SlotInfo
	for rows.Next() {
		var info SlotInfo
		var created string
		if err := rows.Scan(&info.Name, &info.StoryID, &info.Release, &info.Serial, &created); err != nil {
			return nil, fmt.Errorf("zsave: scan slot: %w", err)
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339, created)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes a slot. Deleting an absent slot is not an error.
func (st *Store) Delete(slot string) error {
	_, err := st.db.Exec(`DELETE FROM slots WHERE name = ?`, slot)
	if err != nil {
		return fmt.Errorf("zsave: delete slot %q: %w", slot, err)
	}
	return nil
}
