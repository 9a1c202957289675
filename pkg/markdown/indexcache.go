// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package markdown

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kadirpekel/voicetree/pkg/tree"
)

// IndexCache persists a filename -> node id index for a markdown output
// directory in an on-disk SQLite database. A Writer bound to a cache
// records the filename it wrote for each node on every WriteNodes call;
// Stale, called after a batch, reports any filename the cache still
// remembers that wasn't part of that batch and no longer resolves to a
// node in the snapshot - the signal that LoadTree's view of the directory
// has drifted from what the last write actually produced (a node renamed
// or deleted outside of WriteNodes, for example).
type IndexCache struct {
	db *sql.DB
}

// OpenIndexCache opens (creating if necessary) the SQLite index cache at
// path.
func OpenIndexCache(path string) (*IndexCache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("markdown: open index cache: %w", err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS node_index (
		filename TEXT PRIMARY KEY,
		node_id INTEGER NOT NULL,
		written_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("markdown: init index cache schema: %w", err)
	}
	return &IndexCache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *IndexCache) Close() error {
	return c.db.Close()
}

// record upserts filename's current node id.
func (c *IndexCache) record(filename string, id tree.NodeID) error {
	_, err := c.db.Exec(
		`INSERT INTO node_index (filename, node_id, written_at) VALUES (?, ?, ?)
		 ON CONFLICT(filename) DO UPDATE SET node_id = excluded.node_id, written_at = excluded.written_at`,
		filename, int64(id), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("markdown: index cache record %s: %w", filename, err)
	}
	return nil
}

// Lookup returns the cached node id for filename, if present.
func (c *IndexCache) Lookup(filename string) (tree.NodeID, bool, error) {
	row := c.db.QueryRow(`SELECT node_id FROM node_index WHERE filename = ?`, filename)
	var id int64
	if err := row.Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("markdown: index cache lookup %s: %w", filename, err)
	}
	return tree.NodeID(id), true, nil
}

// Stale returns every filename the cache holds whose recorded node id is no
// longer present in snapshot, a sign the on-disk tree and the cache have
// drifted apart (e.g. a file removed outside of WriteNodes).
func (c *IndexCache) Stale(snapshot *tree.Tree) ([]string, error) {
	rows, err := c.db.Query(`SELECT filename, node_id FROM node_index`)
	if err != nil {
		return nil, fmt.Errorf("markdown: index cache stale check: %w", err)
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var filename string
		var id int64
		if err := rows.Scan(&filename, &id); err != nil {
			return nil, fmt.Errorf("markdown: index cache stale check: %w", err)
		}
		if _, ok := snapshot.Get(tree.NodeID(id)); !ok {
			stale = append(stale, filename)
		}
	}
	return stale, rows.Err()
}
