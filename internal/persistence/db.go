// Package persistence provides an optional SQLite sink for episode
// results. The kernel never touches it; the CLI records here after each
// rollout.
package persistence

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/tribal-village/internal/engine"
)

// DB wraps a SQLite connection for episode recording.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates the database at path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS episodes (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		seed INTEGER NOT NULL,
		steps INTEGER NOT NULL,
		live_agents INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS team_scores (
		episode_id TEXT NOT NULL,
		team INTEGER NOT NULL,
		territory INTEGER NOT NULL,
		PRIMARY KEY (episode_id, team)
	);

	CREATE TABLE IF NOT EXISTS agent_stats (
		episode_id TEXT NOT NULL,
		agent_id INTEGER NOT NULL,
		invalid INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		respawns INTEGER NOT NULL,
		kills INTEGER NOT NULL,
		reward REAL NOT NULL,
		PRIMARY KEY (episode_id, agent_id)
	);`
	_, err := db.conn.Exec(schema)
	return err
}

// EpisodeRow summarizes one finished rollout.
type EpisodeRow struct {
	ID         string `db:"id"`
	StartedAt  string `db:"started_at"`
	Seed       int64  `db:"seed"`
	Steps      int64  `db:"steps"`
	LiveAgents int64  `db:"live_agents"`
}

// RecordEpisode stores an episode summary plus per-team and per-agent
// rows. totalRewards holds each agent's episode reward sum (the env's
// reward buffer is per-tick).
func (db *DB) RecordEpisode(env *engine.Env, seed uint64, totalRewards []float32) (string, error) {
	id := uuid.NewString()

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	live := 0
	for _, t := range env.Terminated() {
		if t == 0 {
			live++
		}
	}
	_, err = tx.Exec(
		`INSERT INTO episodes (id, started_at, seed, steps, live_agents) VALUES (?, ?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), int64(seed), int64(env.CurrentStep()), int64(live),
	)
	if err != nil {
		return "", fmt.Errorf("insert episode: %w", err)
	}

	for team, score := range env.TerritoryScores() {
		if _, err := tx.Exec(
			`INSERT INTO team_scores (episode_id, team, territory) VALUES (?, ?, ?)`,
			id, team, int64(score),
		); err != nil {
			return "", fmt.Errorf("insert team score: %w", err)
		}
	}

	stmt, err := tx.Preparex(
		`INSERT INTO agent_stats (episode_id, agent_id, invalid, deaths, respawns, kills, reward)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare stats: %w", err)
	}
	for agentID, st := range env.Stats() {
		var reward float64
		if agentID < len(totalRewards) {
			reward = float64(totalRewards[agentID])
		}
		if _, err := stmt.Exec(
			id, agentID, int64(st.Invalid), int64(st.Deaths),
			int64(st.Respawns), int64(st.Kills), reward,
		); err != nil {
			return "", fmt.Errorf("insert stats: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// Episodes lists recorded episode summaries, newest first.
func (db *DB) Episodes(limit int) ([]EpisodeRow, error) {
	var rows []EpisodeRow
	err := db.conn.Select(&rows,
		`SELECT id, started_at, seed, steps, live_agents FROM episodes
		 ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select episodes: %w", err)
	}
	return rows, nil
}
