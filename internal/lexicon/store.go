package lexicon

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS words (
	id    INTEGER PRIMARY KEY,
	word  TEXT NOT NULL UNIQUE,
	count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS pos (
	id    INTEGER PRIMARY KEY,
	label TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS templates (
	id    INTEGER PRIMARY KEY,
	label TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS allowed (
	pos_id      INTEGER NOT NULL REFERENCES pos(id),
	template_id INTEGER NOT NULL REFERENCES templates(id),
	PRIMARY KEY (pos_id, template_id)
);`

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("lexicon: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("lexicon: exec schema: %w", err)
	}
	return db, nil
}

// Save writes l to the SQLite database at path, replacing its contents.
func (l *Lexicon) Save(ctx context.Context, path string) error {
	db, err := openDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("lexicon: begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"allowed", "words", "pos", "templates", "settings"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("lexicon: clear %s: %w", table, err)
		}
	}

	settings := map[string]string{
		"to_num":   strconv.FormatBool(l.Options.ToNum),
		"to_lower": strconv.FormatBool(l.Options.ToLower),
	}
	for k, v := range settings {
		if _, err := tx.ExecContext(ctx, "INSERT INTO settings (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("lexicon: insert setting %s: %w", k, err)
		}
	}
	for id, w := range l.Words.values {
		if _, err := tx.ExecContext(ctx, "INSERT INTO words (id, word, count) VALUES (?, ?, ?)", id, w, l.counts[w]); err != nil {
			return fmt.Errorf("lexicon: insert word %q: %w", w, err)
		}
	}
	for id, p := range l.POS.values {
		if _, err := tx.ExecContext(ctx, "INSERT INTO pos (id, label) VALUES (?, ?)", id, p); err != nil {
			return fmt.Errorf("lexicon: insert pos %q: %w", p, err)
		}
	}
	for id, t := range l.Templates.values {
		if _, err := tx.ExecContext(ctx, "INSERT INTO templates (id, label) VALUES (?, ?)", id, t); err != nil {
			return fmt.Errorf("lexicon: insert template %q: %w", t, err)
		}
	}
	for p, set := range l.allowed {
		for t := range set {
			if _, err := tx.ExecContext(ctx, "INSERT INTO allowed (pos_id, template_id) VALUES (?, ?)", p, t); err != nil {
				return fmt.Errorf("lexicon: insert allowed %d/%d: %w", p, t, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("lexicon: commit: %w", err)
	}
	return nil
}

// Open loads a lexicon written by Save.
func Open(ctx context.Context, path string) (*Lexicon, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	lex := newLexicon(DefaultOptions)

	rows, err := db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("lexicon: query settings: %w", err)
	}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			rows.Close()
			return nil, fmt.Errorf("lexicon: scan setting: %w", err)
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("lexicon: setting %s: %w", k, err)
		}
		switch k {
		case "to_num":
			lex.Options.ToNum = b
		case "to_lower":
			lex.Options.ToLower = b
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lexicon: settings: %w", err)
	}

	if err := loadDict(ctx, db, "SELECT word, count FROM words ORDER BY id", func(rows *sql.Rows) error {
		var w string
		var n int
		if err := rows.Scan(&w, &n); err != nil {
			return err
		}
		lex.Words.Convert(w)
		if n > 0 {
			lex.counts[w] = n
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("lexicon: words: %w", err)
	}
	if err := loadDict(ctx, db, "SELECT label FROM pos ORDER BY id", func(rows *sql.Rows) error {
		var p string
		if err := rows.Scan(&p); err != nil {
			return err
		}
		lex.POS.Convert(p)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("lexicon: pos: %w", err)
	}
	if err := loadDict(ctx, db, "SELECT label FROM templates ORDER BY id", func(rows *sql.Rows) error {
		var t string
		if err := rows.Scan(&t); err != nil {
			return err
		}
		lex.Templates.Convert(t)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("lexicon: templates: %w", err)
	}
	if err := loadDict(ctx, db, "SELECT pos_id, template_id FROM allowed", func(rows *sql.Rows) error {
		var p, t int
		if err := rows.Scan(&p, &t); err != nil {
			return err
		}
		lex.allow(p, t)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("lexicon: allowed: %w", err)
	}
	return lex, nil
}

func loadDict(ctx context.Context, db *sql.DB, query string, scan func(*sql.Rows) error) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
