package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/agnivade/levenshtein"
	_ "modernc.org/sqlite"

	"github.com/lsilvatti/subgen/internal/subgenerr"
)

// TranslationStore is the optional, opt-in translation-side cache.
// Unlike VideoCache it is a single SQLite database under the user data
// root shared across videos, since translated group text is far more
// likely to repeat across projects (recurring show intros, common
// phrases) than raw audio is.
type TranslationStore struct {
	db *sql.DB
}

// OpenTranslationStore opens (creating if absent) the SQLite database at
// path in WAL mode.
func OpenTranslationStore(path string) (*TranslationStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, subgenerr.IO(path, err)
	}
	if err := db.Ping(); err != nil {
		return nil, subgenerr.IO(path, err)
	}

	schema := `
CREATE TABLE IF NOT EXISTS translations (
	text_hash TEXT NOT NULL,
	lang_pair TEXT NOT NULL,
	source_text TEXT NOT NULL,
	translated_text TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	last_used INTEGER NOT NULL,
	use_count INTEGER NOT NULL DEFAULT 1,
	UNIQUE(text_hash, lang_pair)
);
CREATE INDEX IF NOT EXISTS idx_translations_lang_pair ON translations(lang_pair);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, subgenerr.IO(path, err)
	}
	return &TranslationStore{db: db}, nil
}

func (s *TranslationStore) Close() error { return s.db.Close() }

// GetExact returns the cached translation for an exact source-text match
// under langPair.
func (s *TranslationStore) GetExact(ctx context.Context, langPair, sourceText string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT translated_text FROM translations WHERE text_hash = ? AND lang_pair = ?`,
		hashText(sourceText), langPair)
	var translated string
	if err := row.Scan(&translated); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("translation cache exact lookup: %w", err)
	}
	_, _ = s.db.ExecContext(ctx, `UPDATE translations SET last_used = ?, use_count = use_count + 1 WHERE text_hash = ? AND lang_pair = ?`,
		time.Now().Unix(), hashText(sourceText), langPair)
	return translated, true, nil
}

// candidateLimit bounds how many same-lang-pair rows GetFuzzy scans, so a
// large cache doesn't turn every miss into a full table scan.
const candidateLimit = 500

// GetFuzzy scans recent rows for langPair and returns the best
// Levenshtein-similarity match at or above threshold (0..1). threshold<=0
// disables fuzzy lookup entirely, which is the default.
func (s *TranslationStore) GetFuzzy(ctx context.Context, langPair, sourceText string, threshold float64) (string, bool, error) {
	if threshold <= 0 {
		return "", false, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_text, translated_text FROM translations WHERE lang_pair = ? ORDER BY last_used DESC LIMIT ?`,
		langPair, candidateLimit)
	if err != nil {
		return "", false, fmt.Errorf("translation cache fuzzy lookup: %w", err)
	}
	defer rows.Close()

	bestSim := 0.0
	bestTranslated := ""
	found := false
	for rows.Next() {
		var src, translated string
		if err := rows.Scan(&src, &translated); err != nil {
			return "", false, err
		}
		// Length heuristic prefilter: texts of very different length
		// cannot reach the similarity threshold, so skip the edit-distance
		// computation for them.
		if !withinLengthBudget(src, sourceText) {
			continue
		}
		sim := similarity(src, sourceText)
		if sim >= threshold && sim > bestSim {
			bestSim = sim
			bestTranslated = translated
			found = true
		}
	}
	return bestTranslated, found, rows.Err()
}

func withinLengthBudget(a, b string) bool {
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return la == lb
	}
	ratio := float64(la) / float64(lb)
	return ratio > 0.5 && ratio < 2.0
}

func similarity(a, b string) float64 {
	dist := levenshtein.ComputeDistance(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(dist)/float64(maxLen)
}

// Save upserts the translation pair, bumping use_count on conflict.
func (s *TranslationStore) Save(ctx context.Context, langPair, sourceText, translatedText string) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO translations (text_hash, lang_pair, source_text, translated_text, created_at, last_used, use_count)
VALUES (?, ?, ?, ?, ?, ?, 1)
ON CONFLICT(text_hash, lang_pair) DO UPDATE SET
	translated_text = excluded.translated_text,
	last_used = excluded.last_used,
	use_count = use_count + 1
`, hashText(sourceText), langPair, sourceText, translatedText, now, now)
	if err != nil {
		return fmt.Errorf("translation cache save: %w", err)
	}
	return nil
}
