package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/session"
)

// LogType classifies a document log entry.
type LogType string

const (
	LogCreate LogType = "create"
	LogUpdate LogType = "update"
)

// Document is the latest persisted version of a document.
type Document struct {
	ID         string
	Title      string
	Doc        *doc.Document
	Selection  doc.Selection
	Text       string
	Hash       string
	VersionID  string
	VersionSeq uint64
}

// Log is one entry in a document's change history.
//
// Diffs transform the previous entry's Text into this entry's Text. The
// first entry diffs against the empty string.
type Log struct {
	ID         int64
	DocumentID string
	Seq        int64
	Type       LogType
	Source     string
	VersionID  string
	VersionSeq uint64
	Text       string
	Diffs      []diffmatchpatch.Diff
	DiffsHTML  string
	Hash       string
}

// CreateDocument stores v as the first version of a new document and writes
// its create log entry. Returns DuplicateDocumentError if id is taken.
func (s *Store) CreateDocument(ctx context.Context, id, title string, v session.Version) (Document, error) {
	row, err := encodeVersion(v)
	if err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, fmt.Errorf("create document: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op after Commit

	result, err := tx.ExecContext(ctx, `
		INSERT INTO documents
		(id, title, content, selection, text, hash, version_id, version_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		id,
		title,
		row.content,
		row.selection,
		row.text,
		row.hash,
		v.ID,
		v.Seq,
	)
	if err != nil {
		return Document{}, fmt.Errorf("create document: insert: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return Document{}, fmt.Errorf("create document: rows affected: %w", err)
	}
	// DO NOTHING leaves the existing row alone; zero rows means the id is taken.
	if n == 0 {
		return Document{}, &DuplicateDocumentError{ID: id}
	}

	if _, err := insertLog(ctx, tx, id, 1, LogCreate, "", v, "", row); err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Document{}, fmt.Errorf("create document: commit: %w", err)
	}

	return Document{
		ID:         id,
		Title:      title,
		Doc:        v.Doc,
		Selection:  v.Selection,
		Text:       row.text,
		Hash:       row.hash,
		VersionID:  v.ID,
		VersionSeq: v.Seq,
	}, nil
}

// SaveVersion makes v the latest version of document id and appends an
// update log entry diffed against the previous text.
// Returns NotFoundError if the document does not exist.
func (s *Store) SaveVersion(ctx context.Context, id string, source session.Source, v session.Version) (Log, error) {
	row, err := encodeVersion(v)
	if err != nil {
		return Log{}, fmt.Errorf("save version: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Log{}, fmt.Errorf("save version: begin tx: %w", err)
	}
	defer tx.Rollback()

	// Previous text and last log seq in one read, inside the transaction, so
	// the diff base and the new seq come from the same snapshot.
	var prevText string
	var lastSeq int64
	err = tx.QueryRowContext(ctx, `
		SELECT d.text, COALESCE(MAX(l.seq), 0)
		FROM documents d
		LEFT JOIN document_logs l ON l.document_id = d.id
		WHERE d.id = ?
		GROUP BY d.id
	`, id).Scan(&prevText, &lastSeq)
	if errors.Is(err, sql.ErrNoRows) {
		return Log{}, &NotFoundError{ID: id}
	}
	if err != nil {
		return Log{}, fmt.Errorf("save version: read current: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE documents
		SET content = ?, selection = ?, text = ?, hash = ?, version_id = ?, version_seq = ?
		WHERE id = ?
	`,
		row.content,
		row.selection,
		row.text,
		row.hash,
		v.ID,
		v.Seq,
		id,
	)
	if err != nil {
		return Log{}, fmt.Errorf("save version: update document: %w", err)
	}

	entry, err := insertLog(ctx, tx, id, lastSeq+1, LogUpdate, string(source), v, prevText, row)
	if err != nil {
		return Log{}, fmt.Errorf("save version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Log{}, fmt.Errorf("save version: commit: %w", err)
	}

	return entry, nil
}

// SaveSelection records a selection-only change. No log entry is written.
func (s *Store) SaveSelection(ctx context.Context, id string, v session.Version) error {
	sel, err := doc.EncodeSelection(v.Selection)
	if err != nil {
		return fmt.Errorf("save selection: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET selection = ?, version_id = ?, version_seq = ?
		WHERE id = ?
	`, string(sel), v.ID, v.Seq, id)
	if err != nil {
		return fmt.Errorf("save selection: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save selection: rows affected: %w", err)
	}
	if n == 0 {
		return &NotFoundError{ID: id}
	}
	return nil
}

// Document retrieves the latest version of a document.
// Returns NotFoundError if it does not exist.
func (s *Store) Document(ctx context.Context, id string) (Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, content, selection, text, hash, version_id, version_seq
		FROM documents
		WHERE id = ?
	`, id)

	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, &NotFoundError{ID: id}
	}
	if err != nil {
		return Document{}, fmt.Errorf("read document: %w", err)
	}
	return d, nil
}

// Documents returns every stored document ordered by id.
// Returns an empty slice (not nil) if there are none.
func (s *Store) Documents(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, selection, text, hash, version_id, version_seq
		FROM documents
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// Logs returns the change history of a document ordered by seq.
// Returns NotFoundError if the document does not exist.
func (s *Store) Logs(ctx context.Context, id string) ([]Log, error) {
	if _, err := s.Document(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, seq, type, source, version_id, version_seq, text, diffs, diffs_html, hash
		FROM document_logs
		WHERE document_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	dmp := diffmatchpatch.New()
	logs := []Log{}
	prev := ""
	for rows.Next() {
		var l Log
		var logType, delta string
		if err := rows.Scan(
			&l.ID,
			&l.DocumentID,
			&l.Seq,
			&logType,
			&l.Source,
			&l.VersionID,
			&l.VersionSeq,
			&l.Text,
			&delta,
			&l.DiffsHTML,
			&l.Hash,
		); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		l.Type = LogType(logType)

		diffs, err := dmp.DiffFromDelta(prev, delta)
		if err != nil {
			return nil, fmt.Errorf("decode diffs for log %d: %w", l.Seq, err)
		}
		l.Diffs = diffs
		prev = l.Text
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate logs: %w", err)
	}
	return logs, nil
}

// DeleteDocument removes a document and its logs.
// Returns NotFoundError if it does not exist.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: rows affected: %w", err)
	}
	if n == 0 {
		return &NotFoundError{ID: id}
	}
	return nil
}

func insertLog(
	ctx context.Context,
	tx *sql.Tx,
	id string,
	seq int64,
	logType LogType,
	source string,
	v session.Version,
	prevText string,
	row versionRow,
) (Log, error) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(prevText, row.text, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	html := dmp.DiffPrettyHtml(diffs)

	result, err := tx.ExecContext(ctx, `
		INSERT INTO document_logs
		(document_id, seq, type, source, version_id, version_seq, text, diffs, diffs_html, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		seq,
		string(logType),
		source,
		v.ID,
		v.Seq,
		row.text,
		dmp.DiffToDelta(diffs),
		html,
		row.hash,
	)
	if err != nil {
		return Log{}, fmt.Errorf("insert log: %w", err)
	}

	logID, err := result.LastInsertId()
	if err != nil {
		return Log{}, fmt.Errorf("insert log: last insert id: %w", err)
	}

	return Log{
		ID:         logID,
		DocumentID: id,
		Seq:        seq,
		Type:       logType,
		Source:     source,
		VersionID:  v.ID,
		VersionSeq: v.Seq,
		Text:       row.text,
		Diffs:      diffs,
		DiffsHTML:  html,
		Hash:       row.hash,
	}, nil
}
