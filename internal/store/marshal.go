package store

import (
	"fmt"

	"github.com/travisjeffery/writegood/internal/doc"
	"github.com/travisjeffery/writegood/internal/session"
)

// versionRow holds the column values derived from a version.
type versionRow struct {
	content   string
	selection string
	text      string
	hash      string
}

// encodeVersion converts a version's tree and selection to canonical JSON
// TEXT for storage, along with its plain text and content hash.
func encodeVersion(v session.Version) (versionRow, error) {
	if v.Doc == nil {
		return versionRow{}, fmt.Errorf("version %q has no document", v.ID)
	}

	content, err := doc.Encode(v.Doc)
	if err != nil {
		return versionRow{}, fmt.Errorf("marshal content: %w", err)
	}

	sel, err := doc.EncodeSelection(v.Selection)
	if err != nil {
		return versionRow{}, fmt.Errorf("marshal selection: %w", err)
	}

	hash, err := doc.Hash(v.Doc)
	if err != nil {
		return versionRow{}, err
	}

	return versionRow{
		content:   string(content),
		selection: string(sel),
		text:      doc.PlainText(v.Doc),
		hash:      hash,
	}, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (Document, error) {
	var d Document
	var content, sel string
	if err := row.Scan(
		&d.ID,
		&d.Title,
		&content,
		&sel,
		&d.Text,
		&d.Hash,
		&d.VersionID,
		&d.VersionSeq,
	); err != nil {
		return Document{}, err
	}

	tree, err := doc.Decode([]byte(content))
	if err != nil {
		return Document{}, fmt.Errorf("unmarshal content of %q: %w", d.ID, err)
	}
	d.Doc = tree

	selection, err := doc.DecodeSelection([]byte(sel))
	if err != nil {
		return Document{}, fmt.Errorf("unmarshal selection of %q: %w", d.ID, err)
	}
	d.Selection = selection

	return d, nil
}
