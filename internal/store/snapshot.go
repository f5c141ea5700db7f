package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/featuregraph/internal/ir"
)

var (
	// ErrNotFound is returned when no snapshot is stored under a name.
	ErrNotFound = errors.New("snapshot not found")

	// ErrChecksumMismatch is returned when a stored snapshot no longer
	// matches the checksum written with it.
	ErrChecksumMismatch = errors.New("snapshot checksum mismatch")
)

// DocumentInfo summarizes a stored snapshot.
type DocumentInfo struct {
	Name     string `json:"name"`
	Checksum string `json:"checksum"`
	Objects  int    `json:"objects"`
}

// SaveSnapshot stores snap under its name, replacing any previous snapshot
// of the same document in one transaction. Returns the checksum written.
func (s *Store) SaveSnapshot(ctx context.Context, snap ir.DocumentSnapshot) (string, error) {
	checksum, err := ir.SnapshotHash(snap)
	if err != nil {
		return "", fmt.Errorf("save snapshot %s: %w", snap.Name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save snapshot %s: begin tx: %w", snap.Name, err)
	}
	defer tx.Rollback() // No-op if committed

	// Cascades to objects, properties and links.
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, snap.Name); err != nil {
		return "", fmt.Errorf("save snapshot %s: %w", snap.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (name, checksum, objects) VALUES (?, ?, ?)
	`, snap.Name, checksum, len(snap.Objects)); err != nil {
		return "", fmt.Errorf("save snapshot %s: %w", snap.Name, err)
	}

	for pos, obj := range snap.Objects {
		if err := writeObject(ctx, tx, snap.Name, pos, obj); err != nil {
			return "", fmt.Errorf("save snapshot %s: object %s: %w", snap.Name, obj.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save snapshot %s: commit: %w", snap.Name, err)
	}
	return checksum, nil
}

func writeObject(ctx context.Context, tx *sql.Tx, document string, pos int, obj ir.ObjectRecord) error {
	var reason, which sql.NullString
	if obj.Error != nil {
		reason = sql.NullString{String: obj.Error.Reason, Valid: true}
		which = sql.NullString{String: obj.Error.Which, Valid: true}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO objects (document, name, position, type, label, status, error_reason, error_which)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, document, obj.Name, pos, obj.Type, obj.Label, obj.Status, reason, which); err != nil {
		return err
	}

	for i, p := range obj.Properties {
		value, err := marshalValue(p.Value)
		if err != nil {
			return fmt.Errorf("property %s: %w", p.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO properties (document, object, name, position, kind, value)
			VALUES (?, ?, ?, ?, ?, ?)
		`, document, obj.Name, p.Name, i, string(p.Kind), value); err != nil {
			return err
		}
	}

	for i, l := range obj.Links {
		targets, err := marshalTargets(l.Targets)
		if err != nil {
			return fmt.Errorf("link %s: %w", l.Property, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO links (document, object, property, position, kind, targets)
			VALUES (?, ?, ?, ?, ?, ?)
		`, document, obj.Name, l.Property, i, string(l.Kind), targets); err != nil {
			return err
		}
	}
	return nil
}

// LoadSnapshot reads the snapshot stored under name and verifies its
// checksum.
func (s *Store) LoadSnapshot(ctx context.Context, name string) (ir.DocumentSnapshot, error) {
	snap := ir.DocumentSnapshot{Name: name, Objects: []ir.ObjectRecord{}}

	var checksum string
	err := s.db.QueryRowContext(ctx, `SELECT checksum FROM documents WHERE name = ?`, name).Scan(&checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, fmt.Errorf("load snapshot %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return snap, fmt.Errorf("load snapshot %s: %w", name, err)
	}

	objects, index, err := s.readObjects(ctx, name)
	if err != nil {
		return snap, fmt.Errorf("load snapshot %s: %w", name, err)
	}
	if err := s.readProperties(ctx, name, objects, index); err != nil {
		return snap, fmt.Errorf("load snapshot %s: %w", name, err)
	}
	if err := s.readLinks(ctx, name, objects, index); err != nil {
		return snap, fmt.Errorf("load snapshot %s: %w", name, err)
	}
	snap.Objects = objects

	got, err := ir.SnapshotHash(snap)
	if err != nil {
		return snap, fmt.Errorf("load snapshot %s: %w", name, err)
	}
	if got != checksum {
		return snap, fmt.Errorf("load snapshot %s: stored %s, computed %s: %w", name, checksum, got, ErrChecksumMismatch)
	}
	return snap, nil
}

func (s *Store) readObjects(ctx context.Context, document string) ([]ir.ObjectRecord, map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, type, label, status, error_reason, error_which
		FROM objects
		WHERE document = ?
		ORDER BY position ASC
	`, document)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	objects := []ir.ObjectRecord{}
	index := make(map[string]int)
	for rows.Next() {
		var (
			obj           ir.ObjectRecord
			reason, which sql.NullString
		)
		if err := rows.Scan(&obj.Name, &obj.Type, &obj.Label, &obj.Status, &reason, &which); err != nil {
			return nil, nil, fmt.Errorf("scan object: %w", err)
		}
		if reason.Valid {
			obj.Error = &ir.ErrorRecord{Reason: reason.String, Which: which.String}
		}
		obj.Properties = []ir.PropertyRecord{}
		obj.Links = []ir.LinkRecord{}
		index[obj.Name] = len(objects)
		objects = append(objects, obj)
	}
	return objects, index, rows.Err()
}

func (s *Store) readProperties(ctx context.Context, document string, objects []ir.ObjectRecord, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT object, name, kind, value
		FROM properties
		WHERE document = ?
		ORDER BY object ASC, position ASC
	`, document)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var object, name, kind, value string
		if err := rows.Scan(&object, &name, &kind, &value); err != nil {
			return fmt.Errorf("scan property: %w", err)
		}
		v, err := unmarshalValue(ir.PropertyKind(kind), value)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", object, name, err)
		}
		i := index[object]
		objects[i].Properties = append(objects[i].Properties, ir.PropertyRecord{
			Name:  name,
			Kind:  ir.PropertyKind(kind),
			Value: v,
		})
	}
	return rows.Err()
}

func (s *Store) readLinks(ctx context.Context, document string, objects []ir.ObjectRecord, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT object, property, kind, targets
		FROM links
		WHERE document = ?
		ORDER BY object ASC, position ASC
	`, document)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var object, property, kind, data string
		if err := rows.Scan(&object, &property, &kind, &data); err != nil {
			return fmt.Errorf("scan link: %w", err)
		}
		targets, err := unmarshalTargets(data)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", object, property, err)
		}
		i := index[object]
		objects[i].Links = append(objects[i].Links, ir.LinkRecord{
			Property: property,
			Kind:     ir.PropertyKind(kind),
			Targets:  targets,
		})
	}
	return rows.Err()
}

// ListDocuments returns every stored snapshot, ordered by name.
func (s *Store) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, checksum, objects
		FROM documents
		ORDER BY name ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []DocumentInfo{}
	for rows.Next() {
		var d DocumentInfo
		if err := rows.Scan(&d.Name, &d.Checksum, &d.Objects); err != nil {
			return nil, fmt.Errorf("list documents: scan: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// DeleteSnapshot removes the snapshot stored under name. Pass history is
// kept.
func (s *Store) DeleteSnapshot(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete snapshot %s: %w", name, ErrNotFound)
	}
	return nil
}
