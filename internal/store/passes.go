package store

import (
	"context"
	"fmt"

	"github.com/roach88/featuregraph/internal/ir"
)

// PassSummary is a stored pass with its content hash.
type PassSummary struct {
	ir.PassRecord
	Hash string `json:"hash"`
}

// RecordPass appends a pass and its steps. Uses ON CONFLICT(token) DO NOTHING
// for idempotency - recording the same token twice keeps the first write.
func (s *Store) RecordPass(ctx context.Context, pass ir.PassRecord) error {
	hash, err := ir.PassHash(pass)
	if err != nil {
		return fmt.Errorf("record pass %s: %w", pass.Token, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record pass %s: begin tx: %w", pass.Token, err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO passes (token, document, seq, hash)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`, pass.Token, pass.Document, pass.Seq, hash)
	if err != nil {
		return fmt.Errorf("record pass %s: %w", pass.Token, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	for i, step := range pass.Steps {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO steps (token, position, object, action, outcome, reason, which)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, pass.Token, i, step.Object, step.Action, step.Outcome, step.Reason, step.Which); err != nil {
			return fmt.Errorf("record pass %s: step %d: %w", pass.Token, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record pass %s: commit: %w", pass.Token, err)
	}
	return nil
}

// ReadPasses returns the passes recorded for document, oldest first. An
// empty document name returns the passes of every document.
func (s *Store) ReadPasses(ctx context.Context, document string) ([]PassSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, document, seq, hash
		FROM passes
		WHERE ? = '' OR document = ?
		ORDER BY seq ASC, token ASC COLLATE BINARY
	`, document, document)
	if err != nil {
		return nil, fmt.Errorf("read passes: %w", err)
	}

	passes := []PassSummary{}
	for rows.Next() {
		var p PassSummary
		if err := rows.Scan(&p.Token, &p.Document, &p.Seq, &p.Hash); err != nil {
			rows.Close()
			return nil, fmt.Errorf("read passes: scan: %w", err)
		}
		passes = append(passes, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read passes: %w", err)
	}

	// Steps are read after the pass cursor is closed: the store keeps a
	// single connection.
	for i := range passes {
		steps, err := s.readSteps(ctx, passes[i].Token)
		if err != nil {
			return nil, fmt.Errorf("read passes: %s: %w", passes[i].Token, err)
		}
		passes[i].Steps = steps
	}
	return passes, nil
}

func (s *Store) readSteps(ctx context.Context, token string) ([]ir.StepRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT object, action, outcome, reason, which
		FROM steps
		WHERE token = ?
		ORDER BY position ASC
	`, token)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := []ir.StepRecord{}
	for rows.Next() {
		var st ir.StepRecord
		if err := rows.Scan(&st.Object, &st.Action, &st.Outcome, &st.Reason, &st.Which); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		steps = append(steps, st)
	}
	return steps, rows.Err()
}

// LastSeq returns the highest recorded pass seq, or 0 for an empty history.
// Engines resuming from a store start their clock here.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM passes`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}
