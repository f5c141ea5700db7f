package document

import (
	"fmt"

	"github.com/roach88/featuregraph/internal/ir"
	"github.com/roach88/featuregraph/internal/object"
)

// Snapshot captures the document for persistence. Only the Error and Expand
// bits of each object's status are recorded.
func (d *Document) Snapshot() ir.DocumentSnapshot {
	snap := ir.DocumentSnapshot{
		Name:    d.name,
		Objects: make([]ir.ObjectRecord, 0, len(d.order)),
	}
	for _, o := range d.order {
		rec := ir.ObjectRecord{
			Name:       o.Name(),
			Type:       o.Type(),
			Label:      o.Label(),
			Status:     uint32(o.Status().Baseline()),
			Properties: []ir.PropertyRecord{},
			Links:      []ir.LinkRecord{},
		}
		if e := o.ExecError(); e != nil && o.IsError() {
			rec.Error = &ir.ErrorRecord{Reason: e.Reason, Which: e.Which}
		}
		for _, p := range o.Properties() {
			switch prop := p.(type) {
			case object.LinkProperty:
				targets := make([]string, 0)
				for _, t := range prop.Targets() {
					targets = append(targets, t.Name())
				}
				rec.Links = append(rec.Links, ir.LinkRecord{
					Property: prop.Name(),
					Kind:     prop.Kind(),
					Targets:  targets,
				})
			case object.ValueProperty:
				rec.Properties = append(rec.Properties, ir.PropertyRecord{
					Name:  prop.Name(),
					Kind:  prop.Kind(),
					Value: prop.Value(),
				})
			}
		}
		snap.Objects = append(snap.Objects, rec)
	}
	return snap
}

// Restore rebuilds a document from snap. Objects are created through reg and
// filled under the Restore status, so nothing is touched and link writes skip
// the cycle guard. Once every OnDocumentRestored hook has run, each object's
// status is reset to its persisted baseline and the whole graph is checked
// with CheckConsistency.
func Restore(snap ir.DocumentSnapshot, reg *Registry, opts ...Option) (*Document, error) {
	d := New(snap.Name, reg, opts...)

	var locks []*object.StatusLocker
	releaseAll := func() {
		for _, l := range locks {
			l.Release()
		}
		locks = nil
	}
	defer releaseAll()

	objs := make([]*object.Object, len(snap.Objects))
	for i, rec := range snap.Objects {
		o, err := reg.Build(rec.Type)
		if err != nil {
			return nil, fmt.Errorf("restore %s: %w", rec.Name, err)
		}
		locks = append(locks, object.Lock(o, object.StatusRestore))
		o.SetLabel(rec.Label)
		if err := d.insert(o, rec.Name); err != nil {
			return nil, fmt.Errorf("restore: %w", err)
		}
		for _, pr := range rec.Properties {
			vp, ok := o.Property(pr.Name).(object.ValueProperty)
			if !ok {
				return nil, fmt.Errorf("restore %s.%s: %w", rec.Name, pr.Name, ErrUnknownProperty)
			}
			if pr.Value == nil {
				continue
			}
			if err := vp.SetValue(pr.Value); err != nil {
				return nil, fmt.Errorf("restore %s: %w", rec.Name, err)
			}
		}
		objs[i] = o
	}

	for i, rec := range snap.Objects {
		o := objs[i]
		for _, lr := range rec.Links {
			lp, ok := o.Property(lr.Property).(object.LinkProperty)
			if !ok {
				return nil, fmt.Errorf("restore %s.%s: %w", rec.Name, lr.Property, ErrUnknownProperty)
			}
			targets := make([]*object.Object, len(lr.Targets))
			for j, name := range lr.Targets {
				t, err := d.Lookup(name)
				if err != nil {
					return nil, fmt.Errorf("restore %s.%s: %w", rec.Name, lr.Property, err)
				}
				targets[j] = t
			}
			if err := lp.SetTargets(targets); err != nil {
				return nil, fmt.Errorf("restore: %w", err)
			}
		}
	}

	for _, o := range objs {
		o.OnDocumentRestored()
	}
	releaseAll()

	for i, rec := range snap.Objects {
		o := objs[i]
		o.PurgeTouched()
		o.PurgeError()
		o.RestoreStatus(object.Status(rec.Status))
		if rec.Error != nil {
			o.SetExecError(rec.Error.Reason, rec.Error.Which)
		}
	}

	if err := d.CheckConsistency(); err != nil {
		return nil, fmt.Errorf("restore %s: %w", snap.Name, err)
	}
	d.logger.Debug("document restored", "document", d.name, "objects", d.Len())
	return d, nil
}
