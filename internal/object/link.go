package object

import (
	"slices"

	"github.com/roach88/featuregraph/internal/ir"
)

// LinkProperty is a property whose value references other objects.
type LinkProperty interface {
	Property

	// Targets returns the referenced objects in order.
	Targets() []*Object

	// SetTargets replaces the referenced objects.
	SetTargets(targets []*Object) error

	dropTarget(lost *Object) int
}

// Link references at most one object.
type Link struct {
	propBase
	target *Object
}

// Kind returns ir.KindLink.
func (l *Link) Kind() ir.PropertyKind {
	return ir.KindLink
}

// Get returns the target, or nil.
func (l *Link) Get() *Object {
	return l.target
}

// Targets returns the target as a slice of length 0 or 1.
func (l *Link) Targets() []*Object {
	if l.target == nil {
		return nil
	}
	return []*Object{l.target}
}

// Set points the link at target. A nil target clears it. The write is
// rejected without side effects if it would close a cycle or cross
// documents.
func (l *Link) Set(target *Object) error {
	if target != nil {
		if err := l.owner.checkLinkTargets(l.name, []*Object{target}); err != nil {
			return err
		}
	}
	if l.target != nil {
		l.target.removeBackLink(l.owner)
	}
	if target != nil {
		target.addBackLink(l.owner)
	}
	l.target = target
	l.markChanged()
	return nil
}

// SetTargets implements LinkProperty.
func (l *Link) SetTargets(targets []*Object) error {
	switch len(targets) {
	case 0:
		return l.Set(nil)
	case 1:
		return l.Set(targets[0])
	default:
		return &LinkError{Object: l.owner.Name(), Property: l.name, Err: ErrTooManyTargets}
	}
}

func (l *Link) dropTarget(lost *Object) int {
	if l.target != lost || lost == nil {
		return 0
	}
	lost.removeBackLink(l.owner)
	l.target = nil
	l.markChanged()
	return 1
}

// LinkList references an ordered sequence of objects. The same target may
// appear more than once.
type LinkList struct {
	propBase
	targets []*Object
}

// Kind returns ir.KindLinkList.
func (l *LinkList) Kind() ir.PropertyKind {
	return ir.KindLinkList
}

// Targets returns a copy of the targets.
func (l *LinkList) Targets() []*Object {
	return slices.Clone(l.targets)
}

// Len returns the number of entries.
func (l *LinkList) Len() int {
	return len(l.targets)
}

// Set replaces all entries. Either every new target is accepted or nothing
// changes.
func (l *LinkList) Set(targets ...*Object) error {
	if err := l.owner.checkLinkTargets(l.name, targets); err != nil {
		return err
	}
	for _, t := range l.targets {
		t.removeBackLink(l.owner)
	}
	for _, t := range targets {
		t.addBackLink(l.owner)
	}
	l.targets = slices.Clone(targets)
	l.markChanged()
	return nil
}

// SetTargets implements LinkProperty.
func (l *LinkList) SetTargets(targets []*Object) error {
	return l.Set(targets...)
}

// Append adds target at the end.
func (l *LinkList) Append(target *Object) error {
	if err := l.owner.checkLinkTargets(l.name, []*Object{target}); err != nil {
		return err
	}
	target.addBackLink(l.owner)
	l.targets = append(l.targets, target)
	l.markChanged()
	return nil
}

// Remove deletes every entry equal to target and reports how many were
// removed. Removing an absent target is a no-op.
func (l *LinkList) Remove(target *Object) int {
	return l.dropTarget(target)
}

func (l *LinkList) dropTarget(lost *Object) int {
	kept := l.targets[:0:0]
	removed := 0
	for _, t := range l.targets {
		if t == lost {
			lost.removeBackLink(l.owner)
			removed++
			continue
		}
		kept = append(kept, t)
	}
	if removed > 0 {
		l.targets = kept
		l.markChanged()
	}
	return removed
}

// checkLinkTargets validates a link write from o before anything changes.
// The cycle guard is skipped while restoring; the document checks
// consistency once loading finished.
func (o *Object) checkLinkTargets(prop string, targets []*Object) error {
	for _, t := range targets {
		if t == nil {
			return &LinkError{Object: o.Name(), Property: prop, Err: ErrNilTarget}
		}
		if o.container == nil || t.container != o.container {
			return &LinkError{Object: o.Name(), Property: prop, Target: t.Name(), Err: ErrForeignObject}
		}
	}
	if o.IsRestoring() {
		return nil
	}
	for _, t := range targets {
		ok, err := o.TestIfLinkAcyclic(t)
		if err != nil {
			return err
		}
		if !ok {
			return &LinkError{Object: o.Name(), Property: prop, Target: t.Name(), Err: ErrLinkCycle}
		}
	}
	return nil
}

// DropLinksTo resets every link entry of o that points at lost and returns
// the number of entries removed. It is the default lost-link policy.
func (o *Object) DropLinksTo(lost *Object) int {
	n := 0
	for _, p := range o.props {
		if lp, ok := p.(LinkProperty); ok {
			n += lp.dropTarget(lost)
		}
	}
	return n
}

// ClearLinks empties every link property of o, removing its back-links from
// all targets.
func (o *Object) ClearLinks() {
	for _, p := range o.props {
		switch lp := p.(type) {
		case *Link:
			if lp.target != nil {
				lp.target.removeBackLink(o)
				lp.target = nil
				lp.markChanged()
			}
		case *LinkList:
			if len(lp.targets) > 0 {
				for _, t := range lp.targets {
					t.removeBackLink(o)
				}
				lp.targets = nil
				lp.markChanged()
			}
		}
	}
}

func (o *Object) addBackLink(from *Object) {
	o.backLinks[from]++
}

func (o *Object) removeBackLink(from *Object) {
	n, ok := o.backLinks[from]
	if !ok {
		return
	}
	if n <= 1 {
		delete(o.backLinks, from)
		return
	}
	o.backLinks[from] = n - 1
}
