package object

// MustExecute is an object's answer to "does a recompute pass need to run
// me?". It is queried, never stored.
type MustExecute int8

const (
	// MustExecuteNo opts out even when touched.
	MustExecuteNo MustExecute = iota

	// MustExecuteYes always runs.
	MustExecuteYes

	// MustExecuteInspect runs only if a direct dependency is touched or was
	// recomputed with a changing outcome in the same pass.
	MustExecuteInspect
)

func (m MustExecute) String() string {
	switch m {
	case MustExecuteNo:
		return "no"
	case MustExecuteYes:
		return "yes"
	case MustExecuteInspect:
		return "inspect"
	default:
		return "unknown"
	}
}

// MustExecute returns the behaviour's policy if it has one. The default is
// Yes when the object is touched or a property changed since the last purge,
// otherwise Inspect.
func (o *Object) MustExecute() MustExecute {
	if me, ok := o.behavior.(MustExecuter); ok {
		return me.MustExecute(o)
	}
	if o.IsTouched() {
		return MustExecuteYes
	}
	for _, p := range o.props {
		if p.Changed() {
			return MustExecuteYes
		}
	}
	return MustExecuteInspect
}
