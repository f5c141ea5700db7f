package object

// StatusLocker holds a status bit for the duration of a scope.
type StatusLocker struct {
	obj      *Object
	bit      StatusBit
	prev     bool
	released bool
}

// Lock sets bit on o and returns a locker that restores it. Callers defer
// Release so the bit is restored on every exit path, panics included.
func Lock(o *Object, bit StatusBit) *StatusLocker {
	l := &StatusLocker{obj: o, bit: bit, prev: o.TestStatus(bit)}
	o.SetStatus(bit, true)
	return l
}

// Release restores the bit to its value before Lock. Only the first call
// has an effect.
func (l *StatusLocker) Release() {
	if l.released {
		return
	}
	l.released = true
	l.obj.SetStatus(l.bit, l.prev)
}
