package engine

// KeyTracker tells object keys apart from string values for decoders whose
// token streams report both as plain strings.
type KeyTracker struct {
	// expectingKey per open container; arrays never expect keys.
	stack []bool
	obj   []bool
}

// Push opens a container.
func (k *KeyTracker) Push(object bool) {
	k.Value()
	k.stack = append(k.stack, object)
	k.obj = append(k.obj, object)
}

// Pop closes the innermost container.
func (k *KeyTracker) Pop() {
	if n := len(k.stack); n > 0 {
		k.stack = k.stack[:n-1]
		k.obj = k.obj[:n-1]
	}
}

// TakeKey reports whether the next string is a key and flips the frame to
// expect a value.
func (k *KeyTracker) TakeKey() bool {
	n := len(k.stack)
	if n > 0 && k.obj[n-1] && k.stack[n-1] {
		k.stack[n-1] = false
		return true
	}
	k.Value()
	return false
}

// Value marks the pending member value of the enclosing object as consumed.
func (k *KeyTracker) Value() {
	if n := len(k.stack); n > 0 && k.obj[n-1] {
		k.stack[n-1] = true
	}
}
