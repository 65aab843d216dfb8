package controller

// inputTable holds the receiver's input names, 1-based on the wire and
// 0-based here.
//
// snapshot is the last complete table and is what a refresh is compared
// against; a refresh that reproduces it is not a change.
type inputTable struct {
	names    []string
	assigned []bool
	snapshot []string
}

// resize reallocates the table for a new input count. A complete table
// becomes the comparison snapshot; a partial one is discarded.
func (t *inputTable) resize(n int) {
	if t.complete() {
		t.snapshot = t.list()
	}
	t.names = make([]string, n)
	t.assigned = make([]bool, n)
}

// assign stores a name for a 1-based index. It reports false when the index
// is outside the table.
func (t *inputTable) assign(index int, name string) bool {
	if index < 1 || index > len(t.names) {
		return false
	}
	t.names[index-1] = name
	t.assigned[index-1] = true
	return true
}

// complete reports whether every slot of a non-empty table has a name.
func (t *inputTable) complete() bool {
	if len(t.names) == 0 {
		return false
	}
	for _, ok := range t.assigned {
		if !ok {
			return false
		}
	}
	return true
}

// changed reports whether the table differs from the snapshot in length,
// order or text.
func (t *inputTable) changed() bool {
	if len(t.names) != len(t.snapshot) {
		return true
	}
	for i := range t.names {
		if t.names[i] != t.snapshot[i] {
			return true
		}
	}
	return false
}

// commit makes the current table the comparison snapshot.
func (t *inputTable) commit() {
	t.snapshot = t.list()
}

func (t *inputTable) list() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

func (t *inputTable) name(index int) (string, bool) {
	if index < 1 || index > len(t.names) || !t.assigned[index-1] {
		return "", false
	}
	return t.names[index-1], true
}

func (t *inputTable) reset() {
	*t = inputTable{}
}
