package observe

import "github.com/randalmurphal/exprbind/pkg/exprbind/value"

// dep is one property read: obj[key] was last seen as last.
type dep struct {
	obj  any
	key  any
	last any
}

// depSet is the observation record of one evaluation. It implements
// expr.Recorder.
type depSet struct {
	deps []dep
}

// Record appends a read.
func (d *depSet) Record(obj, key, v any) {
	d.deps = append(d.deps, dep{obj: obj, key: key, last: v})
}

// changed reports whether any recorded read would now see a different
// value. A read that panics counts as a change, so the re-evaluation
// reports the failure.
func (d *depSet) changed() (dirty bool) {
	defer func() {
		if recover() != nil {
			dirty = true
		}
	}()
	for _, dp := range d.deps {
		if !value.Identical(value.Get(dp.obj, dp.key), dp.last) {
			return true
		}
	}
	return false
}

// len returns the number of recorded reads.
func (d *depSet) len() int {
	return len(d.deps)
}

// release drops every reference to the observed graph.
func (d *depSet) release() {
	d.deps = nil
}
