package formstate

import "github.com/vk/jsonform/keypath"

// Documents is the mutable view of the three state documents handed to
// Provider.Update. The keypath document functions are copy-on-write, so the
// maps held here are never modified in place.
type Documents struct {
	Values  map[string]any
	Touched map[string]any
	Errors  map[string]any
}

// Set stores v in the values document.
func (d *Documents) Set(p keypath.Path, v any) {
	d.Values = root(keypath.Set(d.Values, p, v))
}

// SetTouched stores the touched flag of p.
func (d *Documents) SetTouched(p keypath.Path, touched bool) {
	if touched {
		d.Touched = root(keypath.Set(d.Touched, p, true))
		return
	}
	d.Touched = root(keypath.Delete(d.Touched, p))
}

// SetError stores the error of p. An empty msg clears it.
func (d *Documents) SetError(p keypath.Path, msg string) {
	if msg == "" {
		d.Errors = root(keypath.Delete(d.Errors, p))
		return
	}
	d.Errors = root(keypath.Set(d.Errors, p, msg))
}

// Reset clears value, touched and error at p.
func (d *Documents) Reset(p keypath.Path) {
	d.Values = root(keypath.Delete(d.Values, p))
	d.Touched = root(keypath.Delete(d.Touched, p))
	d.Errors = root(keypath.Delete(d.Errors, p))
}

// Insert inserts v into the values list at p before index. The touched and
// errors documents receive a nil placeholder at the same position only when
// they already hold a list at p that reaches index.
func (d *Documents) Insert(p keypath.Path, index int, v any) {
	d.Values = root(keypath.Insert(d.Values, p, index, v))
	if n := keypath.Len(d.Touched, p); n >= 0 && index <= n {
		d.Touched = root(keypath.Insert(d.Touched, p, index, nil))
	}
	if n := keypath.Len(d.Errors, p); n >= 0 && index <= n {
		d.Errors = root(keypath.Insert(d.Errors, p, index, nil))
	}
}

// RemoveAt removes position index of the list at p from all three documents.
func (d *Documents) RemoveAt(p keypath.Path, index int) {
	d.Values = root(keypath.RemoveAt(d.Values, p, index))
	d.Touched = root(keypath.RemoveAt(d.Touched, p, index))
	d.Errors = root(keypath.RemoveAt(d.Errors, p, index))
}

// root narrows a document returned by the keypath functions to the object
// form every state document has at its root.
func root(doc any) map[string]any {
	m, _ := doc.(map[string]any)
	return m
}
