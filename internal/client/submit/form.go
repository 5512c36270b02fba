package submit

import (
	"fmt"
	"sync"

	"github.com/aanand-mishra/schools-api/internal/types"
	"github.com/aanand-mishra/schools-api/internal/validation"
)

// Form is the add-school draft. Every mutation re-runs the schema so the
// submit affordance can follow Valid() continuously.
type Form struct {
	schema *validation.Schema

	mu       sync.Mutex
	values   types.SchoolForm
	errs     validation.FieldErrors
	touched  map[string]bool
	dirty    bool
	fileName string
}

// NewForm returns an empty draft.
func NewForm(schema *validation.Schema) *Form {
	f := &Form{schema: schema}
	f.Reset()
	return f
}

// Set changes one text field.
func (f *Form) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.values.Set(field, value) {
		return fmt.Errorf("unknown form field %q", field)
	}
	f.touched[field] = true
	f.dirty = true
	f.revalidate()
	return nil
}

// SetImage selects the picture to upload. Only one file is kept; a
// second call replaces the first.
func (f *Form) SetImage(name string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values.SchoolImage = &types.Image{Filename: name, Data: data}
	f.fileName = name
	f.dirty = true
	f.revalidate()
}

// ClearImage drops the selected picture.
func (f *Form) ClearImage() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values.SchoolImage = nil
	f.fileName = ""
	f.dirty = true
	f.revalidate()
}

// Reset empties the draft, clears the selected file name and the dirty
// flag.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values = types.SchoolForm{}
	f.touched = map[string]bool{}
	f.dirty = false
	f.fileName = ""
	f.revalidate()
}

// Values returns a copy of the current draft.
func (f *Form) Values() types.SchoolForm {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Snapshot returns the draft together with the messages computed for
// exactly those values.
func (f *Form) Snapshot() (types.SchoolForm, validation.FieldErrors) {
	f.mu.Lock()
	defer f.mu.Unlock()

	errs := make(validation.FieldErrors, len(f.errs))
	for field, msg := range f.errs {
		errs[field] = msg
	}
	return f.values, errs
}

// Valid reports whether the whole draft passes the schema.
func (f *Form) Valid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errs) == 0
}

// Dirty reports whether anything changed since the last reset.
func (f *Form) Dirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirty
}

// SelectedFileName is the display name of the chosen image, or "".
func (f *Form) SelectedFileName() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fileName
}

// Errors returns the messages of fields the user has edited, so untouched
// inputs stay quiet.
func (f *Form) Errors() validation.FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := validation.FieldErrors{}
	for field, msg := range f.errs {
		if f.touched[field] {
			out[field] = msg
		}
	}
	return out
}

// AllErrors returns every current message, touched or not.
func (f *Form) AllErrors() validation.FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(validation.FieldErrors, len(f.errs))
	for field, msg := range f.errs {
		out[field] = msg
	}
	return out
}

// Touch marks every field as edited, e.g. after a submit attempt.
func (f *Form) Touch() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, field := range types.ScalarFields {
		f.touched[field] = true
	}
}

// revalidate is called with f.mu held.
func (f *Form) revalidate() {
	f.errs = f.schema.Validate(f.values)
}
