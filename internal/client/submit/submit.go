// Package submit turns a valid add-school draft into exactly one
// multipart POST to /api/schools.
package submit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"sync/atomic"

	"github.com/aanand-mishra/schools-api/internal/client/api"
	"github.com/aanand-mishra/schools-api/internal/types"
)

// MsgSubmitFailed is shown when the request never got an answer.
const MsgSubmitFailed = "Error adding school. Please try again."

var (
	// ErrInvalidDraft is returned when Submit is called on a draft that
	// fails validation. Nothing is sent.
	ErrInvalidDraft = errors.New("submit: draft is not valid")
	// ErrInFlight is returned when another Submit has not finished yet.
	ErrInFlight = errors.New("submit: a submission is already in progress")
)

// Creator sends an encoded form. *api.Client satisfies it.
type Creator interface {
	CreateSchool(ctx context.Context, body io.Reader, contentType string) (int64, error)
}

// Navigator moves the user on after a successful submit.
type Navigator interface {
	ToListing(ctx context.Context)
}

// Notifier surfaces a non-blocking failure notice.
type Notifier interface {
	Alert(msg string)
}

// Pipeline submits one Form.
type Pipeline struct {
	form    *Form
	creator Creator
	nav     Navigator
	notify  Notifier

	submitting atomic.Bool
}

// New wires a pipeline. nav and notify may be nil.
func New(form *Form, creator Creator, nav Navigator, notify Notifier) *Pipeline {
	return &Pipeline{form: form, creator: creator, nav: nav, notify: notify}
}

// Form returns the draft being submitted.
func (p *Pipeline) Form() *Form { return p.form }

// Submitting reports whether a request is in flight.
func (p *Pipeline) Submitting() bool { return p.submitting.Load() }

// CanSubmit is the state of the submit affordance.
func (p *Pipeline) CanSubmit() bool {
	return p.form.Valid() && !p.submitting.Load()
}

// Submit validates, encodes and POSTs the draft.
//
// On success the draft is reset and the navigator is sent to the listing.
// On any failure the draft is kept so the user can retry, and the
// notifier gets either the server's message or MsgSubmitFailed.
func (p *Pipeline) Submit(ctx context.Context) (int64, error) {
	if !p.submitting.CompareAndSwap(false, true) {
		return 0, ErrInFlight
	}
	defer p.submitting.Store(false)

	values, errs := p.form.Snapshot()
	if len(errs) > 0 {
		p.form.Touch()
		return 0, fmt.Errorf("%w: %s", ErrInvalidDraft, errs.Error())
	}

	body, contentType, err := Encode(values)
	if err != nil {
		return 0, fmt.Errorf("submit: encode form: %w", err)
	}

	id, err := p.creator.CreateSchool(ctx, body, contentType)
	if err != nil {
		slog.Error("error submitting form", slog.String("error", err.Error()))
		p.alert(failureMessage(err))
		return 0, err
	}

	p.form.Reset()
	if p.nav != nil {
		p.nav.ToListing(ctx)
	}
	return id, nil
}

func (p *Pipeline) alert(msg string) {
	if p.notify != nil {
		p.notify.Alert(msg)
	}
}

func failureMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return "Error adding school: " + apiErr.Message
	}
	return MsgSubmitFailed
}

// Encode writes one text part per scalar field and, if an image was
// chosen, one schoolImage file part.
func Encode(form types.SchoolForm) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, field := range types.ScalarFields {
		if err := mw.WriteField(field, form.Get(field)); err != nil {
			return nil, "", err
		}
	}

	if img := form.SchoolImage; img != nil {
		part, err := mw.CreateFormFile(types.FieldSchoolImage, img.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
