// Package richtext models an append-only rich text document: text runs with
// formatting and inline attachments, measured in UTF-16 code units with each
// attachment occupying exactly one unit.
package richtext

import (
	"math"

	"rtfdclip/pkg/errors"
)

// Fragment is anything that can be appended to a Document.
type Fragment interface {
	runs() []Run
}

// State of a document.
type State int

const (
	// StateEmpty is a document of length zero.
	StateEmpty State = iota
	StateNonEmpty
)

func (s State) String() string {
	if s == StateEmpty {
		return "empty"
	}
	return "non-empty"
}

// Document is an ordered, append-only sequence of runs. It is not safe for
// concurrent use; each copy operation builds its own.
type Document struct {
	items  []Run
	length int
}

// FromText creates a document seeded with one unattributed text run. An
// empty text gives an empty document.
func FromText(text string) *Document {
	return FromRun(NewTextRun(text, nil))
}

// FromRun creates a document seeded with run.
func FromRun(run Run) *Document {
	d := &Document{}
	if run.Len() > 0 {
		d.items = append(d.items, run)
		d.length = run.Len()
	}
	return d
}

// Append adds a run, or every run of another document, to the end of d.
// Runs already in d are never touched. A failure leaves d unchanged and is
// fatal for the copy in progress.
func (d *Document) Append(f Fragment) error {
	if d == nil {
		return errors.AppendError("nil document")
	}
	if f == nil {
		return errors.AppendError("nil fragment")
	}
	var add []Run
	switch v := f.(type) {
	case *Document:
		if v == nil {
			return errors.AppendError("nil source document")
		}
		add = v.runs()
	case AttachmentRun:
		if v.attachment.IsZero() {
			return errors.AppendError("attachment run without attachment")
		}
		add = v.runs()
	default:
		add = f.runs()
	}

	n := 0
	for _, r := range add {
		n += r.Len()
	}
	if n > math.MaxInt-d.length {
		return errors.AppendError("document length overflow")
	}

	for _, r := range add {
		if r.Len() == 0 {
			continue
		}
		d.items = append(d.items, r)
	}
	d.length += n
	return nil
}

// Len returns the total length in units.
func (d *Document) Len() int {
	return d.length
}

// State reports whether the document holds any units.
func (d *Document) State() State {
	if d.length == 0 {
		return StateEmpty
	}
	return StateNonEmpty
}

// Runs returns a copy of the run list in append order.
func (d *Document) Runs() []Run {
	return d.runs()
}

func (d *Document) runs() []Run {
	out := make([]Run, len(d.items))
	copy(out, d.items)
	return out
}

// AttachmentCount returns the number of attachment runs.
func (d *Document) AttachmentCount() int {
	n := 0
	for _, r := range d.items {
		if _, ok := r.(AttachmentRun); ok {
			n++
		}
	}
	return n
}

// String returns the document text with AttachmentCharacter for each
// attachment, so that its UTF-16 length equals Len.
func (d *Document) String() string {
	return JoinText(d.items, string(AttachmentCharacter))
}

// Slice returns the runs covering rng, clipping text runs at the range
// edges. Adjacent runs are never merged.
func (d *Document) Slice(rng Range) ([]Run, error) {
	if err := rng.Validate(d.length); err != nil {
		return nil, err
	}
	if rng.Location() == 0 && rng.Length() == d.length {
		return d.runs(), nil
	}

	var out []Run
	start, end := rng.Location(), rng.End()
	pos := 0
	for _, r := range d.items {
		rs, re := pos, pos+r.Len()
		pos = re
		if re <= start {
			continue
		}
		if rs >= end {
			break
		}
		switch v := r.(type) {
		case TextRun:
			from := max(start, rs) - rs
			to := min(end, re) - rs
			if from == to {
				continue
			}
			out = append(out, v.slice(from, to))
		default:
			out = append(out, r)
		}
	}
	return out, nil
}
