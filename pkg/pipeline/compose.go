package pipeline

import (
	stderrors "errors"

	"rtfdclip/pkg/clipboard"
	"rtfdclip/pkg/errors"
	"rtfdclip/pkg/logger"
	"rtfdclip/pkg/richtext"
	"rtfdclip/pkg/serializer"
)

type ComposeOptions struct {
	// Range defaults to the whole document.
	Range *richtext.Range
	// Attributes are passed to both conversions.
	Attributes richtext.DocumentAttributes
	// SkipRTFD leaves out the RTFD payload, for targets that only read RTF.
	SkipRTFD bool
}

// Compose serializes doc into every clipboard format. A format whose
// conversion fails is logged and left out; plain text is always present.
// Out-of-range requests and fatal errors are returned unchanged.
func Compose(doc *richtext.Document, ser *serializer.Serializer, opts ComposeOptions) (*clipboard.Item, error) {
	if doc == nil {
		return nil, errors.ValidationError("nothing to copy")
	}
	rng := richtext.FullRange(doc)
	if opts.Range != nil {
		rng = *opts.Range
	}
	if err := rng.Validate(doc.Len()); err != nil {
		return nil, err
	}

	item := &clipboard.Item{}
	if !opts.SkipRTFD {
		data, err := payload(ser.ToRTFD(doc, rng, opts.Attributes))
		if err != nil {
			return nil, err
		}
		item.RTFD = data
	}
	data, err := payload(ser.ToRTF(doc, rng, opts.Attributes))
	if err != nil {
		return nil, err
	}
	item.RTF = data

	plain, err := ser.PlainTextRange(doc, rng)
	if err != nil {
		return nil, err
	}
	item.Plain = plain

	logger.Debug().Strs("formats", item.Kinds()).Str("range", rng.String()).Msg("Composed clipboard item")
	return item, nil
}

// payload keeps the bytes of a successful conversion and swallows a
// recoverable SerializeFailed.
func payload(p *serializer.Payload, err error) ([]byte, error) {
	if err == nil {
		return p.Data, nil
	}
	if stderrors.Is(err, errors.ErrSerializeFailed) && !errors.IsFatal(err) {
		logger.Warn().Err(err).Msg("Falling back to a simpler clipboard format")
		return nil, nil
	}
	return nil, err
}
