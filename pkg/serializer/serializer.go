// Package serializer converts a document range into RTFD or RTF payloads
// and extracts its plain text. Conversion itself is delegated to a
// Converter; this package owns the contract around it: ranges are checked
// before the converter runs, and a converter that yields nothing is reported
// as errors.ErrSerializeFailed.
package serializer

import (
	"rtfdclip/pkg/errors"
	"rtfdclip/pkg/logger"
	"rtfdclip/pkg/richtext"
)

// Converter is the only thing that knows the byte formats.
type Converter interface {
	RTFD(runs []richtext.Run, attrs richtext.DocumentAttributes) ([]byte, richtext.DocumentAttributes, error)
	RTF(runs []richtext.Run, attrs richtext.DocumentAttributes) ([]byte, richtext.DocumentAttributes, error)
}

// Serializer is stateless apart from its configuration and may be reused
// for any number of documents.
type Serializer struct {
	conv   Converter
	policy richtext.AttachmentPolicy
}

type Option func(*Serializer)

// WithAttachmentPolicy sets what PlainText writes for an attachment.
func WithAttachmentPolicy(p richtext.AttachmentPolicy) Option {
	return func(s *Serializer) {
		s.policy = p
	}
}

func New(conv Converter, opts ...Option) *Serializer {
	s := &Serializer{conv: conv, policy: richtext.PolicyPlaceholder}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ToRTFD serializes rng of doc as a flat RTFD container.
func (s *Serializer) ToRTFD(doc *richtext.Document, rng richtext.Range, attrs richtext.DocumentAttributes) (*Payload, error) {
	return s.serialize(FormatRTFD, doc, rng, attrs)
}

// ToRTF serializes rng of doc as text-only RTF.
func (s *Serializer) ToRTF(doc *richtext.Document, rng richtext.Range, attrs richtext.DocumentAttributes) (*Payload, error) {
	return s.serialize(FormatRTF, doc, rng, attrs)
}

func (s *Serializer) serialize(format Format, doc *richtext.Document, rng richtext.Range, attrs richtext.DocumentAttributes) (*Payload, error) {
	if doc == nil {
		return nil, errors.ValidationError("cannot serialize a nil document")
	}
	runs, err := doc.Slice(rng)
	if err != nil {
		return nil, err
	}
	if s.conv == nil {
		return nil, errors.SerializeError(format.String(), errors.New(errors.ExitCodeGeneral, "no converter configured"))
	}

	convert := s.conv.RTF
	if format == FormatRTFD {
		convert = s.conv.RTFD
	}
	data, outAttrs, err := convert(runs, attrs.Clone())
	if err != nil {
		logger.Debug().Err(err).Str("format", format.String()).Str("range", rng.String()).Msg("Conversion failed")
		return nil, errors.SerializeError(format.String(), err)
	}
	if len(data) == 0 {
		logger.Debug().Str("format", format.String()).Str("range", rng.String()).Msg("Conversion produced no data")
		return nil, errors.SerializeError(format.String(), nil)
	}

	logger.Debug().
		Str("format", format.String()).
		Str("range", rng.String()).
		Int("runs", len(runs)).
		Int("bytes", len(data)).
		Msg("Serialized document")

	return &Payload{Format: format, Data: data, Attributes: outAttrs}, nil
}

// PlainText returns the text of doc in append order. Attachments become
// U+FFFC under the placeholder policy and disappear under the drop policy.
func (s *Serializer) PlainText(doc *richtext.Document) string {
	if doc == nil {
		return ""
	}
	return richtext.JoinText(doc.Runs(), s.placeholder())
}

// PlainTextRange is PlainText restricted to rng.
func (s *Serializer) PlainTextRange(doc *richtext.Document, rng richtext.Range) (string, error) {
	if doc == nil {
		return "", errors.ValidationError("cannot read text of a nil document")
	}
	runs, err := doc.Slice(rng)
	if err != nil {
		return "", err
	}
	return richtext.JoinText(runs, s.placeholder()), nil
}

func (s *Serializer) placeholder() string {
	return s.policy.Placeholder()
}
