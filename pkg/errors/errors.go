package errors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"rtfdclip/pkg/logger"

	"github.com/fatih/color"
)

type ExitCode int

const (
	ExitCodeSuccess         ExitCode = 0
	ExitCodeGeneral         ExitCode = 1
	ExitCodeConfig          ExitCode = 2
	ExitCodeValidation      ExitCode = 3
	ExitCodeFileOperation   ExitCode = 4
	ExitCodeRangeOutOfBound ExitCode = 5
	ExitCodeSerialize       ExitCode = 6
	ExitCodeClipboard       ExitCode = 7
	ExitCodeHistory         ExitCode = 8
	ExitCodeCancellation    ExitCode = 9
	ExitCodeMalformed       ExitCode = 10
	ExitCodeAppendFailed    ExitCode = 70
)

// Standardized error messages for consistent user-facing errors
const (
	ErrMsgRangeOutOfBounds = "Requested range exceeds document length"
	ErrMsgSerializeFailed  = "Rich text conversion produced no data"
	ErrMsgAppendFailed     = "Appending to document failed"
	ErrMsgClipboardFailed  = "Failed to publish clipboard content"
	ErrMsgHistoryFailed    = "Copy history operation failed"
	ErrMsgMalformedRTFD    = "Malformed RTFD data"
	ErrMsgInvalidInput     = "Invalid input provided"
)

// Sentinels for the pipeline failure kinds. Match them with errors.Is; any
// *Error carrying the same code matches.
var (
	ErrRangeOutOfBounds = New(ExitCodeRangeOutOfBound, ErrMsgRangeOutOfBounds)
	ErrSerializeFailed  = New(ExitCodeSerialize, ErrMsgSerializeFailed)
	ErrAppendFailed     = New(ExitCodeAppendFailed, ErrMsgAppendFailed)
	ErrMalformed        = New(ExitCodeMalformed, ErrMsgMalformedRTFD)
)

type Error struct {
	Code       ExitCode
	Message    string
	Underlying error
	Suggestion string
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Fatal reports whether the error means the document under construction can
// no longer be trusted.
func (e *Error) Fatal() bool {
	return e.Code == ExitCodeAppendFailed
}

func New(code ExitCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func NewWithError(code ExitCode, message string, err error) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
	}
}

func NewWithSuggestion(code ExitCode, message string, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	if wrapped, ok := err.(*Error); ok {
		return &Error{
			Code:       wrapped.Code,
			Message:    message + ": " + wrapped.Message,
			Underlying: wrapped.Underlying,
			Suggestion: wrapped.Suggestion,
		}
	}

	return &Error{
		Code:       ExitCodeGeneral,
		Message:    message,
		Underlying: err,
	}
}

func WrapWithCode(err error, code ExitCode, message string) *Error {
	if err == nil {
		return nil
	}

	var errMsg string
	if wrapped, ok := err.(*Error); ok {
		errMsg = wrapped.Message
		if wrapped.Underlying != nil {
			errMsg += ": " + wrapped.Underlying.Error()
		}
	} else {
		errMsg = err.Error()
	}

	return &Error{
		Code:       code,
		Message:    message + ": " + errMsg,
		Underlying: err,
	}
}

func IsExitCode(err error, code ExitCode) bool {
	if err == nil {
		return false
	}

	if e, ok := err.(*Error); ok {
		return e.Code == code
	}

	return false
}

// IsFatal reports whether err, or anything it wraps, is a fatal pipeline error.
func IsFatal(err error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Fatal() {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// RangeError reports a range that does not fit a document of docLen units.
func RangeError(location, length, docLen int) *Error {
	return &Error{
		Code:       ExitCodeRangeOutOfBound,
		Message:    fmt.Sprintf("%s: range {%d, %d} over length %d", ErrMsgRangeOutOfBounds, location, length, docLen),
		Suggestion: "Clamp the range to the document length or copy the whole document.",
	}
}

// SerializeError reports a conversion that yielded nothing usable.
func SerializeError(format string, err error) *Error {
	return &Error{
		Code:       ExitCodeSerialize,
		Message:    fmt.Sprintf("%s (%s)", ErrMsgSerializeFailed, format),
		Underlying: err,
	}
}

// AppendError reports a failed append. It is fatal for the current copy.
func AppendError(reason string) *Error {
	return &Error{
		Code:    ExitCodeAppendFailed,
		Message: ErrMsgAppendFailed + ": " + reason,
	}
}

// MalformedError reports ill-formed container input at byte offset off.
func MalformedError(off int, reason string) *Error {
	return &Error{
		Code:    ExitCodeMalformed,
		Message: fmt.Sprintf("%s at offset %d: %s", ErrMsgMalformedRTFD, off, reason),
	}
}

func ConfigError(message string) *Error {
	return &Error{
		Code:       ExitCodeConfig,
		Message:    message,
		Suggestion: "Check ~/.config/rtfdclip/config.yaml or the RTFDCLIP_* environment variables.",
	}
}

func ValidationError(message string) *Error {
	return &Error{
		Code:    ExitCodeValidation,
		Message: message,
	}
}

func ClipboardError(err error) *Error {
	return &Error{
		Code:       ExitCodeClipboard,
		Message:    ErrMsgClipboardFailed,
		Underlying: err,
		Suggestion: "On Wayland the compositor must support wlr-data-control; elsewhere only plain text is published.",
	}
}

func HistoryError(err error) *Error {
	return &Error{
		Code:       ExitCodeHistory,
		Message:    ErrMsgHistoryFailed,
		Underlying: err,
	}
}

func NotFoundError(resource string) *Error {
	return &Error{
		Code:       ExitCodeValidation,
		Message:    fmt.Sprintf("%s not found", resource),
		Suggestion: "Use 'rtfdclip history list' to see recorded copies.",
	}
}

func CancelledError(operation string) *Error {
	return &Error{
		Code:       ExitCodeCancellation,
		Message:    fmt.Sprintf("Operation cancelled: %s", operation),
		Suggestion: "The operation was interrupted. No changes were made.",
	}
}

// HandleReturn logs err, prints it to stderr and returns the exit code the
// caller should terminate with.
func HandleReturn(err error) ExitCode {
	return handleTo(os.Stderr, err)
}

// HandleQuietReturn logs err without printing and returns its exit code.
func HandleQuietReturn(err error) ExitCode {
	if err == nil {
		return ExitCodeSuccess
	}

	var exitCode ExitCode = ExitCodeGeneral

	if e, ok := err.(*Error); ok {
		exitCode = e.Code
	} else {
		logger.Error().Err(err).Msg("operation failed")
	}

	return exitCode
}

func handleTo(w io.Writer, err error) ExitCode {
	if err == nil {
		return ExitCodeSuccess
	}

	var exitCode ExitCode = ExitCodeGeneral
	var message string
	var suggestion string

	if e, ok := err.(*Error); ok {
		exitCode = e.Code
		message = e.Error()
		suggestion = e.Suggestion

		if e.Underlying != nil {
			logger.Error().Err(e.Underlying).Int("code", int(e.Code)).Msg(e.Message)
		} else {
			logger.Error().Int("code", int(e.Code)).Msg(e.Message)
		}
	} else {
		message = err.Error()
		logger.Error().Msg(message)
	}

	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	fmt.Fprintln(w)
	red.Fprint(w, "Error: ")
	fmt.Fprintln(w, message)

	if suggestion != "" {
		yellow.Fprint(w, "Suggestion: ")
		lines := strings.Split(suggestion, "\n")
		for i, line := range lines {
			if i == 0 {
				fmt.Fprintln(w, line)
			} else {
				if strings.HasPrefix(line, "  -") {
					cyan.Fprintln(w, line)
				} else {
					fmt.Fprintln(w, "           "+line)
				}
			}
		}
	}

	fmt.Fprintln(w)

	return exitCode
}
