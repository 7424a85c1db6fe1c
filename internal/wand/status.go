package wand

import (
	"go.uber.org/zap"

	"github.com/ironsheep/image-wand/internal/magick"
)

// maxDrain bounds how many warnings one Check delivers from a single
// handle. Later warnings are dropped; errors are still drained.
const maxDrain = 1024

// Diagnostic is a non-fatal warning reported by the native library.
type Diagnostic struct {
	Op      string
	Code    magick.ExceptionType
	Message string
}

// DiagnosticSink receives warnings drained by a StatusTranslator.
type DiagnosticSink func(Diagnostic)

// StatusTranslator turns the native exception queue of a handle into Go
// errors. It must be consulted after every native call.
type StatusTranslator struct {
	lib  magick.Library
	sink DiagnosticSink
	log  *zap.Logger
}

// NewStatusTranslator creates a translator reading exceptions from lib.
// sink may be nil.
func NewStatusTranslator(lib magick.Library, sink DiagnosticSink, log *zap.Logger) *StatusTranslator {
	if log == nil {
		log = Logger()
	}
	return &StatusTranslator{lib: lib, sink: sink, log: log}
}

// Check drains every queued exception on h. Warnings are reported as
// diagnostics; if any error or fatal exception was queued, the most
// severe one is returned as a *Error of kind KindNative. The queue is
// cleared before returning.
func (s *StatusTranslator) Check(op string, h magick.Handle, k magick.Kind) error {
	get, reset := s.accessors(k)
	defer reset(h)

	var worst magick.Exception
	delivered, dropped := 0, 0
	for {
		ex := get(h)
		sev := ex.Type.Severity()
		if sev == magick.SeverityNone {
			break
		}

		if sev == magick.SeverityWarning {
			if delivered < maxDrain {
				delivered++
				s.warn(op, ex)
			} else {
				dropped++
			}
			continue
		}

		if sev > worst.Type.Severity() {
			if worst.Type != magick.UndefinedException {
				s.log.Debug("superseded native exception",
					zap.String("op", op),
					zap.Stringer("code", worst.Type),
					zap.String("reason", worst.Reason))
			}
			worst = ex
		} else {
			s.log.Debug("additional native exception",
				zap.String("op", op),
				zap.Stringer("code", ex.Type),
				zap.String("reason", ex.Reason))
		}
	}
	if dropped > 0 {
		s.log.Warn("native warnings dropped", zap.String("op", op), zap.Int("count", dropped))
	}

	if worst.Type == magick.UndefinedException {
		return nil
	}
	return NewError(op, KindNative).Exception(worst).Build()
}

// Verify is Check for a call that also returned a success flag. A failed
// call that queued no exception still produces an error.
func (s *StatusTranslator) Verify(op string, h magick.Handle, k magick.Kind, ok bool) error {
	if err := s.Check(op, h, k); err != nil {
		return err
	}
	if ok {
		return nil
	}
	return &Error{
		Op:       op,
		Kind:     KindNative,
		Severity: magick.SeverityError,
		Message:  "native call failed without reporting an exception",
	}
}

func (s *StatusTranslator) warn(op string, ex magick.Exception) {
	s.log.Warn("native warning",
		zap.String("op", op),
		zap.Stringer("code", ex.Type),
		zap.Stringer("severity", ex.Type.Severity()),
		zap.String("reason", ex.Reason))
	if s.sink != nil {
		s.sink(Diagnostic{Op: op, Code: ex.Type, Message: ex.Reason})
	}
}

func (s *StatusTranslator) accessors(k magick.Kind) (func(magick.Handle) magick.Exception, func(magick.Handle)) {
	switch k {
	case magick.KindPixel:
		return s.lib.PixelGetException, s.lib.PixelClearException
	case magick.KindDrawing:
		return s.lib.DrawGetException, s.lib.DrawClearException
	default:
		return s.lib.MagickGetException, s.lib.MagickClearException
	}
}
