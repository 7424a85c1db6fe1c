// Package wand provides safe ownership of native image library handles.
//
// Every native wand is owned by a Resource, which destroys it exactly once:
// on Close, when a Convert replaces it, or through a runtime cleanup if the
// owner is dropped without being closed. Operations borrow the handle for
// the duration of a native call, so a Close that races with an operation
// only takes effect when the operation returns.
//
// After every native call the StatusTranslator drains the exceptions the
// library queued on the handle. Warnings are logged and passed to the
// DiagnosticSink configured with WithDiagnostics; errors become a *Error
// carrying the operation name and the native code and message.
//
// # Usage
//
//	img, err := wand.Open("photo.jpg")
//	if err != nil {
//		return err
//	}
//	defer img.Close()
//
//	if err := img.Resize(640, 480, magick.LanczosFilter); err != nil {
//		return err
//	}
//	if err := img.Crop(wand.Region{Left: wand.At(10), Top: wand.At(10)}); err != nil {
//		return err
//	}
//	return img.Save(wand.Destination{Path: "thumb.png"})
//
// # Errors
//
// All errors are *Error values and can be matched with errors.Is against
// ErrAllocation, ErrClone, ErrCodec, ErrOperation, ErrInvalidArgument and
// ErrClosed. Errors reported by the native library also match ErrNative.
//
// # Thread Safety
//
// An Image, Color or Drawing must not be used from several goroutines at
// once. Distinct values, including clones, are independent.
package wand
