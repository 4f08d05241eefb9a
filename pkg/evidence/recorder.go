package evidence

import (
	"github.com/hashicorp/go-multierror"

	"github.com/devicelab-dev/mobile-harness/pkg/core"
	"github.com/devicelab-dev/mobile-harness/pkg/logger"
)

// Device is what a Recorder captures from.
type Device interface {
	Screenshot() ([]byte, error)
	Source() (string, error)
}

// Recorder captures evidence for one test. Capture problems never fail the
// test: they are logged at WARN and returned as core.ErrTeardown for callers
// that want to inspect them.
type Recorder struct {
	test   string
	device Device
	sink   Sink
	log    *logger.Logger
}

// NewRecorder creates a recorder for test.
func NewRecorder(test string, device Device, sink Sink, log *logger.Logger) *Recorder {
	if log == nil {
		log = logger.Nop()
	}
	return &Recorder{test: test, device: device, sink: sink, log: log}
}

// Step attaches a screenshot named after the step.
func (r *Recorder) Step(name string) error {
	data, err := r.device.Screenshot()
	if err != nil {
		return r.warn("screenshot", name, err)
	}
	if err := r.sink.Attach(core.NewScreenshotAttachment(r.test, name, data)); err != nil {
		return r.warn("screenshot", name, err)
	}
	return nil
}

// Failure attaches a screenshot, the page source and the error text.
// Every capture is attempted even when an earlier one fails.
func (r *Recorder) Failure(cause error) error {
	r.log.Error("Test failed, capturing evidence...")
	var result *multierror.Error

	if data, err := r.device.Screenshot(); err != nil {
		result = multierror.Append(result, r.warn("screenshot", "FAILED", err))
	} else if err := r.sink.Attach(core.NewScreenshotAttachment(r.test, "FAILED", data)); err != nil {
		result = multierror.Append(result, r.warn("screenshot", "FAILED", err))
	}

	if src, err := r.device.Source(); err != nil {
		result = multierror.Append(result, r.warn("page source", core.AttachmentPageSource, err))
	} else if err := r.sink.Attach(core.NewPageSourceAttachment(r.test, src)); err != nil {
		result = multierror.Append(result, r.warn("page source", core.AttachmentPageSource, err))
	}

	if cause != nil {
		if err := r.sink.Attach(core.NewTextAttachment(r.test, core.AttachmentError, cause.Error())); err != nil {
			result = multierror.Append(result, r.warn("error details", core.AttachmentError, err))
		}
	}
	return result.ErrorOrNil()
}

func (r *Recorder) warn(what, name string, err error) error {
	r.log.Warn("Failed to capture %s %q: %v", what, name, err)
	return core.ErrTeardown.
		WithMessage("failed to capture " + what).
		WithDetails(map[string]interface{}{"test": r.test, "name": name}).
		WithCause(err)
}
