package hxbridge

// Result is returned from host-side action handlers to describe what the
// Panel should do after the handler ran.
//
//	// Success, nothing else to do
//	return hxbridge.OK()
//
//	// Success with a toast
//	return hxbridge.OK().Flash(hxbridge.FlashSuccess, "Saved")
//
//	// Recoverable failure, shown in the component
//	return hxbridge.Err(err)
//
//	// Failure that blocks the panel until fixed elsewhere
//	return hxbridge.Critical(err)
//
// Errors never cross to the surface as anything but error envelopes.
type Result struct {
	err      error
	critical bool
	flashes  []Notice
}

// OK creates a success result.
func OK() Result {
	return Result{}
}

// Err creates a result carrying a recoverable error. The Panel sends it to
// the component's error channel.
func Err(err error) Result {
	return Result{err: err}
}

// Critical creates a result carrying an error that blocks further use of
// the panel. The Panel sends it in-panel and to the Notifier.
func Critical(err error) Result {
	return Result{err: err, critical: true}
}

// Flash adds a notice to the result. Multiple flashes can be chained.
func (r Result) Flash(level, message string) Result {
	r.flashes = append(r.flashes, Notice{Level: level, Message: message})
	return r
}

// GetErr returns the error, if any.
func (r Result) GetErr() error {
	return r.err
}

// IsCritical reports whether the error blocks the panel.
func (r Result) IsCritical() bool {
	return r.critical && r.err != nil
}

// GetFlashes returns the notices.
func (r Result) GetFlashes() []Notice {
	return r.flashes
}
