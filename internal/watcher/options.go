package watcher

import "time"

// Options configures the file watcher behavior.
type Options struct {
	// SettleDelay is how long a file must stay unchanged before an event is
	// emitted. Editors and deploy tools often write in several steps.
	SettleDelay time.Duration
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	if o.SettleDelay == 0 {
		o.SettleDelay = 250 * time.Millisecond
	}
}
