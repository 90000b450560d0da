package cache

import (
	"time"
	clock "time"
)

type options struct {
	now func() time.Time
}

func defaults() *options {
	return &options{now: time.Now}
}

func expired(o *options, at time.Time) bool {
	return o.now().After(at)
}

func stamp() time.Time {
	return time.Now() // want `call the injected clock instead of time.Now`
}

func age(at time.Time) time.Duration {
	return clock.Since(at) // want `call the injected clock instead of time.Since`
}

func left(at time.Time) time.Duration {
	return time.Until(at) + time.Duration(1) // want `call the injected clock instead of time.Until`
}
