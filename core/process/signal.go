package process

import (
	"os"
	"os/signal"
	"sync"
)

var interrupts struct {
	sync.Mutex
	ch    chan os.Signal
	users int
}

// IgnoreInterrupts stops SIGINT from killing the shell while leaving the
// default disposition for children, so Ctrl-C still reaches the foreground
// program. It's meant to be called once when a session starts; the returned
// func undoes it.
//
// The signal is caught and dropped rather than ignored: an ignored
// disposition is inherited across exec.
func IgnoreInterrupts() (stop func()) {
	interrupts.Lock()
	defer interrupts.Unlock()

	if interrupts.users == 0 {
		interrupts.ch = make(chan os.Signal, 1)
		signal.Notify(interrupts.ch, os.Interrupt)
		go func(ch chan os.Signal) {
			for range ch {
			}
		}(interrupts.ch)
	}
	interrupts.users++

	var once sync.Once
	return func() {
		once.Do(func() {
			interrupts.Lock()
			defer interrupts.Unlock()

			interrupts.users--
			if interrupts.users == 0 {
				signal.Stop(interrupts.ch)
				close(interrupts.ch)
				interrupts.ch = nil
			}
		})
	}
}

// interruptsIgnored reports whether an IgnoreInterrupts call is active.
func interruptsIgnored() bool {
	interrupts.Lock()
	defer interrupts.Unlock()
	return interrupts.users > 0
}
