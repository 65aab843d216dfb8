package controller

import "time"

// keepAlive is a one-shot timer that re-queries the model while the
// controller is Operational. Each model response re-arms it, so it repeats
// for as long as the receiver answers.
type keepAlive struct {
	interval time.Duration
	timer    *time.Timer
}

// arm (re)starts the timer. fire runs on the timer goroutine.
func (k *keepAlive) arm(fire func()) {
	k.stop()
	if k.interval <= 0 {
		return
	}
	k.timer = time.AfterFunc(k.interval, fire)
}

func (k *keepAlive) stop() {
	if k.timer != nil {
		k.timer.Stop()
		k.timer = nil
	}
}

func (k *keepAlive) armed() bool {
	return k.timer != nil
}
