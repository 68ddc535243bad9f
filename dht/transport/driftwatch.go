package transport

import (
	"sync"
	"time"

	"github.com/MOACChain/MoacLib/log"
	"github.com/beevik/ntp"
)

// Thresholds mirroring the teacher's own clock-drift diagnostic in
// p2p/discover/udp.go (ntpFailureThreshold, ntpWarningCooldown,
// driftThreshold): a burst of timeouts could mean an unreachable peer,
// but a sustained run of them across many peers more plausibly means
// the local clock has drifted, which would make every deadline this
// package computes wrong.
const (
	ntpFailureThreshold = 32
	ntpWarningCooldown  = 10 * time.Minute
	driftThreshold      = 10 * time.Second
	ntpServer           = "pool.ntp.org"
)

// driftWatchdog never influences transport behavior; it only decides
// when to log a clock-drift warning.
type driftWatchdog struct {
	mu           sync.Mutex
	contTimeouts int
	lastWarnAt   time.Time
}

func newDriftWatchdog() *driftWatchdog {
	return &driftWatchdog{}
}

func (d *driftWatchdog) recordSuccess() {
	d.mu.Lock()
	d.contTimeouts = 0
	d.mu.Unlock()
}

func (d *driftWatchdog) recordTimeout() {
	d.mu.Lock()
	d.contTimeouts++
	shouldCheck := d.contTimeouts > ntpFailureThreshold && time.Since(d.lastWarnAt) >= ntpWarningCooldown
	if shouldCheck {
		d.contTimeouts = 0
		d.lastWarnAt = time.Now()
	}
	d.mu.Unlock()

	if shouldCheck {
		go checkClockDrift()
	}
}

func checkClockDrift() {
	resp, err := ntp.Query(ntpServer)
	if err != nil {
		log.Debugf("transport: ntp query failed: %v", err)
		return
	}
	if resp.ClockOffset > driftThreshold || resp.ClockOffset < -driftThreshold {
		log.Infof("transport: local clock drift of %v exceeds threshold %v, retries may be spurious", resp.ClockOffset, driftThreshold)
	}
}
