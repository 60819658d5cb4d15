package indicator

// armPersistent arms the chain matching the cached connection state after
// its base delay. The caller must have cancelled the previous driver.
func (s *Scheduler) armPersistent() {
	s.advOn = false
	if s.st.connected {
		s.driver = PatternConnected
		s.drive = s.timers.Schedule(s.timings.ConnectedPeriod, s.connectedTick)
		return
	}
	s.driver = PatternAdvertising
	s.drive = s.timers.Schedule(s.timings.AdvertisingInterval, s.advertisingTick)
}

// restartPersistent swaps to the chain for the current connection state.
func (s *Scheduler) restartPersistent() {
	s.cancelDriver()
	s.setLine(false)
	s.armPersistent()
}

func (s *Scheduler) advertisingTick() {
	s.drive = 0
	if s.driver != PatternAdvertising || s.st.suspended {
		return
	}
	s.advOn = !s.advOn
	s.setLine(s.advOn)
	s.drive = s.timers.Schedule(s.timings.AdvertisingInterval, s.advertisingTick)
}

func (s *Scheduler) connectedTick() {
	s.drive = 0
	if s.driver != PatternConnected || s.st.suspended {
		return
	}
	s.setLine(true)
	s.lineOff = s.timers.Schedule(s.timings.ConnectedPulse, s.pulseOff)
	s.drive = s.timers.Schedule(s.timings.ConnectedPeriod, s.connectedTick)
}

// SetConnected records the connection state. When the persistent pattern
// owns the line and the value changed, the pattern is swapped. While a
// sequence runs or the device sleeps only the cached value changes; the
// sequence end or resume picks it up.
func (s *Scheduler) SetConnected(connected bool) {
	if !s.active() || s.st.connected == connected {
		return
	}
	s.st.connected = connected
	s.logger.Debug("Connection state changed", "connected", connected)

	if !s.st.suspended && s.st.sequence == nil {
		s.restartPersistent()
	}
	s.notify()
}

// pollTick compares the cached connection state against the probe. It only
// touches pattern timers when the two disagree, and always re-arms itself.
func (s *Scheduler) pollTick() {
	s.poll = 0
	if !s.active() || s.st.suspended {
		return
	}

	if now := s.probe.Connected(); now != s.st.connected {
		s.logger.Debug("Reconciled missed connection change", "connected", now)
		s.recorder.Reconciled(now)
		s.SetConnected(now)
	}
	s.poll = s.timers.Schedule(s.timings.PollInterval, s.pollTick)
}
