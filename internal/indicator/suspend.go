package indicator

// Suspend freezes the indicator for sleep: every timer is cancelled, any
// running sequence is abandoned and the line is forced off.
func (s *Scheduler) Suspend() {
	if !s.active() || s.st.suspended {
		return
	}

	s.cancelDriver()
	s.cancelPoll()
	if s.st.sequence != nil {
		s.st.sequence = nil
		s.recorder.SequenceFinished(SequenceAborted)
	}
	s.setLine(false)
	s.st.suspended = true

	s.logger.Debug("Indicator suspended")
	s.notify()
}

// Resume leaves sleep. The connection state is re-read from the probe when
// one is configured, the matching persistent pattern is armed and the
// reconciliation poll restarts. Abandoned sequences are not replayed.
func (s *Scheduler) Resume() {
	if !s.active() || !s.st.suspended {
		return
	}
	s.st.suspended = false

	if s.probe != nil {
		s.st.connected = s.probe.Connected()
	}
	if s.st.sequence == nil {
		s.armPersistent()
	}
	if s.probe != nil {
		s.poll = s.timers.Schedule(0, s.pollTick)
	}

	s.logger.Debug("Indicator resumed", "connected", s.st.connected)
	s.notify()
}
