package indicator

import "time"

// StartSequence blinks the line count times with the given on and off
// durations, then returns to the persistent pattern. It preempts the
// persistent pattern and supersedes any running sequence. Requests with a
// count outside 1..MaxSequenceCount or a non-positive duration are logged and
// ignored, as are requests while suspended.
func (s *Scheduler) StartSequence(count int, on, off time.Duration) {
	if !s.active() {
		return
	}
	if count <= 0 || count > MaxSequenceCount || on <= 0 || off <= 0 {
		s.logger.Debug("Ignoring out-of-range sequence", "count", count, "on", on, "off", off)
		return
	}
	if s.st.suspended {
		s.logger.Debug("Ignoring sequence while suspended", "count", count)
		return
	}

	if s.st.sequence != nil {
		s.recorder.SequenceFinished(SequenceSuperseded)
	}
	s.cancelDriver()
	s.setLine(false)

	s.st.sequence = &Sequence{Remaining: count, On: on, Off: off}
	s.driver = PatternSequence
	s.drive = s.timers.Schedule(0, s.sequenceTick)

	s.logger.Debug("Sequence started", "count", count, "on", on, "off", off)
	s.notify()
}

func (s *Scheduler) sequenceTick() {
	s.drive = 0
	seq := s.st.sequence
	if seq == nil || s.driver != PatternSequence {
		return
	}

	if s.st.suspended {
		s.st.sequence = nil
		s.cancelDriver()
		s.setLine(false)
		s.recorder.SequenceFinished(SequenceAborted)
		s.notify()
		return
	}

	if seq.Remaining == 0 {
		s.st.sequence = nil
		s.setLine(false)
		s.recorder.SequenceFinished(SequenceCompleted)
		s.cancelDriver()
		s.armPersistent()
		s.notify()
		return
	}

	s.setLine(true)
	s.lineOff = s.timers.Schedule(seq.On, s.pulseOff)
	seq.Remaining--
	s.drive = s.timers.Schedule(seq.On+seq.Off, s.sequenceTick)
}
