package aggregator

// sequenceTracker follows the frame numbers of one producer at a time.
type sequenceTracker struct {
	sender   string
	expected int64
	started  bool
}

func (s *sequenceTracker) observe(sender string, frame int64) SequenceEvent {
	event := SequenceEvent{Kind: InSequence}

	switch {
	case !s.started || sender != s.sender:
		s.sender = sender
		s.started = true
		event.Kind = SenderChanged
	case frame != s.expected:
		event = SequenceEvent{Kind: SequenceGap, Delta: frame - s.expected}
	}

	s.expected = frame + 1
	return event
}
