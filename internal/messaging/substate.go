package messaging

// SubState tracks the latest event of each subscribed topic for a polling
// consumer. It is not safe for concurrent use; the owning loop calls Update and
// then reads the per-topic state.
type SubState struct {
	hub  *Hub
	subs []*topicState
}

type topicState struct {
	topic   string
	id      string
	ch      <-chan *Event
	latest  *Event
	valid   bool
	updated bool
	alive   bool
	count   uint64
}

// NewSubState subscribes to each topic on hub.
//
// A topic counts as valid until its first event arrives; after that it mirrors
// the Valid flag of the most recent event.
func NewSubState(hub *Hub, topics ...string) *SubState {
	s := &SubState{hub: hub, subs: make([]*topicState, 0, len(topics))}
	for _, topic := range topics {
		id, ch := hub.Subscribe(topic, DefaultDepth)
		s.subs = append(s.subs, &topicState{topic: topic, id: id, ch: ch, valid: true})
	}
	return s
}

// Update drains every pending event without waiting. Topics without a new
// event keep their last known state with Updated reporting false.
func (s *SubState) Update() {
	for _, t := range s.subs {
		t.updated = false
	drain:
		for {
			select {
			case ev, ok := <-t.ch:
				if !ok {
					t.alive = false
					break drain
				}
				t.latest = ev
				t.valid = ev.Valid
				t.updated = true
				t.alive = true
				t.count++
			default:
				break drain
			}
		}
	}
}

func (s *SubState) find(topic string) *topicState {
	for _, t := range s.subs {
		if t.topic == topic {
			return t
		}
	}
	return nil
}

// Valid reports the validity of topic's last event. Topics that were never
// subscribed are invalid.
func (s *SubState) Valid(topic string) bool {
	if t := s.find(topic); t != nil {
		return t.valid
	}
	return false
}

// Updated reports whether the last Update received a new event for topic.
func (s *SubState) Updated(topic string) bool {
	if t := s.find(topic); t != nil {
		return t.updated
	}
	return false
}

// Alive reports whether topic has delivered at least one event and its
// subscription is still open.
func (s *SubState) Alive(topic string) bool {
	if t := s.find(topic); t != nil {
		return t.alive
	}
	return false
}

// Latest returns the most recent event for topic, or nil.
func (s *SubState) Latest(topic string) *Event {
	if t := s.find(topic); t != nil {
		return t.latest
	}
	return nil
}

// Received returns how many events topic has delivered.
func (s *SubState) Received(topic string) uint64 {
	if t := s.find(topic); t != nil {
		return t.count
	}
	return 0
}

// Close unsubscribes from every topic.
func (s *SubState) Close() {
	for _, t := range s.subs {
		s.hub.Unsubscribe(t.id)
	}
}
