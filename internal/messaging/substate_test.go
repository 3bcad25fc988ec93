package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubState_InitiallyValid(t *testing.T) {
	hub, _ := newTestHub()
	s := NewSubState(hub, NavInstructionTopic)
	defer s.Close()

	s.Update()
	assert.True(t, s.Valid(NavInstructionTopic))
	assert.False(t, s.Updated(NavInstructionTopic))
	assert.False(t, s.Alive(NavInstructionTopic))
	assert.Nil(t, s.Latest(NavInstructionTopic))
}

func TestSubState_TracksLatestValidity(t *testing.T) {
	hub, _ := newTestHub()
	s := NewSubState(hub, NavInstructionTopic)
	defer s.Close()

	require.NoError(t, hub.Publish(NavInstructionTopic, &Event{Valid: true, NavInstruction: &NavInstructionData{}}))
	require.NoError(t, hub.Publish(NavInstructionTopic, &Event{Valid: false, NavInstruction: &NavInstructionData{}}))

	s.Update()
	assert.False(t, s.Valid(NavInstructionTopic), "most recent event wins")
	assert.True(t, s.Updated(NavInstructionTopic))
	assert.True(t, s.Alive(NavInstructionTopic))
	assert.Equal(t, uint64(2), s.Received(NavInstructionTopic))

	// No new event: the last known state is reused.
	s.Update()
	assert.False(t, s.Valid(NavInstructionTopic))
	assert.False(t, s.Updated(NavInstructionTopic))

	require.NoError(t, hub.Publish(NavInstructionTopic, &Event{Valid: true, NavInstruction: &NavInstructionData{}}))
	s.Update()
	assert.True(t, s.Valid(NavInstructionTopic))
}

func TestSubState_UnknownTopic(t *testing.T) {
	hub, _ := newTestHub()
	s := NewSubState(hub, NavInstructionTopic)
	defer s.Close()

	assert.False(t, s.Valid("carState"))
	assert.False(t, s.Updated("carState"))
	assert.Nil(t, s.Latest("carState"))
}

func TestSubState_HubClosed(t *testing.T) {
	hub, _ := newTestHub()
	s := NewSubState(hub, NavInstructionTopic)

	require.NoError(t, hub.Publish(NavInstructionTopic, &Event{Valid: true, NavInstruction: &NavInstructionData{}}))
	s.Update()
	require.NoError(t, hub.Close())

	s.Update()
	assert.False(t, s.Alive(NavInstructionTopic))
	assert.True(t, s.Valid(NavInstructionTopic), "validity of the last event is retained")
	s.Close()
}
