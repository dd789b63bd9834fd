package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVoiceManager_ActivateAndFree(t *testing.T) {
	vm := NewVoiceManager(1, 4)

	vm.NoteOn(60, 100)
	vm.NoteOn(64, 90)

	events := vm.FlushEvents(nil)
	require.Len(t, events, 2)
	require.Equal(t, VoiceActivate, events[0].Kind)
	require.Equal(t, uint8(60), events[0].Note)
	require.Equal(t, 0, events[0].ClusterIdx)
	require.Equal(t, 0, events[0].Lane)

	require.Equal(t, VoiceActivate, events[1].Kind)
	require.Equal(t, 1, events[1].Lane)

	vm.NoteOff(60, 0)
	vm.NoteFree(60)
	events = vm.FlushEvents(nil)
	require.Len(t, events, 2)
	require.Equal(t, VoiceDeactivate, events[0].Kind)
	require.Equal(t, VoiceFree, events[1].Kind)

	// The freed lane 0 is available again.
	vm.NoteOn(67, 80)
	events = vm.FlushEvents(nil)
	require.Len(t, events, 1)
	require.Equal(t, 0, events[0].Lane)
}

func TestVoiceManager_ExhaustedLanesDropNote(t *testing.T) {
	vm := NewVoiceManager(1, 2)

	vm.NoteOn(1, 1)
	vm.NoteOn(2, 1)
	vm.NoteOn(3, 1) // no free lane left in the single cluster

	events := vm.FlushEvents(nil)
	require.Len(t, events, 2)
}

func TestVoiceManager_SpansMultipleClusters(t *testing.T) {
	vm := NewVoiceManager(2, 1)

	vm.NoteOn(1, 1)
	vm.NoteOn(2, 1)

	events := vm.FlushEvents(nil)
	require.Len(t, events, 2)
	require.Equal(t, 0, events[0].ClusterIdx)
	require.Equal(t, 1, events[1].ClusterIdx)
}
