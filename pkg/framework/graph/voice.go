package graph

import (
	"math/bits"
	"sync"
)

// VoiceEventKind distinguishes the four events FlushEvents can emit.
type VoiceEventKind int

const (
	// VoiceActivate assigns a freshly triggered note to a (cluster, lane).
	VoiceActivate VoiceEventKind = iota
	// VoiceDeactivate signals note-off without releasing the slot (the
	// processor's own release/decay stage still owns it).
	VoiceDeactivate
	// VoiceFree releases a (cluster, lane) back to the free pool.
	VoiceFree
	// VoiceMove relocates a voice's state from one (cluster, lane) to
	// another - reserved for a future rebalancing pass; not emitted yet.
	VoiceMove
)

// VoiceEvent is one control-plane event an Executor applies to its
// processors before Process runs for a block.
type VoiceEvent struct {
	Kind       VoiceEventKind
	Note       uint8
	Velocity   uint8
	ClusterIdx int
	Lane       int
	// FromCluster/FromLane are meaningful only for VoiceMove.
	FromCluster int
	FromLane    int
}

type controlMsgKind int

const (
	msgNoteOn controlMsgKind = iota
	msgNoteOff
	msgNoteFree
)

type controlMsg struct {
	kind controlMsgKind
	note uint8
	vel  uint8
}

type voiceSlot struct{ cluster, lane int }

// VoiceManager assigns incoming notes to (cluster, lane) slots across a
// fixed number of SIMD voice clusters. Note messages are queued from the
// control thread (a mutex-guarded slice) and only applied at
// the start of a block via FlushEvents - the audio thread never touches
// the queue directly. Cluster occupancy is tracked with an
// enabled-lanes bitmask per cluster, scanned with bits.TrailingZeros64
// to find the next free lane.
type VoiceManager struct {
	mu    sync.Mutex
	queue []controlMsg

	lanesPerCluster int
	clusters        []uint64 // clusters[c] bit i set = lane i of cluster c is active
	noteSlot        map[uint8]voiceSlot
}

// NewVoiceManager returns a manager for numClusters clusters of
// lanesPerCluster voices each (lanesPerCluster must be <= 64).
func NewVoiceManager(numClusters, lanesPerCluster int) *VoiceManager {
	return &VoiceManager{
		lanesPerCluster: lanesPerCluster,
		clusters:        make([]uint64, numClusters),
		noteSlot:        make(map[uint8]voiceSlot),
	}
}

// NoteOn queues a note-on message.
func (v *VoiceManager) NoteOn(note, vel uint8) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.queue = append(v.queue, controlMsg{kind: msgNoteOn, note: note, vel: vel})
}

// NoteOff queues a note-off message.
func (v *VoiceManager) NoteOff(note, vel uint8) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.queue = append(v.queue, controlMsg{kind: msgNoteOff, note: note, vel: vel})
}

// NoteFree queues a release of a voice's slot back to the free pool, once
// its processor has finished its own release tail.
func (v *VoiceManager) NoteFree(note uint8) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.queue = append(v.queue, controlMsg{kind: msgNoteFree, note: note})
}

// FlushEvents drains every control message queued since the last call,
// appending the resulting VoiceEvents to out in arrival order, and
// returns the extended slice. Called once per block, before the
// schedule runs.
func (v *VoiceManager) FlushEvents(out []VoiceEvent) []VoiceEvent {
	v.mu.Lock()
	pending := v.queue
	v.queue = nil
	v.mu.Unlock()

	for _, msg := range pending {
		switch msg.kind {
		case msgNoteOn:
			cluster, lane, ok := v.findFreeLane()
			if !ok {
				// No free lane anywhere: voice stealing is not yet
				// implemented, the note is simply dropped.
				continue
			}
			v.clusters[cluster] |= 1 << uint(lane)
			v.noteSlot[msg.note] = voiceSlot{cluster, lane}
			out = append(out, VoiceEvent{
				Kind: VoiceActivate, Note: msg.note, Velocity: msg.vel,
				ClusterIdx: cluster, Lane: lane,
			})

		case msgNoteOff:
			s, ok := v.noteSlot[msg.note]
			if !ok {
				continue
			}
			out = append(out, VoiceEvent{
				Kind: VoiceDeactivate, Note: msg.note, Velocity: msg.vel,
				ClusterIdx: s.cluster, Lane: s.lane,
			})

		case msgNoteFree:
			s, ok := v.noteSlot[msg.note]
			if !ok {
				continue
			}
			v.clusters[s.cluster] &^= 1 << uint(s.lane)
			delete(v.noteSlot, msg.note)
			out = append(out, VoiceEvent{
				Kind: VoiceFree, Note: msg.note,
				ClusterIdx: s.cluster, Lane: s.lane,
			})
		}
	}
	return out
}

// findFreeLane returns the lowest-indexed (cluster, lane) pair with no
// active voice: each cluster's bitmask of active lanes is inverted and
// its lowest set bit (the first free lane) located with
// bits.TrailingZeros64.
func (v *VoiceManager) findFreeLane() (cluster, lane int, ok bool) {
	full := uint64(1)<<uint(v.lanesPerCluster) - 1
	for i, mask := range v.clusters {
		free := ^mask & full
		if free == 0 {
			continue
		}
		return i, bits.TrailingZeros64(free), true
	}
	return 0, 0, false
}
