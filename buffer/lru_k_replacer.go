package buffer

import (
	"sync"

	"pagepool/common"
)

// AccessType differentiates why a frame was touched. It does not affect
// eviction policy in this replacer; it is reserved for future
// differentiation of scan vs. lookup access patterns, carried as a typed
// value rather than dropped entirely.
type AccessType int

const (
	AccessUnknown AccessType = iota
	AccessLookup
	AccessScan
	AccessIndex
)

// lruKNode is the per-frame access history: up to k logical timestamps,
// oldest first, plus whether the frame is currently evictable.
type lruKNode struct {
	history   []uint64
	evictable bool
}

func (n *lruKNode) record(timestamp uint64, k int) {
	n.history = append(n.history, timestamp)
	if len(n.history) > k {
		n.history = n.history[1:]
	}
}

// backwardKDistance reports now minus the k-th most recent access timestamp,
// and whether the node is undersampled (fewer than k recorded accesses, in
// which case distance is meaningless and the caller must treat it as +inf).
func (n *lruKNode) backwardKDistance(k int, now uint64) (distance uint64, undersampled bool) {
	if len(n.history) < k {
		return 0, true
	}
	return now - n.history[0], false
}

// LRUKReplacer selects an eviction victim among evictable frames by backward
// K-distance: frames with fewer than k recorded accesses (undersampled) are
// preferred over fully-sampled ones, tied-broken by oldest first access;
// among fully-sampled frames the one with the largest backward K-distance
// wins. The clock is a logical counter incremented under mu on every
// RecordAccess, a monotonic logical clock rather than wall-clock time.
type LRUKReplacer struct {
	mu        sync.Mutex
	nodes     map[FrameID]*lruKNode
	size      int
	numFrames int
	k         int
	clock     uint64
}

// NewLRUKReplacer constructs a replacer over numFrames frames, with history
// depth k. k must be at least 1.
func NewLRUKReplacer(numFrames, k int) *LRUKReplacer {
	if k < 1 {
		panic("buffer: k must be >= 1")
	}
	return &LRUKReplacer{
		nodes:     make(map[FrameID]*lruKNode),
		numFrames: numFrames,
		k:         k,
	}
}

// RecordAccess stamps frameID with a fresh logical timestamp, creating its
// node on first touch with evictable=false. accessType is accepted but does
// not affect policy; it defaults to AccessUnknown.
func (r *LRUKReplacer) RecordAccess(frameID FrameID, accessType ...AccessType) error {
	if frameID < 0 || int(frameID) >= r.numFrames {
		return common.ErrFrameOutOfRange
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.clock++
	node, ok := r.nodes[frameID]
	if !ok {
		node = &lruKNode{}
		r.nodes[frameID] = node
	}
	node.record(r.clock, r.k)
	return nil
}

// SetEvictable toggles whether frameID is a candidate for eviction. Unknown
// frames and no-op transitions are ignored.
func (r *LRUKReplacer) SetEvictable(frameID FrameID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[frameID]
	if !ok || node.evictable == evictable {
		return
	}
	node.evictable = evictable
	if evictable {
		r.size++
	} else {
		r.size--
	}
}

// Remove deletes a known, evictable frame's node and history without waiting
// for it to be chosen by Evict. Unknown frames return nil silently; a known
// but pinned (non-evictable) frame fails with ErrFrameNotEvictable.
func (r *LRUKReplacer) Remove(frameID FrameID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[frameID]
	if !ok {
		return nil
	}
	if !node.evictable {
		return common.ErrFrameNotEvictable
	}
	delete(r.nodes, frameID)
	r.size--
	return nil
}

// Evict picks a victim among evictable frames and removes its node, or
// reports ok=false if none are evictable.
func (r *LRUKReplacer) Evict() (frameID FrameID, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size == 0 {
		return 0, false
	}

	var victim FrameID
	var victimNode *lruKNode
	var victimDist uint64
	var victimUndersampled bool
	found := false

	for id, node := range r.nodes {
		if !node.evictable {
			continue
		}
		dist, undersampled := node.backwardKDistance(r.k, r.clock)
		if !found || better(node, dist, undersampled, victimNode, victimDist, victimUndersampled) {
			victim, victimNode, victimDist, victimUndersampled, found = id, node, dist, undersampled, true
		}
	}
	if !found {
		return 0, false
	}

	delete(r.nodes, victim)
	r.size--
	return victim, true
}

// better reports whether a candidate beats the current best victim:
// undersampled frames before fully-sampled ones; within a class, larger
// backward K-distance wins; undersampled ties break on the oldest recorded
// timestamp (classical LRU).
func better(cand *lruKNode, candDist uint64, candUnder bool, best *lruKNode, bestDist uint64, bestUnder bool) bool {
	if candUnder != bestUnder {
		return candUnder
	}
	if candUnder {
		return cand.history[0] < best.history[0]
	}
	return candDist > bestDist
}

// Size reports the number of currently evictable frames.
func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}
