package common

import "errors"

// ErrFrameOutOfRange is returned by RecordAccess when given a frame id outside
// [0, num_frames).
var ErrFrameOutOfRange = errors.New("frame id is out of range")

// ErrFrameNotEvictable is returned by Remove when the frame it names is known
// to the replacer but currently pinned (not evictable).
var ErrFrameNotEvictable = errors.New("frame is not evictable")
