package frame

// Store is the ordered sequence of frames taken during one capture run.
// A frame's sequence index is its position in the store.
//
// Store is not safe for concurrent use; it is owned by a single capture run.
type Store struct {
	frames []*Frame
}

// NewStore creates an empty store with room for n frames.
func NewStore(n int) *Store {
	if n < 0 {
		n = 0
	}
	return &Store{frames: make([]*Frame, 0, n)}
}

// Append adds f and returns its sequence index.
func (s *Store) Append(f *Frame) int {
	s.frames = append(s.frames, f)
	return len(s.frames) - 1
}

// Len returns the number of stored frames.
func (s *Store) Len() int {
	return len(s.frames)
}

// At returns the frame with sequence index i.
func (s *Store) At(i int) *Frame {
	return s.frames[i]
}

// Last returns the most recent frame, or nil if the store is empty.
func (s *Store) Last() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Frames returns the stored frames in capture order.
func (s *Store) Frames() []*Frame {
	out := make([]*Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

// Reset drops all frames.
func (s *Store) Reset() {
	s.frames = s.frames[:0]
}
