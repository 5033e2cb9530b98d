package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bryanchriswhite/ScrollStitch/internal/frame"
	"github.com/bryanchriswhite/ScrollStitch/internal/scrolling"
	"github.com/bryanchriswhite/ScrollStitch/internal/stitch"
	"github.com/bryanchriswhite/ScrollStitch/internal/window"
	"github.com/google/uuid"
)

// JobState is the lifecycle state of a capture job
type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobDone      JobState = "done"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
)

// Finished reports whether the job will not change anymore
func (s JobState) Finished() bool {
	return s == JobDone || s == JobFailed || s == JobCancelled
}

// JobStatus is the JSON view of a capture job
type JobStatus struct {
	ID         string               `json:"id"`
	WindowID   window.Handle        `json:"window_id"`
	State      JobState             `json:"state"`
	Frames     int                  `json:"frames"`
	Iterations int                  `json:"iterations"`
	Reason     scrolling.StopReason `json:"reason,omitempty"`
	Error      string               `json:"error,omitempty"`
	Width      int                  `json:"width,omitempty"`
	Height     int                  `json:"height,omitempty"`
	Segments   []stitch.Segment     `json:"segments,omitempty"`
	SavedPath  string               `json:"saved_path,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	FinishedAt *time.Time           `json:"finished_at,omitempty"`
}

// Message is one websocket frame of a capture's event stream: controller
// events while the capture runs, status snapshots first and last.
type Message struct {
	Type   string           `json:"type"`
	Event  *scrolling.Event `json:"event,omitempty"`
	Status *JobStatus       `json:"status,omitempty"`
}

func statusMessage(st JobStatus) Message {
	return Message{Type: "status", Status: &st}
}

func eventMessage(ev scrolling.Event) Message {
	return Message{Type: "event", Event: &ev}
}

// job tracks one capture and the websocket clients watching it
type job struct {
	status    JobStatus
	image     *frame.Frame
	cancel    context.CancelFunc
	listeners []chan Message
}

// jobStore holds capture jobs in memory
type jobStore struct {
	mu   sync.RWMutex
	jobs map[string]*job
}

func newJobStore() *jobStore {
	return &jobStore{jobs: make(map[string]*job)}
}

// create registers a queued job for target
func (s *jobStore) create(target window.Handle, cancel context.CancelFunc) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id] = &job{
		status: JobStatus{
			ID:        id,
			WindowID:  target,
			State:     JobQueued,
			CreatedAt: time.Now(),
		},
		cancel: cancel,
	}
	return id
}

// get returns a snapshot of the job status
func (s *jobStore) get(id string) (JobStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return JobStatus{}, false
	}
	return j.status, true
}

// image returns the stitched image of a finished job
func (s *jobStore) image(id string) (*frame.Frame, JobState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, "", false
	}
	return j.image, j.status.State, true
}

// cancel requests cancellation of a job that has not finished
func (s *jobStore) cancel(id string) (JobState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return "", false
	}
	if !j.status.State.Finished() {
		j.cancel()
	}
	return j.status.State, true
}

// observe applies a controller event to the job and forwards it to listeners
func (s *jobStore) observe(id string, ev scrolling.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return
	}
	if j.status.State == JobQueued {
		j.status.State = JobRunning
	}
	j.status.Frames = ev.Frames
	j.notifyListeners(eventMessage(ev))
}

// finish records the outcome, sends the final status and closes listeners
func (s *jobStore) finish(id string, res *scrolling.Result, err error, savedPath string) JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return JobStatus{}
	}

	now := time.Now()
	st := &j.status
	st.FinishedAt = &now
	st.SavedPath = savedPath

	switch {
	case err != nil && res == nil:
		st.State = JobFailed
		if errors.Is(err, context.Canceled) {
			st.State = JobCancelled
		}
		st.Error = err.Error()
	default:
		st.State = JobDone
		if res.Reason == scrolling.StopCancelled {
			st.State = JobCancelled
		}
		if err != nil {
			st.Error = err.Error()
		} else if res.Err != nil {
			st.Error = res.Err.Error()
		}
		st.Frames = res.Frames
		st.Iterations = res.Iterations
		st.Reason = res.Reason
		st.Segments = res.Segments
		if res.Image != nil {
			j.image = res.Image
			st.Width = res.Image.Width
			st.Height = res.Image.Height
		}
	}

	j.notifyListeners(statusMessage(j.status))
	for _, ch := range j.listeners {
		close(ch)
	}
	j.listeners = nil
	j.cancel()
	return j.status
}

// subscribe adds a listener for a job's events. The first message is the
// current status. For a finished job the channel is closed right after it.
func (s *jobStore) subscribe(id string) (chan Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	ch := make(chan Message, 128)
	ch <- statusMessage(j.status)
	if j.status.State.Finished() {
		close(ch)
		return ch, true
	}
	j.listeners = append(j.listeners, ch)
	return ch, true
}

// unsubscribe removes a listener
func (s *jobStore) unsubscribe(id string, ch chan Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return
	}
	for i, listener := range j.listeners {
		if listener == ch {
			j.listeners = append(j.listeners[:i], j.listeners[i+1:]...)
			close(ch)
			break
		}
	}
}

// notifyListeners sends msg to every listener, dropping events for slow
// ones. The last buffer slot is left for the final status, and all sends
// happen under the store lock, so that status always fits.
func (j *job) notifyListeners(msg Message) {
	for _, ch := range j.listeners {
		if msg.Type == "event" && len(ch) >= cap(ch)-1 {
			continue
		}
		select {
		case ch <- msg:
		default:
		}
	}
}
