// Package schedule provides the fixed-timestep frame clock and its deferred
// task queue.
package schedule

import "sort"

// Task is work deferred to a later frame.
type Task interface {
	Run(s *Scheduler)
}

// TaskFunc adapts a function to Task.
type TaskFunc func(s *Scheduler)

// Run calls f(s).
func (f TaskFunc) Run(s *Scheduler) { f(s) }

type entry struct {
	due  uint64
	seq  uint64
	task Task
}

// Scheduler counts frames and runs delayed tasks when their frame comes up.
// It is not safe for concurrent use.
type Scheduler struct {
	fixedDelta float64
	frameDelta float64
	frame      uint64
	seq        uint64
	queue      []entry
}

// New creates a scheduler with the given fixed step in seconds.
func New(fixedDelta float64) *Scheduler {
	return &Scheduler{fixedDelta: fixedDelta}
}

// DelayFrames runs task n frames from now. n below 1 is treated as 1, so a
// task never runs during the frame that queued it.
func (s *Scheduler) DelayFrames(n int, task Task) {
	if task == nil {
		return
	}
	if n < 1 {
		n = 1
	}
	s.seq++
	s.queue = append(s.queue, entry{due: s.frame + uint64(n), seq: s.seq, task: task})
}

// Tick advances one frame that took frameDelta seconds and runs every task
// due on it in the order they were queued.
func (s *Scheduler) Tick(frameDelta float64) {
	s.frame++
	s.frameDelta = frameDelta

	var due []entry
	kept := s.queue[:0]
	for _, e := range s.queue {
		if e.due <= s.frame {
			due = append(due, e)
		} else {
			kept = append(kept, e)
		}
	}
	s.queue = kept

	sort.Slice(due, func(i, j int) bool { return due[i].seq < due[j].seq })
	for _, e := range due {
		e.task.Run(s)
	}
}

// Frame returns the number of frames ticked so far.
func (s *Scheduler) Frame() uint64 { return s.frame }

// FixedDelta returns the fixed step in seconds.
func (s *Scheduler) FixedDelta() float64 { return s.fixedDelta }

// FrameDelta returns the duration of the current frame in seconds.
func (s *Scheduler) FrameDelta() float64 { return s.frameDelta }

// Pending returns the number of queued tasks.
func (s *Scheduler) Pending() int { return len(s.queue) }
