package runner

import (
	"context"
	"sync"
)

// Call is one invocation seen by a Recorder.
type Call struct {
	Name string
	Args []string
}

// Recorder is a Commander that records calls instead of executing them.
// Respond, when set, decides the output and error for each call.
type Recorder struct {
	mu      sync.Mutex
	Calls   []Call
	Respond func(name string, args []string) (string, error)
}

// Run records the call.
func (r *Recorder) Run(ctx context.Context, name string, args ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	r.Calls = append(r.Calls, Call{Name: name, Args: append([]string(nil), args...)})
	respond := r.Respond
	r.mu.Unlock()

	if respond == nil {
		return "", nil
	}
	return respond(name, args)
}

// Recorded returns a copy of the recorded calls.
func (r *Recorder) Recorded() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.Calls...)
}
