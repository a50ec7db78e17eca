package scheduler

import (
	"context"
	"fmt"
	"sync"
)

// SubmissionRecord captures one Submit call on the FakeClient, with a
// logical clock value for ordering assertions against poll events.
type SubmissionRecord struct {
	Handle  JobHandle
	Request SubmitRequest
	Seq     int
}

// PollRecord captures one Poll call on the FakeClient.
type PollRecord struct {
	Handle JobHandle
	State  JobState
	Seq    int
}

// FakeClient is an in-memory scheduler client for tests. It records
// every submission and poll with a shared logical clock so tests can
// assert that stage N+1 submissions happen only after every stage-N
// handle polled terminal. Job behavior is scripted: either per-handle
// poll state sequences, or a SubmitFunc that "runs" the job at
// submission time and fixes its terminal state immediately.
type FakeClient struct {
	mu sync.Mutex

	clock       int
	nextID      int
	states      map[JobHandle]JobState
	scripts     map[JobHandle][]JobState
	submissions []SubmissionRecord
	polls       []PollRecord

	// SubmitFunc, when set, decides each job's outcome at submission
	// time. Returning an error simulates a scheduler rejection.
	SubmitFunc func(req SubmitRequest) (JobState, error)

	// AutoScript, when set, is applied as the poll script of every
	// newly submitted job. Lets tests script jobs that are submitted
	// by code under test rather than by the test itself.
	AutoScript []JobState
}

// NewFakeClient creates an empty FakeClient. Jobs submitted without a
// SubmitFunc start in pending and stay there until scripted.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		states:  make(map[JobHandle]JobState),
		scripts: make(map[JobHandle][]JobState),
	}
}

// Submit records the request and returns a fresh handle.
func (f *FakeClient) Submit(ctx context.Context, req SubmitRequest) (JobHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	state := JobStatePending
	if f.SubmitFunc != nil {
		var err error
		state, err = f.SubmitFunc(req)
		if err != nil {
			return "", err
		}
	}

	f.nextID++
	f.clock++
	handle := JobHandle(fmt.Sprintf("fake-%d", f.nextID))
	f.states[handle] = state
	if len(f.AutoScript) > 0 {
		f.scripts[handle] = append([]JobState(nil), f.AutoScript...)
	}
	f.submissions = append(f.submissions, SubmissionRecord{
		Handle:  handle,
		Request: req,
		Seq:     f.clock,
	})
	return handle, nil
}

// Poll returns the job's current state, advancing any scripted state
// sequence by one step per call. The last scripted state sticks.
func (f *FakeClient) Poll(ctx context.Context, handle JobHandle) (JobState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.states[handle]; !ok {
		return "", fmt.Errorf("unknown job handle %q", handle)
	}

	if script := f.scripts[handle]; len(script) > 0 {
		f.states[handle] = script[0]
		if len(script) > 1 {
			f.scripts[handle] = script[1:]
		}
	}

	state := f.states[handle]
	f.clock++
	f.polls = append(f.polls, PollRecord{Handle: handle, State: state, Seq: f.clock})
	return state, nil
}

// Script sets the sequence of states successive polls of handle will
// observe. The final state repeats forever.
func (f *FakeClient) Script(handle JobHandle, states ...JobState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[handle] = states
}

// SetState fixes the job's state directly.
func (f *FakeClient) SetState(handle JobHandle, state JobState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[handle] = state
}

// Submissions returns all recorded submissions in order.
func (f *FakeClient) Submissions() []SubmissionRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SubmissionRecord, len(f.submissions))
	copy(out, f.submissions)
	return out
}

// Polls returns all recorded polls in order.
func (f *FakeClient) Polls() []PollRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]PollRecord, len(f.polls))
	copy(out, f.polls)
	return out
}
