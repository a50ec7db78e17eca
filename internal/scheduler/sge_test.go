package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiti15237/American-Gut/internal/types"
)

// stubRunner replays canned outputs keyed by the tool being invoked and
// records the argv of each call.
type stubRunner struct {
	outputs map[string][]byte
	errs    map[string]error
	calls   [][]string
}

func (s *stubRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	s.calls = append(s.calls, append([]string{name}, args...))
	return s.outputs[name], s.errs[name]
}

func newStubClient(s *stubRunner) *GridEngineClient {
	c := NewGridEngineClient()
	c.run = s.run
	return c
}

func TestGridEngineClient_Submit(t *testing.T) {
	stub := &stubRunner{outputs: map[string][]byte{"qsub": []byte("424242\n")}}
	c := newStubClient(stub)

	handle, err := c.Submit(context.Background(), SubmitRequest{
		Command: "filter_fasta.py -f sample.fna -o sample-fecal.fna",
		Name:    "fecal-filter-sample",
		Resources: ResourceProfile{
			Queue:    QueueShort,
			Cores:    4,
			WallTime: 2 * time.Hour,
		},
		WorkDir: "/data/run1",
	})
	require.NoError(t, err)
	assert.Equal(t, JobHandle("424242"), handle)

	require.Len(t, stub.calls, 1)
	argv := stub.calls[0]
	assert.Equal(t, "qsub", argv[0])
	assert.Contains(t, argv, "-terse")
	assert.Contains(t, argv, "fecal-filter-sample")
	assert.Contains(t, argv, "short")
	assert.Contains(t, argv, "h_rt=02:00:00")
	assert.Contains(t, argv, "smp")
	assert.Contains(t, argv, "/data/run1")
	assert.Equal(t, "filter_fasta.py -f sample.fna -o sample-fecal.fna", argv[len(argv)-1])
}

func TestGridEngineClient_Submit_SingleCoreOmitsPE(t *testing.T) {
	stub := &stubRunner{outputs: map[string][]byte{"qsub": []byte("7\n")}}
	c := newStubClient(stub)

	_, err := c.Submit(context.Background(), SubmitRequest{
		Command:   "true",
		Name:      "tiny",
		Resources: ResourceProfile{Queue: QueueShort, Cores: 1, WallTime: time.Minute},
	})
	require.NoError(t, err)
	assert.NotContains(t, stub.calls[0], "smp")
}

func TestGridEngineClient_Submit_Rejected(t *testing.T) {
	stub := &stubRunner{
		outputs: map[string][]byte{"qsub": []byte("Unable to run job: unknown queue\n")},
		errs:    map[string]error{"qsub": errors.New("exit status 1")},
	}
	c := newStubClient(stub)

	_, err := c.Submit(context.Background(), SubmitRequest{
		Command:   "true",
		Name:      "bad",
		Resources: ResourceProfile{Queue: Queue("nope"), WallTime: time.Minute},
	})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.SCHED_SUBMIT_FAILED))
	assert.Contains(t, err.Error(), "unknown queue")
}

func TestGridEngineClient_Submit_UnparseableOutput(t *testing.T) {
	stub := &stubRunner{outputs: map[string][]byte{"qsub": []byte("Your job has been submitted\n")}}
	c := newStubClient(stub)

	_, err := c.Submit(context.Background(), SubmitRequest{
		Command:   "true",
		Name:      "weird",
		Resources: ResourceProfile{Queue: QueueShort, WallTime: time.Minute},
	})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.SCHED_SUBMIT_FAILED))
}

func TestParseQsubOutput_ArrayJob(t *testing.T) {
	handle, err := parseQsubOutput("1337.1-10:1\n")
	require.NoError(t, err)
	assert.Equal(t, JobHandle("1337"), handle)
}

const qstatListing = `job-ID  prior   name       user   state submit/start at     queue          slots
--------------------------------------------------------------------------------
 100    0.555  fecal-fil  agp    r     08/27/2026 10:01:02 short@node01   1
 101    0.500  fecal-fil  agp    qw    08/27/2026 10:01:05                1
 102    0.500  bloom-det  agp    Eqw   08/27/2026 10:01:06                1
`

func TestGridEngineClient_Poll_QstatStates(t *testing.T) {
	tests := []struct {
		handle   JobHandle
		expected JobState
	}{
		{"100", JobStateRunning},
		{"101", JobStatePending},
		{"102", JobStateFailed},
	}

	for _, tt := range tests {
		t.Run(string(tt.handle), func(t *testing.T) {
			stub := &stubRunner{outputs: map[string][]byte{"qstat": []byte(qstatListing)}}
			c := newStubClient(stub)

			state, err := c.Poll(context.Background(), tt.handle)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, state)
		})
	}
}

func TestGridEngineClient_Poll_FinishedJob(t *testing.T) {
	tests := []struct {
		name     string
		qacct    string
		expected JobState
	}{
		{
			name:     "clean exit",
			qacct:    "qname short\nfailed 0\nexit_status 0\n",
			expected: JobStateSucceeded,
		},
		{
			name:     "non-zero exit",
			qacct:    "qname short\nfailed 0\nexit_status 2\n",
			expected: JobStateFailed,
		},
		{
			name:     "scheduler-side failure",
			qacct:    "qname short\nfailed 100\nexit_status 0\n",
			expected: JobStateFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubRunner{outputs: map[string][]byte{
				"qstat": []byte(qstatListing),
				"qacct": []byte(tt.qacct),
			}}
			c := newStubClient(stub)

			state, err := c.Poll(context.Background(), "999")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, state)
		})
	}
}

func TestGridEngineClient_Poll_AccountingLag(t *testing.T) {
	stub := &stubRunner{
		outputs: map[string][]byte{"qstat": []byte(qstatListing)},
		errs:    map[string]error{"qacct": errors.New("job id 999 not found")},
	}
	c := newStubClient(stub)

	state, err := c.Poll(context.Background(), "999")
	require.NoError(t, err)
	assert.Equal(t, JobStateRunning, state)
}

func TestFormatWallTime(t *testing.T) {
	assert.Equal(t, "00:01:00", formatWallTime(time.Minute))
	assert.Equal(t, "02:30:00", formatWallTime(150*time.Minute))
	assert.Equal(t, "48:00:00", formatWallTime(48*time.Hour))
}
