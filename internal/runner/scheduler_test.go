package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"itcbench/internal/itc"
	"itcbench/internal/portfolio"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeExecutor counts concurrent runs and fabricates outcomes without
// touching real processes.
type fakeExecutor struct {
	mu        sync.Mutex
	active    int
	maxActive int
	delay     time.Duration
	outcome   func(Job) Outcome
}

func (f *fakeExecutor) Run(job Job) Outcome {
	f.mu.Lock()
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	if f.outcome != nil {
		return f.outcome(job)
	}
	return Outcome{Job: job, Status: OutcomeCompleted}
}

func fakeJobs(t *testing.T, n int) []Job {
	t.Helper()
	conf := &portfolio.Configuration{Name: "DEF", Method: portfolio.MethodExact}
	jobs := make([]Job, n)
	for i := range jobs {
		inst, err := itc.NewInstance(itc.CategoryTest, i+1, "inst.xml")
		require.NoError(t, err)
		jobs[i] = Job{Instance: inst, Config: conf, Deadline: time.Second}
	}
	return jobs
}

func TestSchedulerNeverExceedsSlots(t *testing.T) {
	const slots = 4
	exec := &fakeExecutor{delay: 10 * time.Millisecond}
	sched := Scheduler{Slots: slots}

	outcomes, tally := sched.Run(context.Background(), fakeJobs(t, 20), exec)

	assert.Len(t, outcomes, 20)
	assert.Equal(t, 20, tally.Completed)
	assert.LessOrEqual(t, exec.maxActive, slots)
	assert.Greater(t, exec.maxActive, 1, "pool should actually run jobs in parallel")
}

// Three instances, two configurations, one slot; the slow configuration
// only blows its deadline on instance 2. Expect six results with
// exactly one timed out.
func TestSchedulerTimeoutScenario(t *testing.T) {
	slow := &portfolio.Configuration{Name: "SLOW", Method: portfolio.MethodExact}
	fast := &portfolio.Configuration{Name: "FAST", Method: portfolio.MethodExact}

	var jobs []Job
	for n := 1; n <= 3; n++ {
		inst, err := itc.NewInstance(itc.CategoryTest, n, "inst.xml")
		require.NoError(t, err)
		for _, conf := range []*portfolio.Configuration{fast, slow} {
			jobs = append(jobs, Job{Instance: inst, Config: conf, Deadline: 2 * time.Second})
		}
	}

	exec := &fakeExecutor{outcome: func(job Job) Outcome {
		if job.Config.Name == "SLOW" && job.Instance.Number == 2 {
			return Outcome{Job: job, Status: OutcomeTimedOut, Elapsed: job.Deadline}
		}
		return Outcome{Job: job, Status: OutcomeCompleted}
	}}

	outcomes, tally := Scheduler{Slots: 1}.Run(context.Background(), jobs, exec)

	require.Len(t, outcomes, 6)
	assert.Equal(t, 5, tally.Completed)
	assert.Equal(t, 1, tally.TimedOut)
	assert.Equal(t, 1, exec.maxActive, "pool of one must serialize")
}

func TestSchedulerFIFODispatch(t *testing.T) {
	var mu sync.Mutex
	var order []string
	exec := &fakeExecutor{outcome: func(job Job) Outcome {
		mu.Lock()
		order = append(order, job.ID())
		mu.Unlock()
		return Outcome{Job: job, Status: OutcomeCompleted}
	}}

	jobs := fakeJobs(t, 5)
	_, _ = Scheduler{Slots: 1}.Run(context.Background(), jobs, exec)

	// With one slot, execution order is exactly queue order.
	require.Len(t, order, 5)
	for i, job := range jobs {
		assert.Equal(t, job.ID(), order[i])
	}
}

func TestSchedulerCancellationDrains(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	release := make(chan struct{})
	startedFirst := make(chan struct{})
	var once sync.Once
	exec := &fakeExecutor{outcome: func(job Job) Outcome {
		once.Do(func() { close(startedFirst) })
		<-release
		return Outcome{Job: job, Status: OutcomeCompleted}
	}}

	jobs := fakeJobs(t, 4)
	done := make(chan struct{})
	var outcomes []Outcome
	var tally Tally
	go func() {
		defer close(done)
		outcomes, tally = Scheduler{Slots: 1}.Run(ctx, jobs, exec)
	}()

	// Cancel while job 1 is in flight; it must still finish, the rest
	// must never start.
	<-startedFirst
	cancel()
	time.Sleep(20 * time.Millisecond)
	close(release)
	<-done

	assert.Len(t, outcomes, 1)
	assert.Equal(t, 1, tally.Completed)
	assert.Equal(t, 3, tally.NeverStarted)
	assert.Equal(t, len(jobs), tally.Total())
}
