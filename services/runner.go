package services

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Runner executes restic invocations. The repository password is always
// supplied through RESTIC_PASSWORD in the subprocess environment, never
// on the command line, so it cannot leak through the process list.
//
// Each call creates an independent exec.Cmd; the Runner itself is safe
// for concurrent use. A weighted semaphore caps how many streaming jobs
// run at once.
type Runner struct {
	bin     string
	timeout time.Duration
	jobs    *semaphore.Weighted
}

func NewRunner(bin string, timeout time.Duration, maxJobs int) *Runner {
	if maxJobs < 1 {
		maxJobs = 1
	}
	return &Runner{bin: bin, timeout: timeout, jobs: semaphore.NewWeighted(int64(maxJobs))}
}

func (r *Runner) command(ctx context.Context, secret string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, r.bin, args...)
	cmd.Env = append(os.Environ(), "RESTIC_PASSWORD="+secret)
	return cmd
}

// Run executes a short restic call and returns its combined output.
// The configured one-shot timeout applies.
func (r *Runner) Run(ctx context.Context, secret string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.command(ctx, secret, args...).CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("restic %s failed: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// Output executes a short restic call and returns stdout. Stderr is
// folded into the error on failure.
func (r *Runner) Output(ctx context.Context, secret string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := r.command(ctx, secret, args...)
	out, err := cmd.Output()
	if err != nil {
		stderr := ""
		if ee, ok := err.(*exec.ExitError); ok {
			stderr = strings.TrimSpace(string(ee.Stderr))
		}
		return "", fmt.Errorf("restic %s failed: %w: %s", args[0], err, stderr)
	}
	return string(out), nil
}

// Job is one running streaming invocation. Lines delivers stdout and
// stderr merged, in emission order; the channel closes when the output
// pipe drains. Wait must be called exactly once after Lines closes.
//
// The subprocess lifetime is bound to the context passed to Stream:
// cancellation (a dropped caller connection) kills the process, so no
// invocation outlives its request.
type Job struct {
	cmd     *exec.Cmd
	lines   chan string
	release func()
	once    sync.Once
}

// Lines returns the merged output line channel.
func (j *Job) Lines() <-chan string { return j.lines }

// Wait blocks until the subprocess exits and reports its outcome. A
// nonzero exit code is returned as an error.
func (j *Job) Wait() error {
	err := j.cmd.Wait()
	j.once.Do(j.release)
	return err
}

// Stream starts a long-running restic invocation and returns the job
// handle. stdin may be nil. No timeout applies; the process runs until
// it exits or ctx is cancelled.
func (r *Runner) Stream(ctx context.Context, secret string, stdin io.Reader, args ...string) (*Job, error) {
	if err := r.jobs.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	cmd := r.command(ctx, secret, args...)
	cmd.Stdin = stdin
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.jobs.Release(1)
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	// Merge stderr into the stdout pipe so callers see one ordered
	// stream, matching restic's own interleaving.
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		r.jobs.Release(1)
		return nil, fmt.Errorf("failed to start restic: %w", err)
	}

	job := &Job{
		cmd:     cmd,
		lines:   make(chan string),
		release: func() { r.jobs.Release(1) },
	}

	go func() {
		defer close(job.lines)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case job.lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	return job, nil
}
