package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/hibiken/asynq"

	"github.com/taskhive/taskhive/jobs"
)

// JobsCLI bundles the enqueue client and the Asynq inspector behind the
// ops subcommands.
type JobsCLI struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

// NewJobsCLI connects both halves to the given Redis address.
func NewJobsCLI(redisAddr string) (*JobsCLI, error) {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client, err := jobs.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return &JobsCLI{client: client, inspector: asynq.NewInspector(opts)}, nil
}

// Close shuts down the inspector and the client, keeping the last error.
func (c *JobsCLI) Close() error {
	var last error
	if c.inspector != nil {
		last = c.inspector.Close()
	}
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			last = err
		}
	}
	return last
}

// Trigger enqueues a supported job by name. retentionHours only applies
// to the token purge job; zero falls back to the job default.
func (c *JobsCLI) Trigger(ctx context.Context, name string, retentionHours int) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	switch name {
	case jobs.TaskTokenPurge:
		return c.client.EnqueueTokenPurge(ctx, retentionHours)
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
}

// QueueStats is what the stats subcommand prints, one counter per state.
type QueueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
}

// InspectQueue reads the counters for the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	if info == nil {
		return QueueStats{Queue: jobs.QueueDefault}, nil
	}
	return QueueStats{
		Queue:     jobs.QueueDefault,
		Pending:   int(info.Pending),
		Active:    int(info.Active),
		Scheduled: int(info.Scheduled),
		Retry:     int(info.Retry),
	}, nil
}

// defaultScheduledPage bounds the scheduled listing when no size is given.
const defaultScheduledPage = 10

// ListScheduled pages through tasks parked on the scheduler.
func (c *JobsCLI) ListScheduled(ctx context.Context, size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = defaultScheduledPage
	}
	return c.inspector.ListScheduledTasks(jobs.QueueDefault, asynq.PageSize(size), asynq.Page(1))
}

func runJobs(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("jobs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	redisAddr := fs.String("redis", "127.0.0.1:6379", "redis address")
	retention := fs.Int("retention-hours", 0, "retention window for the token purge job (0 = job default)")
	size := fs.Int("size", 10, "number of scheduled tasks to list")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "jobs: expected a subcommand: trigger, stats or scheduled")
		return 2
	}

	cli, err := NewJobsCLI(*redisAddr)
	if err != nil {
		fmt.Fprintf(stderr, "jobs: connect: %v\n", err)
		return 1
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch fs.Arg(0) {
	case "trigger":
		if fs.NArg() < 2 {
			fmt.Fprintln(stderr, "jobs: trigger requires a task type")
			return 2
		}
		info, err := cli.Trigger(ctx, fs.Arg(1), *retention)
		if err != nil {
			fmt.Fprintf(stderr, "jobs: trigger: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
		return 0
	case "stats":
		stats, err := cli.InspectQueue(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "jobs: stats: %v\n", err)
			return 1
		}
		if err := json.NewEncoder(stdout).Encode(stats); err != nil {
			fmt.Fprintf(stderr, "jobs: encode output: %v\n", err)
			return 1
		}
		return 0
	case "scheduled":
		infos, err := cli.ListScheduled(ctx, *size)
		if err != nil {
			fmt.Fprintf(stderr, "jobs: scheduled: %v\n", err)
			return 1
		}
		for _, info := range infos {
			fmt.Fprintf(stdout, "%s id=%s next=%s\n", info.Type, info.ID, info.NextProcessAt.Format(time.RFC3339))
		}
		fmt.Fprintf(stdout, "%d scheduled task(s)\n", len(infos))
		return 0
	default:
		fmt.Fprintf(stderr, "jobs: unknown subcommand %q\n", fs.Arg(0))
		return 2
	}
}
