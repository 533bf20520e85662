package sim

import (
	"context"
	"database/sql"

	"randomflight/internal/db"
	"randomflight/internal/publisher"
	"randomflight/internal/report"
)

// FileSink writes the report as a single JSON or YAML document.
type FileSink struct {
	Path   string
	Format report.Format
}

func (s FileSink) Name() string { return "file" }

func (s FileSink) Save(_ context.Context, _ report.Run, r report.Report) error {
	return report.Save(s.Path, r, s.Format)
}

// PostgresSink stores the run and its per-airport rows.
type PostgresSink struct {
	DB *sql.DB
}

func (s PostgresSink) Name() string { return "postgres" }

func (s PostgresSink) Save(ctx context.Context, run report.Run, r report.Report) error {
	return db.SaveReport(ctx, s.DB, run, r)
}

// RunPublisher announces finished runs.
type RunPublisher interface {
	PublishRun(msg publisher.RunMessage) error
}

// NATSSink publishes the run summary; per-airport messages go out during the run.
type NATSSink struct {
	Pub RunPublisher
}

func (s NATSSink) Name() string { return "nats" }

func (s NATSSink) Save(_ context.Context, run report.Run, r report.Report) error {
	unreturned := r.Unreturned()
	if unreturned == nil {
		unreturned = []string{}
	}
	return s.Pub.PublishRun(publisher.RunMessage{
		RunID:      run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Trials:     run.Trials,
		MaxHops:    run.MaxHops,
		Airports:   len(r),
		Unreturned: unreturned,
	})
}
