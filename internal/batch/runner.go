// Package batch drives pipeline passes across project sets with per-item
// failure isolation.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"northpier.systems/reelsync/internal/db"
	"northpier.systems/reelsync/internal/pipeline"
	"northpier.systems/reelsync/internal/reconcile"
	"northpier.systems/reelsync/internal/thumbnail"
)

// ProjectSource selects the projects a pass runs over.
type ProjectSource interface {
	GetProject(ctx context.Context, id string) (*db.Project, error)
	ListThumbnailCandidates(ctx context.Context) ([]*db.Project, error)
}

// Reconciler runs one reconciliation pass for one project.
type Reconciler interface {
	Run(ctx context.Context, projectID string) (*reconcile.Result, error)
}

// Processor derives one thumbnail for one project.
type Processor interface {
	Process(ctx context.Context, project *db.Project, opts thumbnail.Options) (*thumbnail.Outcome, error)
}

// Item statuses in a run summary.
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// SkipNoAssets marks reconciliations that found nothing to do.
const SkipNoAssets = "no_assets"

// Item is the per-project line of a run summary.
type Item struct {
	ProjectID string
	Status    string
	Detail    string
}

// Summary aggregates one batch run.
type Summary struct {
	Success int
	Skipped int
	Failed  int
	Items   []Item
}

// Err returns a non-nil error when any item failed, so commands can turn a
// partial batch into a non-zero exit.
func (s *Summary) Err() error {
	if s.Failed > 0 {
		return fmt.Errorf("%d of %d projects failed", s.Failed, len(s.Items))
	}
	return nil
}

func (s *Summary) record(item Item) {
	switch item.Status {
	case StatusSuccess:
		s.Success++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
	s.Items = append(s.Items, item)
}

// Runner sequences pipeline passes over projects, one at a time.
type Runner struct {
	projects ProjectSource
	log      *slog.Logger
}

func NewRunner(projects ProjectSource, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{projects: projects, log: log}
}

// RunReconcile reconciles a single project and reports a one-item summary.
func (r *Runner) RunReconcile(ctx context.Context, engine Reconciler, projectID string) *Summary {
	summary := &Summary{}

	result, err := engine.Run(ctx, projectID)
	switch {
	case err != nil:
		r.log.Error("project failed",
			"project_id", projectID,
			"class", pipeline.Class(err),
			"error", err)
		summary.record(Item{ProjectID: projectID, Status: StatusFailed, Detail: err.Error()})
	case result.NoOp:
		r.log.Info("project skipped", "project_id", projectID, "reason", SkipNoAssets)
		summary.record(Item{ProjectID: projectID, Status: StatusSkipped, Detail: SkipNoAssets})
	default:
		r.log.Info("project reconciled",
			"project_id", projectID,
			"scenes_created", result.ScenesCreated,
			"scenes_updated", result.ScenesUpdated,
			"has_final_video", result.FinalVideoURL != "")
		summary.record(Item{ProjectID: projectID, Status: StatusSuccess})
	}

	r.logSummary("reconcile", summary)
	return summary
}

// RunThumbnails processes every project holding a final video, or just
// projectID when one is given. A failing project is recorded and the batch
// moves on to the next.
func (r *Runner) RunThumbnails(ctx context.Context, worker Processor, opts thumbnail.Options, projectID string) *Summary {
	summary := &Summary{}

	projects, err := r.selectProjects(ctx, projectID)
	if err != nil {
		r.log.Error("project selection failed", "class", pipeline.Class(err), "error", err)
		summary.record(Item{ProjectID: projectID, Status: StatusFailed, Detail: err.Error()})
		r.logSummary("thumbnails", summary)
		return summary
	}

	for _, project := range projects {
		if ctx.Err() != nil {
			r.log.Warn("batch interrupted", "remaining", len(projects)-len(summary.Items))
			summary.record(Item{ProjectID: project.ID, Status: StatusFailed, Detail: ctx.Err().Error()})
			break
		}

		outcome, err := worker.Process(ctx, project, opts)
		switch {
		case err != nil:
			r.log.Error("project failed",
				"project_id", project.ID,
				"class", pipeline.Class(err),
				"error", err)
			summary.record(Item{ProjectID: project.ID, Status: StatusFailed, Detail: err.Error()})
		case outcome.Skipped:
			r.log.Info("project skipped", "project_id", project.ID, "reason", outcome.SkipReason)
			summary.record(Item{ProjectID: project.ID, Status: StatusSkipped, Detail: outcome.SkipReason})
		case outcome.Simulated:
			r.log.Info("thumbnail simulated", "project_id", project.ID)
			summary.record(Item{ProjectID: project.ID, Status: StatusSuccess, Detail: "dry-run"})
		default:
			r.log.Info("thumbnail generated", "project_id", project.ID, "url", outcome.ThumbnailURL)
			summary.record(Item{ProjectID: project.ID, Status: StatusSuccess, Detail: outcome.ThumbnailURL})
		}
	}

	r.logSummary("thumbnails", summary)
	return summary
}

// selectProjects resolves the work list: one project by id, or every
// thumbnail candidate. A project named explicitly is fetched regardless of
// whether it holds a final video, so its skip reason can be reported.
func (r *Runner) selectProjects(ctx context.Context, projectID string) ([]*db.Project, error) {
	if projectID == "" {
		projects, err := r.projects.ListThumbnailCandidates(ctx)
		if err != nil {
			return nil, pipeline.Wrap(pipeline.ErrPersistence, "list projects", err)
		}
		return projects, nil
	}

	project, err := r.projects.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pipeline.Wrap(pipeline.ErrNotFound, "project "+projectID, nil)
		}
		return nil, pipeline.Wrap(pipeline.ErrPersistence, "load project", err)
	}
	return []*db.Project{project}, nil
}

func (r *Runner) logSummary(operation string, s *Summary) {
	r.log.Info("batch complete",
		"operation", operation,
		"success", s.Success,
		"skipped", s.Skipped,
		"failed", s.Failed)
}
