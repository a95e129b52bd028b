package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Project statuses as stored in projects.status.
const (
	ProjectStatusDraft      = "draft"
	ProjectStatusGenerating = "generating"
	ProjectStatusCompleted  = "completed"
	ProjectStatusFailed     = "failed"
)

type Project struct {
	ID            string
	UserID        string
	Status        string
	Config        ProjectConfig
	FinalVideoURL string
	ThumbnailURL  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const projectColumns = `id, user_id, status, COALESCE(config, '{}'::jsonb),
	COALESCE(final_video_url, ''), COALESCE(thumbnail_url, ''), created_at, updated_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	var cfg []byte

	err := row.Scan(&p.ID, &p.UserID, &p.Status, &cfg,
		&p.FinalVideoURL, &p.ThumbnailURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(cfg, &p.Config); err != nil {
		return nil, fmt.Errorf("failed to decode project config: %w", err)
	}
	return &p, nil
}

// GetProject loads one project row. Missing rows surface as pgx.ErrNoRows.
func (db *DatabaseConnection) GetProject(ctx context.Context, id string) (*Project, error) {
	row := db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

// ListThumbnailCandidates returns every project holding a final video,
// newest first. The id tie-break keeps repeated batches in the same order.
func (db *DatabaseConnection) ListThumbnailCandidates(ctx context.Context) ([]*Project, error) {
	rows, err := db.Query(ctx, `SELECT `+projectColumns+` FROM projects
		WHERE final_video_url IS NOT NULL AND final_video_url <> ''
		ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProjectConfig overwrites the config document and touches updated_at.
func (db *DatabaseConnection) UpdateProjectConfig(ctx context.Context, id string, cfg ProjectConfig) error {
	doc, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode project config: %w", err)
	}

	tag, err := db.Exec(ctx, `UPDATE projects SET config = $2, updated_at = now() WHERE id = $1`, id, doc)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdateProjectThumbnail persists the thumbnail URL into both the dedicated
// column and the config document in a single statement, so the two can
// never disagree.
func (db *DatabaseConnection) UpdateProjectThumbnail(ctx context.Context, id, url string, cfg ProjectConfig) error {
	doc, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode project config: %w", err)
	}

	tag, err := db.Exec(ctx, `UPDATE projects SET thumbnail_url = $2, config = $3, updated_at = now() WHERE id = $1`,
		id, url, doc)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
