package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Scene struct {
	ID            string
	ProjectID     string
	SceneNumber   int
	VideoURL      string
	FirstFrameURL string
	LastFrameURL  string
	Prompt        string
	Duration      float64
	StartTime     float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewSceneParams contains the parameters for creating a scene row.
type NewSceneParams struct {
	ProjectID   string
	SceneNumber int
	VideoURL    string
	Prompt      string
	Duration    float64
	StartTime   float64
}

// InsertScene creates a scene row with a fresh id. The unique constraint on
// (project_id, scene_number) rejects duplicates; callers racing another
// writer should check IsUniqueViolation and fall back to an update.
func (db *DatabaseConnection) InsertScene(ctx context.Context, params NewSceneParams) (*Scene, error) {
	row := db.QueryRow(ctx, `INSERT INTO scenes (id, project_id, scene_number, video_url, prompt, duration, start_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, project_id, scene_number, COALESCE(video_url, ''),
			COALESCE(first_frame_url, ''), COALESCE(last_frame_url, ''),
			prompt, duration, start_time, created_at, updated_at`,
		uuid.NewString(), params.ProjectID, params.SceneNumber, params.VideoURL,
		params.Prompt, params.Duration, params.StartTime)

	var s Scene
	err := row.Scan(&s.ID, &s.ProjectID, &s.SceneNumber, &s.VideoURL,
		&s.FirstFrameURL, &s.LastFrameURL, &s.Prompt, &s.Duration, &s.StartTime,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSceneVideoURL points an existing (project, ordinal) row at a video
// and reports whether a row matched.
func (db *DatabaseConnection) UpdateSceneVideoURL(ctx context.Context, projectID string, sceneNumber int, videoURL string) (bool, error) {
	tag, err := db.Exec(ctx, `UPDATE scenes SET video_url = $3, updated_at = now()
		WHERE project_id = $1 AND scene_number = $2`,
		projectID, sceneNumber, videoURL)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
