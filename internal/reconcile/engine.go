// Package reconcile aligns a project's database rows with the rendered
// video objects its generation run left in the bucket.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5"

	"northpier.systems/reelsync/internal/assetkey"
	"northpier.systems/reelsync/internal/db"
	"northpier.systems/reelsync/internal/pipeline"
)

// Store is the slice of the database layer the engine writes through.
type Store interface {
	GetProject(ctx context.Context, id string) (*db.Project, error)
	UpdateSceneVideoURL(ctx context.Context, projectID string, sceneNumber int, videoURL string) (bool, error)
	InsertScene(ctx context.Context, params db.NewSceneParams) (*db.Scene, error)
	UpdateProjectConfig(ctx context.Context, id string, cfg db.ProjectConfig) error
}

// ObjectLister lists bucket keys under a prefix.
type ObjectLister interface {
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

// URLResolver turns object keys into access URLs.
type URLResolver interface {
	ResolveURL(ctx context.Context, key string) (string, error)
}

// Asset pairs a classified key with its resolved access URL.
type Asset struct {
	Descriptor assetkey.Descriptor
	URL        string
}

// Result summarizes one reconciliation pass.
type Result struct {
	ProjectID     string
	ScenesCreated int
	ScenesUpdated int
	FinalVideoURL string
	NoOp          bool
}

// Engine reconciles discovered bucket assets into scene rows and the
// project config document.
type Engine struct {
	store   Store
	objects ObjectLister
	urls    URLResolver
	log     *slog.Logger
}

func NewEngine(store Store, objects ObjectLister, urls URLResolver, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{store: store, objects: objects, urls: urls, log: log}
}

// Run reconciles a single project: load it, list its rendered objects,
// classify them, resolve their URLs, and apply the writes.
func (e *Engine) Run(ctx context.Context, projectID string) (*Result, error) {
	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pipeline.Wrap(pipeline.ErrNotFound, "project "+projectID, nil)
		}
		return nil, pipeline.Wrap(pipeline.ErrPersistence, "load project", err)
	}

	prefix := assetkey.VideoPrefix(project.UserID, project.ID)
	keys, err := e.objects.ListKeys(ctx, prefix)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrTransport, "list rendered assets", err)
	}

	assets := make([]Asset, 0, len(keys))
	for _, key := range keys {
		desc := assetkey.Parse(key)
		if desc.Kind == assetkey.KindUnrecognized {
			e.log.Debug("ignoring unrecognized object", "key", key)
			continue
		}

		u, err := e.urls.ResolveURL(ctx, key)
		if err != nil {
			return nil, pipeline.Wrap(pipeline.ErrTransport, "resolve url for "+key, err)
		}
		assets = append(assets, Asset{Descriptor: desc, URL: u})
	}

	return e.Apply(ctx, project, assets)
}

// Apply writes the discovered assets into the store: scene upserts in
// ascending ordinal order, then the final-video config merge. Apply is
// idempotent; a second pass over the same assets rewrites the same values.
func (e *Engine) Apply(ctx context.Context, project *db.Project, assets []Asset) (*Result, error) {
	result := &Result{ProjectID: project.ID}

	scenes := make([]Asset, 0, len(assets))
	var final *Asset
	for i := range assets {
		switch assets[i].Descriptor.Kind {
		case assetkey.KindScene:
			scenes = append(scenes, assets[i])
		case assetkey.KindFinal:
			final = &assets[i]
		}
	}

	if len(scenes) == 0 && final == nil {
		result.NoOp = true
		return result, nil
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].Descriptor.SceneNumber < scenes[j].Descriptor.SceneNumber
	})

	var firstErr error
	for _, asset := range scenes {
		created, err := e.upsertScene(ctx, project.ID, asset.Descriptor.SceneNumber, asset.URL)
		if err != nil {
			if firstErr == nil {
				firstErr = pipeline.Wrap(pipeline.ErrPersistence,
					fmt.Sprintf("upsert scene %d", asset.Descriptor.SceneNumber), err)
			}
			continue
		}
		if created {
			result.ScenesCreated++
		} else {
			result.ScenesUpdated++
		}
	}

	// The config merge runs even when a scene write failed; the first
	// error is still the one reported.
	if final != nil {
		cfg := project.Config
		cfg.VideoURL = final.URL
		cfg.FinalVideoURL = final.URL

		if err := e.store.UpdateProjectConfig(ctx, project.ID, cfg); err != nil {
			if firstErr == nil {
				firstErr = pipeline.Wrap(pipeline.ErrPersistence, "update project config", err)
			}
		} else {
			result.FinalVideoURL = final.URL
		}
	}

	if firstErr != nil {
		return result, firstErr
	}
	return result, nil
}

// upsertScene updates the (project, ordinal) row in place, inserting a
// placeholder row when none exists yet. The generation pipeline later
// overwrites the placeholder prompt and timing with authoritative values.
func (e *Engine) upsertScene(ctx context.Context, projectID string, sceneNumber int, videoURL string) (created bool, err error) {
	updated, err := e.store.UpdateSceneVideoURL(ctx, projectID, sceneNumber, videoURL)
	if err != nil {
		return false, err
	}
	if updated {
		return false, nil
	}

	_, err = e.store.InsertScene(ctx, db.NewSceneParams{
		ProjectID:   projectID,
		SceneNumber: sceneNumber,
		VideoURL:    videoURL,
		Prompt:      "",
		Duration:    0,
		StartTime:   0,
	})
	if err == nil {
		return true, nil
	}
	if !db.IsUniqueViolation(err) {
		return false, err
	}

	// Lost the insert race; the row exists now, so update it.
	updated, err = e.store.UpdateSceneVideoURL(ctx, projectID, sceneNumber, videoURL)
	if err != nil {
		return false, err
	}
	if !updated {
		return false, fmt.Errorf("scene %d vanished between insert and update", sceneNumber)
	}
	return false, nil
}
