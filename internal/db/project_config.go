package db

import (
	"encoding/json"
)

// ProjectConfig is the projects.config JSONB document. The named fields are
// the keys this pipeline reads and writes; every other key round-trips
// untouched so state owned by other services is never lost on save.
type ProjectConfig struct {
	VideoURL      string
	FinalVideoURL string
	ThumbnailURL  string
	VideoURLs     []string
	ImageURLs     []string

	extra map[string]json.RawMessage
}

func (c *ProjectConfig) UnmarshalJSON(data []byte) error {
	*c = ProjectConfig{}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	take := func(key string, dst any) error {
		v, ok := raw[key]
		if !ok {
			return nil
		}
		delete(raw, key)
		if string(v) == "null" {
			return nil
		}
		return json.Unmarshal(v, dst)
	}

	if err := take("videoUrl", &c.VideoURL); err != nil {
		return err
	}
	if err := take("finalVideoUrl", &c.FinalVideoURL); err != nil {
		return err
	}
	if err := take("thumbnailUrl", &c.ThumbnailURL); err != nil {
		return err
	}
	if err := take("videoUrls", &c.VideoURLs); err != nil {
		return err
	}
	if err := take("imageUrls", &c.ImageURLs); err != nil {
		return err
	}

	if len(raw) > 0 {
		c.extra = raw
	}
	return nil
}

func (c ProjectConfig) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.extra)+5)
	for k, v := range c.extra {
		out[k] = v
	}

	if c.VideoURL != "" {
		out["videoUrl"] = c.VideoURL
	}
	if c.FinalVideoURL != "" {
		out["finalVideoUrl"] = c.FinalVideoURL
	}
	if c.ThumbnailURL != "" {
		out["thumbnailUrl"] = c.ThumbnailURL
	}
	if len(c.VideoURLs) > 0 {
		out["videoUrls"] = c.VideoURLs
	}
	if len(c.ImageURLs) > 0 {
		out["imageUrls"] = c.ImageURLs
	}

	return json.Marshal(out)
}
