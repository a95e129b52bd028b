package db

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectConfigPreservesUnknownKeys(t *testing.T) {
	doc := `{
		"videoUrl": "https://cdn.test/output.mp4",
		"musicUrl": "https://cdn.test/music.mp3",
		"captions": {"enabled": true, "language": "en"},
		"revision": 7
	}`

	var cfg ProjectConfig
	require.NoError(t, json.Unmarshal([]byte(doc), &cfg))
	require.Equal(t, "https://cdn.test/output.mp4", cfg.VideoURL)

	cfg.ThumbnailURL = "https://cdn.test/thumb.jpg"

	out, err := json.Marshal(cfg)
	require.NoError(t, err)

	var round map[string]any
	require.NoError(t, json.Unmarshal(out, &round))
	assert.Equal(t, "https://cdn.test/output.mp4", round["videoUrl"])
	assert.Equal(t, "https://cdn.test/thumb.jpg", round["thumbnailUrl"])
	assert.Equal(t, "https://cdn.test/music.mp3", round["musicUrl"])
	assert.Equal(t, map[string]any{"enabled": true, "language": "en"}, round["captions"])
	assert.Equal(t, float64(7), round["revision"])
}

func TestProjectConfigOverwritesInPlace(t *testing.T) {
	var cfg ProjectConfig
	require.NoError(t, json.Unmarshal([]byte(`{"videoUrl": "https://cdn.test/old.mp4"}`), &cfg))

	cfg.VideoURL = "https://cdn.test/new.mp4"
	cfg.FinalVideoURL = "https://cdn.test/new.mp4"

	out, err := json.Marshal(cfg)
	require.NoError(t, err)

	var round map[string]any
	require.NoError(t, json.Unmarshal(out, &round))
	assert.Len(t, round, 2)
	assert.Equal(t, "https://cdn.test/new.mp4", round["videoUrl"])
	assert.Equal(t, "https://cdn.test/new.mp4", round["finalVideoUrl"])
}

func TestProjectConfigEmptyFieldsOmitted(t *testing.T) {
	out, err := json.Marshal(ProjectConfig{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(out))
}

func TestProjectConfigNullDocument(t *testing.T) {
	var cfg ProjectConfig
	require.NoError(t, json.Unmarshal([]byte(`null`), &cfg))
	assert.Empty(t, cfg.VideoURL)
	assert.Empty(t, cfg.ThumbnailURL)
}

func TestProjectConfigLegacyLists(t *testing.T) {
	doc := `{"videoUrls": ["a.mp4", "b.mp4"], "imageUrls": ["a.png"]}`

	var cfg ProjectConfig
	require.NoError(t, json.Unmarshal([]byte(doc), &cfg))
	require.Equal(t, []string{"a.mp4", "b.mp4"}, cfg.VideoURLs)
	require.Equal(t, []string{"a.png"}, cfg.ImageURLs)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, doc, string(out))
}

func TestProjectConfigRoundTripIsStable(t *testing.T) {
	doc := `{"videoUrl": "v.mp4", "thumbnailUrl": "t.jpg", "theme": "noir"}`

	var first ProjectConfig
	require.NoError(t, json.Unmarshal([]byte(doc), &first))

	mid, err := json.Marshal(first)
	require.NoError(t, err)

	var second ProjectConfig
	require.NoError(t, json.Unmarshal(mid, &second))

	final, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(mid), string(final))
	assert.JSONEq(t, doc, string(final))
}
