// Package assetkey parses and builds the object keys used by the rendering
// pipeline's bucket layout.
//
// The rendering service writes per-scene clips and a stitched output video
// under users/{userID}/projects/{projectID}/video/; this package classifies
// those keys and constructs the keys this pipeline writes back.
package assetkey

import (
	"path"
	"regexp"
	"strconv"
	"strings"
)

// Kind classifies what a bucket object holds.
type Kind string

const (
	// KindScene is a per-scene clip named scene-<N>.<ext>.
	KindScene Kind = "scene"

	// KindFinal is the stitched output video named output.<ext>.
	KindFinal Kind = "final"

	// KindUnrecognized is everything else. Unrecognized keys are skipped
	// silently, never treated as failures.
	KindUnrecognized Kind = "unrecognized"
)

// Descriptor is the parsed classification of a single object key.
type Descriptor struct {
	Key         string
	Kind        Kind
	SceneNumber int // set only for KindScene, always positive
}

// Recognized video container extensions, lowercased.
var videoExts = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".m4v":  true,
	".webm": true,
	".mkv":  true,
	".avi":  true,
}

var scenePattern = regexp.MustCompile(`^scene-(\d+)$`)

// Parse classifies an object key by its filename component alone; directory
// depth never affects the result. Parse is total: anything that matches no
// rule comes back as KindUnrecognized.
func Parse(key string) Descriptor {
	d := Descriptor{Key: key, Kind: KindUnrecognized}

	base := path.Base(strings.TrimSpace(key))
	ext := strings.ToLower(path.Ext(base))
	if !videoExts[ext] {
		return d
	}
	name := strings.TrimSuffix(base, path.Ext(base))

	if name == "output" {
		d.Kind = KindFinal
		return d
	}

	m := scenePattern.FindStringSubmatch(name)
	if m == nil {
		return d
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		// Scene numbers are positive; scene-0 and overflowing ordinals
		// stay unrecognized.
		return d
	}
	d.Kind = KindScene
	d.SceneNumber = n
	return d
}

// VideoPrefix returns the listing prefix for a project's rendered videos.
func VideoPrefix(userID, projectID string) string {
	return "users/" + userID + "/projects/" + projectID + "/video/"
}

// ThumbnailKey returns the upload key for a derived thumbnail. The token
// keeps repeated runs from colliding with earlier thumbnail objects.
func ThumbnailKey(userID, projectID, token string) string {
	return "users/" + userID + "/projects/" + projectID + "/thumbnails/" + token + "-thumbnail.jpg"
}
