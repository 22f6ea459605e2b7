package gcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURL(t *testing.T) {
	assert.Equal(t,
		"https://cdn.example.com/study_session_1.mp3",
		publicURL(BucketConfig{Name: "audio", CDNDomain: "cdn.example.com/"}, "/study_session_1.mp3"),
	)
	assert.Equal(t,
		"http://localhost:4443/audio/a.mp3",
		publicURL(BucketConfig{Name: "audio", EmulatorHost: "http://localhost:4443"}, "a.mp3"),
	)
	assert.Equal(t,
		"https://storage.googleapis.com/audio/a.mp3",
		publicURL(BucketConfig{Name: "audio"}, "a.mp3"),
	)
}

func TestContentTypeForKey(t *testing.T) {
	assert.Equal(t, "audio/mpeg", contentTypeForKey("study_session_x.MP3"))
	assert.Equal(t, "", contentTypeForKey("file.bin"))
}
