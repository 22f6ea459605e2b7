package localmedia

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

func TestTesseractDefaults(t *testing.T) {
	tt := NewTesseract(logger.Nop(), TesseractConfig{}).(*tesseract)
	assert.Equal(t, []string{"stdin", "stdout", "-l", "eng", "--oem", "1", "--psm", "6"}, tt.args())
}

func TestTesseractMissingBinary(t *testing.T) {
	tt := NewTesseract(logger.Nop(), TesseractConfig{Path: "definitely-not-a-tesseract-binary"})
	require.Error(t, tt.AssertReady(context.Background()))

	_, err := tt.Recognize(context.Background(), []byte{1, 2, 3}, "image/png")
	require.Error(t, err)

	text, err := tt.Recognize(context.Background(), nil, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "", text)
}
