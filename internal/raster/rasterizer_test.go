package raster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetscan/sheetscan/internal/domain"
)

func TestRasterizeRejectsCorruptDocument(t *testing.T) {
	r := NewRasterizer()

	_, err := r.Rasterize(context.Background(), []byte("not a pdf"))
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeRasterization))
}

func TestRasterizeRejectsEmptyDocument(t *testing.T) {
	r := NewRasterizer()

	_, err := r.Rasterize(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeRasterization))
}
