package electron

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/electron-stager/internal/config"
	"github.com/oshokin/electron-stager/internal/domain/stage"
)

// TestResolveBranding defaults each field on its own.
func TestResolveBranding(t *testing.T) {
	t.Parallel()

	defaults := stage.Branding{ProjectName: "electron", ProductName: "Electron"}

	require.Equal(t, defaults, ResolveBranding(nil))
	require.Equal(t, defaults, ResolveBranding(new(config.Branding)))
	require.Equal(t,
		stage.Branding{ProjectName: "brand", ProductName: "Electron"},
		ResolveBranding(&config.Branding{ProjectName: "brand"}))
	require.Equal(t,
		stage.Branding{ProjectName: "electron", ProductName: "Brand"},
		ResolveBranding(&config.Branding{ProductName: "Brand"}))
}
