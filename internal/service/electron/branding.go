package electron

import (
	"github.com/oshokin/electron-stager/internal/config"
	"github.com/oshokin/electron-stager/internal/domain/stage"
)

const (
	// DefaultProjectName names the runtime executable of an unbranded distribution.
	DefaultProjectName = "electron"
	// DefaultProductName names the macOS bundle of an unbranded distribution.
	DefaultProductName = "Electron"
)

// ResolveBranding fills each branding field independently with its default.
func ResolveBranding(b *config.Branding) stage.Branding {
	branding := stage.Branding{
		ProjectName: DefaultProjectName,
		ProductName: DefaultProductName,
	}

	if b == nil {
		return branding
	}

	if b.ProjectName != "" {
		branding.ProjectName = b.ProjectName
	}

	if b.ProductName != "" {
		branding.ProductName = b.ProductName
	}

	return branding
}
