// Package embedded registers every built-in LUT format. Import it for its
// side effects.
package embedded

import (
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/plugins"

	_ "github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/formats/ctf"
	_ "github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/formats/discreet1dl"
	_ "github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/formats/houdini"
	_ "github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/formats/iridaslook"
	_ "github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/formats/resolvecube"
	_ "github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/formats/spi1d"
	_ "github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/formats/spi3d"
	_ "github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/formats/threedl"
)

// IsInitialized reports whether the built-in formats are registered.
func IsInitialized() bool {
	return FormatCount() > 0
}

// FormatCount returns the number of registered format handlers.
func FormatCount() int {
	return len(plugins.Formats())
}
