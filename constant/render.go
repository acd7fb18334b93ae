package constant

// MapEngine drawing
const (
	// OverlayFontSize is the point size of the map name drawn by the UI overlay
	OverlayFontSize = 14.0

	// MinimapScale is the world-to-minimap ratio of the UI overlay
	MinimapScale = 0.05

	// MinimapMaxWidth caps the minimap so it never dominates small frames
	MinimapMaxWidth = 200

	// DefaultBackground is the color name used when a map omits one
	DefaultBackground = "black"
)
