package constant

// Sampling
const (
	// JPEGQuality is the fixed lossy quality factor of persisted samples
	JPEGQuality = 90

	// ItemPartialAreaThreshold is the minimum visible/original area ratio for a label to be kept
	ItemPartialAreaThreshold = 0.70

	// PlayerRange is the central fraction of the frame player overlays are placed in
	PlayerRange = 0.85

	// PlayerFlipChance is the probability an overlay sprite is mirrored horizontally
	PlayerFlipChance = 0.5
)
