package relaytrace

type Real = float64

// Reference system: 60x water objective (7.2 mm) into a 180 mm tube lens,
// imaged onto a 2048 px sCMOS with 6.5 µm pixels.
const (
	FocalObjective = 7.2e-3
	FocalTube      = 180e-3
	NumAperture    = 1.0
	MediumIndex    = 1.333
	PixelPitch     = 6.5e-6
	NumPixels      = 2048
	RayDensity     = 1000
	BinZoom        = 25 // histogram covers ±sensorSize/BinZoom around the axis
	ConfigPath     = "configs/config.json"
	OutDir         = "figures"
	// parallel tracing
	chunkRays = 1024 // rays per worker between ctx checks
	// binning
	maxBins = 1 << 24 // upper bound on histogram edges per run
)
