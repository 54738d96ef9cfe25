package timer

// Band is the colour class of a progress percentage.
type Band string

const (
	BandGreen  Band = "green"
	BandYellow Band = "yellow"
	BandOrange Band = "orange"
	BandRed    Band = "red"
)

// Thresholds are the inclusive upper bounds of the non-red bands.
type Thresholds struct {
	GreenMax  float64 `yaml:"green_max"`
	YellowMax float64 `yaml:"yellow_max"`
	OrangeMax float64 `yaml:"orange_max"`
}

// DefaultThresholds: green up to 69, yellow up to 84, orange up to 99, red
// from 100.
var DefaultThresholds = Thresholds{GreenMax: 69, YellowMax: 84, OrangeMax: 99}

// ProgressBand classifies pct.
func ProgressBand(pct float64, th Thresholds) Band {
	switch {
	case pct <= th.GreenMax:
		return BandGreen
	case pct <= th.YellowMax:
		return BandYellow
	case pct <= th.OrangeMax:
		return BandOrange
	default:
		return BandRed
	}
}
