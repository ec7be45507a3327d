package charts

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"
)

// integerTicks labels every whole number in range, used for year axes
type integerTicks struct{}

func (integerTicks) Ticks(min, max float64) []plot.Tick {
	lo, hi := math.Ceil(min), math.Floor(max)
	if hi-lo > 30 {
		return plot.DefaultTicks{}.Ticks(min, max)
	}

	ticks := make([]plot.Tick, 0, int(hi-lo)+1)
	for v := lo; v <= hi; v++ {
		ticks = append(ticks, plot.Tick{Value: v, Label: strconv.Itoa(int(v))})
	}
	return ticks
}

func trimFloat(v float64) string {
	switch {
	case v == 0:
		return "0"
	case math.Abs(v) < 1:
		return strconv.FormatFloat(v, 'f', 2, 64)
	default:
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
}
