// Package grid holds the farm layout geometry: block tiling, expansion and the
// size tier a grid cell is drawn with.
package grid

import (
	"errors"
	"fmt"
)

// Tier is the visual size classification of a grid cell.
type Tier string

const (
	TierBig       Tier = "big"
	TierCenterBig Tier = "centerBig"
	TierMedium    Tier = "medium"
	TierSmall     Tier = "small"
	TierTiny      Tier = "tiny"

	// TierAuto is not a tier. It asks for the computed tier instead of an override.
	TierAuto Tier = "auto"
)

// ErrInvalidTier is returned when a tier name is not recognised.
var ErrInvalidTier = errors.New("invalid tier")

// Tiers lists every concrete tier in priority order.
var Tiers = []Tier{TierBig, TierCenterBig, TierMedium, TierSmall, TierTiny}

// ParseTier converts a raw value into a Tier. Empty input maps to TierAuto.
func ParseTier(raw string) (Tier, error) {
	if raw == "" || raw == string(TierAuto) {
		return TierAuto, nil
	}
	for _, t := range Tiers {
		if string(t) == raw {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTier, raw)
}

// Classify maps a cell of a w×h block to its tier. The first matching rule wins:
// corners, exact centre, edge midpoints, quarter points, everything else.
//
// Fractions are compared exactly (2x == w rather than x == w/2) so a block whose
// sides are not multiples of 4 never matches a fractional point.
func Classify(x, y, w, h int) Tier {
	if x < 0 || y < 0 || x > w || y > h {
		return TierTiny
	}

	xs := edgeOf(x, w)
	ys := edgeOf(y, h)

	switch {
	case isEnd(xs) && isEnd(ys):
		return TierBig
	case xs == half && ys == half:
		return TierCenterBig
	case (xs == half && isEnd(ys)) || (isEnd(xs) && ys == half):
		return TierMedium
	case isQuarter(xs) && isEnd(ys),
		isEnd(xs) && isQuarter(ys),
		isQuarter(xs) && ys == half,
		xs == half && isQuarter(ys):
		return TierSmall
	default:
		return TierTiny
	}
}

type station int

const (
	other station = iota
	start
	quarter
	half
	threeQuarter
	end
)

// edgeOf reports which notable fraction of length v sits on.
func edgeOf(v, length int) station {
	switch {
	case v == 0:
		return start
	case v == length:
		return end
	case 2*v == length:
		return half
	case 4*v == length:
		return quarter
	case 4*v == 3*length:
		return threeQuarter
	default:
		return other
	}
}

func isEnd(s station) bool { return s == start || s == end }

func isQuarter(s station) bool { return s == quarter || s == threeQuarter }
