package services

import "math"

type Tier string

const (
	Bronze   Tier = "Bronze"
	Silver   Tier = "Silver"
	Gold     Tier = "Gold"
	Platinum Tier = "Platinum"
)

// lower bounds of lifetime points, ascending
var tiers = []struct {
	tier Tier
	from int
}{
	{Bronze, 0},
	{Silver, 200},
	{Gold, 500},
	{Platinum, 1000},
}

// TierFor derives the tier from lifetime earned points. Tiers are never stored.
func TierFor(lifetime int) Tier {
	t := Bronze
	for _, v := range tiers {
		if lifetime >= v.from {
			t = v.tier
		}
	}
	return t
}

type TierProgress struct {
	Tier      Tier `json:"tier"`
	Threshold int  `json:"threshold"`
	Remaining int  `json:"remaining"`
}

// NextTier returns the next tier and the points missing, nil at the top.
func NextTier(lifetime int) *TierProgress {
	for _, v := range tiers {
		if lifetime < v.from {
			return &TierProgress{Tier: v.tier, Threshold: v.from, Remaining: v.from - lifetime}
		}
	}
	return nil
}

// PointsForPrice gives 1 point per currency unit.
// Prices below 100 are major units, from 100 on minor units. A service that really
// costs 100 or more in major units is counted as cents; kept as is.
func PointsForPrice(price float64) int {
	if price < 100 {
		return int(math.Floor(price))
	}
	return int(math.Floor(price / 100))
}
