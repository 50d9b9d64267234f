package population

import "github.com/divinecomedylabs/churnlab/go-engine/internal/archetype"

// #region influx

const (
	baseGrowthRate = 0.002 // admitted fraction per day at full health
	saturationCap  = 10000 // population size at which growth stops
)

// InfluxRate estimates the daily new-user admission rate from the overall
// health of the given population. Engagement is the mean activity-window
// average; exhaustion is mean fatigue normalized by each archetype's
// fatigue sensitivity. Pure function: returns a value in
// [0, baseGrowthRate] and 0 for an empty population.
func InfluxRate(users []*User, catalog *archetype.Catalog) float64 {
	if len(users) == 0 {
		return 0
	}

	var engagementSum, fatigueSum float64
	for _, u := range users {
		engagementSum += u.Activity.Mean()

		sensitivity := 0.01
		if p, ok := catalog.Get(u.Archetype); ok && p.FatigueMult > sensitivity {
			sensitivity = p.FatigueMult
		}
		fatigueSum += u.Fatigue / sensitivity
	}
	meanEngagement := engagementSum / float64(len(users))
	meanFatigue := fatigueSum / float64(len(users))

	health := meanEngagement*1.25 - meanFatigue*0.75
	if health < 0 {
		health = 0
	}
	if health > 1 {
		health = 1
	}

	sizePenalty := float64(len(users)) / saturationCap
	if sizePenalty > 1 {
		sizePenalty = 1
	}

	return baseGrowthRate * health * (1 - sizePenalty)
}

// #endregion influx
