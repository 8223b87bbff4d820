// Package scheduler implements the rotation scheduler (C6): a pure,
// deterministic daily schedule generator, and the coordinator's daily
// trigger (C10) that runs it on a wall-clock timer.
package scheduler

import (
	"crypto/sha256"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"newsingest/internal/entity"
)

// GeneratorVersion is folded into the seed so a deliberate change to the
// assignment algorithm changes every future day's schedule without
// silently reinterpreting already-generated ones.
const GeneratorVersion = 1

// categoryFloor is the minimum number of hourly slots each category must
// receive per day, regardless of weight, per the DailySchedule validity
// rule in spec §4.6.
const categoryFloor = 2

const hoursPerDay = 24

// Generate returns the deterministic DailySchedule for date (format
// "YYYY-MM-DD") across instances. Generate is a pure function of (date,
// GeneratorVersion, instances): the same inputs always produce the same
// schedule, on any instance, which is what lets a worker regenerate it
// locally in autonomous mode (internal/coordclient) when the coordinator
// is unreachable.
func Generate(date string, instances []entity.CrawlerInstance) entity.DailySchedule {
	rng := seededRNG(date)
	rotationOrder := shuffledCopy(instances, rng)
	slots := assignCategories(len(rotationOrder), rng)

	byHour := make(map[int]map[entity.CrawlerInstance]entity.HourlySlot, hoursPerDay)
	for hour := 0; hour < hoursPerDay; hour++ {
		byInstance := make(map[entity.CrawlerInstance]entity.HourlySlot, len(rotationOrder))
		for i, instance := range rotationOrder {
			cat := slots[hour][i]
			byInstance[instance] = entity.HourlySlot{
				Hour:           hour,
				Instance:       instance,
				Categories:     []entity.NewsCategory{cat},
				PriorityWeight: cat.PriorityWeight(),
			}
		}
		byHour[hour] = byInstance
	}

	return entity.DailySchedule{
		Date:             date,
		RotationOrder:    rotationOrder,
		Slots:            byHour,
		GeneratedAt:      time.Now().UTC(),
		GeneratorVersion: GeneratorVersion,
	}
}

// seededRNG derives a ChaCha8 RNG seeded by SHA-256(date || generator
// version), the Go stdlib equivalent of original_source's
// rand_chacha::ChaCha8Rng seeding.
func seededRNG(date string) *rand.Rand {
	seedInput := fmt.Sprintf("%s|%d", date, GeneratorVersion)
	sum := sha256.Sum256([]byte(seedInput))
	var seed [32]byte
	copy(seed[:], sum[:])
	return rand.New(rand.NewChaCha8(seed))
}

// shuffledCopy returns a new slice containing instances in a
// deterministically-shuffled order driven by rng (Fisher-Yates).
func shuffledCopy(instances []entity.CrawlerInstance, rng *rand.Rand) []entity.CrawlerInstance {
	order := make([]entity.CrawlerInstance, len(instances))
	copy(order, instances)
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// assignCategories picks n distinct categories for each of the 24 hours
// via a smooth weighted round-robin (the nginx upstream load-balancing
// algorithm, generalized to select the top n credits per round instead of
// just the top 1): each category accrues PriorityWeight() credit every
// hour, the n highest-credit categories are selected and charged the
// total weight, and ties are broken by ascending category id per spec
// §4.6(3). credit is seeded per-date so different dates produce different
// (but still weight-proportional) hour/category pairings. A final pass
// tops up any category that fell under categoryFloor by swapping it into
// an hour where it is absent and the hour's most-selected category can
// spare a slot.
func assignCategories(n int, rng *rand.Rand) map[int][]entity.NewsCategory {
	categories := sortedCategories()
	weight := make(map[entity.NewsCategory]int, len(categories))
	totalWeight := 0
	for _, c := range categories {
		weight[c] = c.PriorityWeight()
		totalWeight += weight[c]
	}

	credit := make(map[entity.NewsCategory]int, len(categories))
	for _, c := range categories {
		credit[c] = rng.IntN(totalWeight)
	}

	result := make(map[int][]entity.NewsCategory, hoursPerDay)
	counts := make(map[entity.NewsCategory]int, len(categories))

	for hour := 0; hour < hoursPerDay; hour++ {
		for _, c := range categories {
			credit[c] += weight[c]
		}
		picked := topNByCredit(categories, credit, n)
		for _, c := range picked {
			credit[c] -= totalWeight
			counts[c]++
		}
		result[hour] = picked
	}

	enforceFloor(result, counts, categories)
	return result
}

// topNByCredit returns the n categories with the highest credit, ties
// broken by ascending category id.
func topNByCredit(categories []entity.NewsCategory, credit map[entity.NewsCategory]int, n int) []entity.NewsCategory {
	ranked := make([]entity.NewsCategory, len(categories))
	copy(ranked, categories)
	sort.SliceStable(ranked, func(i, j int) bool {
		if credit[ranked[i]] != credit[ranked[j]] {
			return credit[ranked[i]] > credit[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	picked := make([]entity.NewsCategory, n)
	copy(picked, ranked[:n])
	sort.Slice(picked, func(i, j int) bool { return picked[i] < picked[j] })
	return picked
}

// enforceFloor tops up any category under categoryFloor by swapping it
// into an hour where it is currently absent, taking the slot from that
// hour's category with the largest remaining surplus above the floor.
func enforceFloor(result map[int][]entity.NewsCategory, counts map[entity.NewsCategory]int, categories []entity.NewsCategory) {
	for _, needy := range categories {
		for counts[needy] < categoryFloor {
			hour, donor, ok := findSwapCandidate(result, counts, needy)
			if !ok {
				break
			}
			slot := result[hour]
			for i, c := range slot {
				if c == donor {
					slot[i] = needy
					break
				}
			}
			sort.Slice(slot, func(i, j int) bool { return slot[i] < slot[j] })
			result[hour] = slot
			counts[donor]--
			counts[needy]++
		}
	}
}

func findSwapCandidate(result map[int][]entity.NewsCategory, counts map[entity.NewsCategory]int, needy entity.NewsCategory) (hour int, donor entity.NewsCategory, ok bool) {
	bestSurplus := -1
	for h := 0; h < hoursPerDay; h++ {
		slot := result[h]
		present := false
		for _, c := range slot {
			if c == needy {
				present = true
				break
			}
		}
		if present {
			continue
		}
		for _, c := range slot {
			surplus := counts[c] - categoryFloor
			if surplus > bestSurplus {
				bestSurplus = surplus
				hour = h
				donor = c
				ok = true
			}
		}
	}
	return hour, donor, ok
}

func sortedCategories() []entity.NewsCategory {
	cats := make([]entity.NewsCategory, len(entity.AllCategories))
	copy(cats, entity.AllCategories)
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// Valid reports whether sched satisfies the DailySchedule invariants from
// spec §4.6: RotationOrder is a permutation of instances, every hour has
// exactly one slot per instance, and no category appears twice in the
// same hour across instances.
func Valid(sched entity.DailySchedule, instances []entity.CrawlerInstance) bool {
	if !isPermutation(sched.RotationOrder, instances) {
		return false
	}
	for hour := 0; hour < hoursPerDay; hour++ {
		byInstance, ok := sched.Slots[hour]
		if !ok || len(byInstance) != len(instances) {
			return false
		}
		seen := make(map[entity.NewsCategory]bool)
		for _, instance := range instances {
			slot, ok := byInstance[instance]
			if !ok {
				return false
			}
			for _, cat := range slot.Categories {
				if seen[cat] {
					return false
				}
				seen[cat] = true
			}
		}
	}
	return true
}

func isPermutation(a, b []entity.CrawlerInstance) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[entity.CrawlerInstance]int, len(b))
	for _, x := range b {
		counts[x]++
	}
	for _, x := range a {
		counts[x]--
		if counts[x] < 0 {
			return false
		}
	}
	return true
}
