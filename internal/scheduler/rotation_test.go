package scheduler

import (
	"testing"

	"newsingest/internal/entity"
)

func TestGenerate_DeterministicForSameInputs(t *testing.T) {
	a := Generate("2026-08-01", entity.DefaultInstances)
	b := Generate("2026-08-01", entity.DefaultInstances)

	if len(a.RotationOrder) != len(b.RotationOrder) {
		t.Fatalf("rotation order length mismatch")
	}
	for i := range a.RotationOrder {
		if a.RotationOrder[i] != b.RotationOrder[i] {
			t.Fatalf("rotation order differs at %d: %v vs %v", i, a.RotationOrder, b.RotationOrder)
		}
	}
	for hour := 0; hour < hoursPerDay; hour++ {
		for _, instance := range entity.DefaultInstances {
			sa, _ := a.SlotFor(hour, instance)
			sb, _ := b.SlotFor(hour, instance)
			if len(sa.Categories) != 1 || len(sb.Categories) != 1 || sa.Categories[0] != sb.Categories[0] {
				t.Fatalf("hour %d instance %s: categories differ: %v vs %v", hour, instance, sa.Categories, sb.Categories)
			}
		}
	}
}

func TestGenerate_DifferentDatesProduceDifferentSchedules(t *testing.T) {
	a := Generate("2026-08-01", entity.DefaultInstances)
	b := Generate("2026-08-02", entity.DefaultInstances)

	same := true
	for hour := 0; hour < hoursPerDay && same; hour++ {
		for _, instance := range entity.DefaultInstances {
			sa, _ := a.SlotFor(hour, instance)
			sb, _ := b.SlotFor(hour, instance)
			if len(sa.Categories) != 1 || len(sb.Categories) != 1 || sa.Categories[0] != sb.Categories[0] {
				same = false
				break
			}
		}
	}
	if same && a.RotationOrder[0] == b.RotationOrder[0] {
		t.Error("expected different dates to produce a different rotation order or category assignment")
	}
}

func TestGenerate_SatisfiesInvariants(t *testing.T) {
	dates := []string{"2026-08-01", "2026-08-02", "2026-12-31", "2027-01-01"}
	for _, date := range dates {
		sched := Generate(date, entity.DefaultInstances)
		if !Valid(sched, entity.DefaultInstances) {
			t.Fatalf("schedule for %s failed validity check", date)
		}
	}
}

func TestGenerate_NoOverlapWithinHour(t *testing.T) {
	sched := Generate("2026-08-01", entity.DefaultInstances)
	for hour := 0; hour < hoursPerDay; hour++ {
		seen := make(map[entity.NewsCategory]bool)
		for _, instance := range entity.DefaultInstances {
			slot, ok := sched.SlotFor(hour, instance)
			if !ok {
				t.Fatalf("hour %d: missing slot for %s", hour, instance)
			}
			for _, cat := range slot.Categories {
				if seen[cat] {
					t.Fatalf("hour %d: category %s assigned to more than one instance", hour, cat)
				}
				seen[cat] = true
			}
		}
	}
}

func TestGenerate_EveryCategoryMeetsFloor(t *testing.T) {
	sched := Generate("2026-08-01", entity.DefaultInstances)
	counts := make(map[entity.NewsCategory]int)
	for hour := 0; hour < hoursPerDay; hour++ {
		for _, instance := range entity.DefaultInstances {
			slot, _ := sched.SlotFor(hour, instance)
			for _, cat := range slot.Categories {
				counts[cat]++
			}
		}
	}
	for _, cat := range entity.AllCategories {
		if counts[cat] < categoryFloor {
			t.Errorf("category %s assigned only %d hours, below floor %d", cat, counts[cat], categoryFloor)
		}
	}
}

func TestGenerate_HighPriorityCategoriesAppearMoreOften(t *testing.T) {
	sched := Generate("2026-08-01", entity.DefaultInstances)
	counts := make(map[entity.NewsCategory]int)
	for hour := 0; hour < hoursPerDay; hour++ {
		for _, instance := range entity.DefaultInstances {
			slot, _ := sched.SlotFor(hour, instance)
			for _, cat := range slot.Categories {
				counts[cat]++
			}
		}
	}
	if counts[entity.Culture] > counts[entity.Politics] {
		t.Errorf("expected low-priority Culture (%d) to not exceed high-priority Politics (%d)", counts[entity.Culture], counts[entity.Politics])
	}
	if counts[entity.Culture] > counts[entity.Economy] {
		t.Errorf("expected low-priority Culture (%d) to not exceed high-priority Economy (%d)", counts[entity.Culture], counts[entity.Economy])
	}
}

func TestValid_RejectsNonPermutationRotationOrder(t *testing.T) {
	sched := Generate("2026-08-01", entity.DefaultInstances)
	sched.RotationOrder = []entity.CrawlerInstance{entity.Main, entity.Main, entity.Sub2}
	if Valid(sched, entity.DefaultInstances) {
		t.Error("expected Valid to reject a non-permutation rotation order")
	}
}

func TestValid_RejectsOverlappingCategories(t *testing.T) {
	sched := Generate("2026-08-01", entity.DefaultInstances)
	slot := sched.Slots[0][entity.DefaultInstances[0]]
	other := sched.Slots[0][entity.DefaultInstances[1]]
	slot.Categories = other.Categories
	sched.Slots[0][entity.DefaultInstances[0]] = slot
	if Valid(sched, entity.DefaultInstances) {
		t.Error("expected Valid to reject overlapping categories within an hour")
	}
}
