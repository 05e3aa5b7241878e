package recurrence

import (
	"testing"
	"time"

	"github.com/example/availability-scheduler/internal/timerange"
)

func BenchmarkEngineExpand(b *testing.B) {
	engine := NewEngine(DefaultConfig())
	seed := timerange.Date{Year: 2024, Month: time.May, Day: 6}
	rule := Rule{
		Frequency: FrequencyWeekly,
		Interval:  1,
		Weekdays: []time.Weekday{
			time.Monday,
			time.Tuesday,
			time.Wednesday,
			time.Thursday,
			time.Friday,
		},
		End:     EndOnDate,
		EndDate: seed.AddMonths(3),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result, err := engine.Expand(seed, rule)
		if err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
		if len(result.Dates) == 0 {
			b.Fatal("expected occurrences to be generated")
		}
	}
}
