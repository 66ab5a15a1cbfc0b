// Package encode searches encoder settings until an image fits a byte budget.
package encode

// ScheduleSteps is the number of qualities tried per format.
const ScheduleSteps = 18

// Quality returns the quality for step i of the schedule, i in [1, ScheduleSteps]:
// 90 down to 10 in steps of 10, then 9 down to 1.
func Quality(i int) int {
	if i < 10 {
		return (10 - i) * 10
	}
	return 19 - i
}

// Schedule returns the full quality schedule in search order.
func Schedule() []int {
	qualities := make([]int, 0, ScheduleSteps)
	for i := 1; i <= ScheduleSteps; i++ {
		qualities = append(qualities, Quality(i))
	}
	return qualities
}
