package analysis

import "sort"

// Rain window bounds: rain is only of interest during the remaining waking
// hours of the day, starting no earlier than 08:00 and ending at 22:00.
const (
	rainWindowStart = 8
	rainWindowEnd   = 22
)

// SelectWindows computes the hours to evaluate for the two scores, given the
// current local hour and the day's sunrise/sunset hours.
//
// Sky window policy, mutually exclusive by current time:
//   - Before sunrise: a band around sunrise [max(0, sunrise-1), sunrise+1]
//     plus a band around sunset [sunset-1, min(23, sunset+2)], inclusive.
//   - Between sunrise and sunset: the sunset band only.
//   - At or after sunset: no sky hours.
//
// Rain window policy: every hour from max(8, now) through 22 inclusive.
//
// Both slices are ascending and deduplicated.
func SelectWindows(nowHour, sunriseHour, sunsetHour int) (skyHours, rainHours []int) {
	seen := make(map[int]bool)
	addRange := func(from, to int) {
		for h := from; h <= to; h++ {
			if !seen[h] {
				seen[h] = true
				skyHours = append(skyHours, h)
			}
		}
	}

	switch {
	case nowHour < sunriseHour:
		addRange(max(0, sunriseHour-1), sunriseHour+1)
		addRange(sunsetHour-1, min(23, sunsetHour+2))
	case nowHour < sunsetHour:
		addRange(sunsetHour-1, min(23, sunsetHour+2))
	}
	sort.Ints(skyHours)

	for h := max(rainWindowStart, nowHour); h <= rainWindowEnd; h++ {
		rainHours = append(rainHours, h)
	}

	return skyHours, rainHours
}
