package throttle

// EstimateCeiling returns how many images of frameBytes fit in budgetBytes,
// at least one. A budget of zero or less means unlimited and returns 0.
// frameBytes is the memory held per slot: when several outputs share the
// pool it is the sum of one image of each.
func EstimateCeiling(frameBytes, budgetBytes int64) int {
	if budgetBytes <= 0 {
		return 0
	}
	if frameBytes <= 0 {
		return 1
	}
	return int(max(budgetBytes/frameBytes, 1))
}
