package discovery

// narrowFactor divides the window after a page comes back empty.
const narrowFactor = 4

// searchWindow is the live upper bound for random offsets during one refill.
// The true size of a search result set is unknown, so an empty page is taken
// to mean the offset overshot it and the window shrinks.
type searchWindow struct {
	size  int
	batch int
}

func newSearchWindow(maxOffset, batch int) searchWindow {
	return searchWindow{size: maxOffset, batch: batch}
}

// bound is the exclusive upper limit for sampled offsets.
func (w searchWindow) bound() int {
	return max(1, w.size-w.batch)
}

// sample draws an offset in [0, bound) using intN, which must behave like
// rand.IntN.
func (w searchWindow) sample(intN func(int) int) int {
	return intN(w.bound())
}

// narrow shrinks the window, never below one batch.
func (w *searchWindow) narrow() {
	w.size = max(w.size/narrowFactor, w.batch)
}
