package analyzer

// Counter counts words and remembers the order in which each word was first
// seen. The zero value is ready to use.
type Counter struct {
	order  []string
	counts map[string]int
}

// NewCounter returns an empty Counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Add increments word by n.
func (c *Counter) Add(word string, n int) {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	if _, ok := c.counts[word]; !ok {
		c.order = append(c.order, word)
	}
	c.counts[word] += n
}

// Merge adds every count from other, in other's insertion order.
func (c *Counter) Merge(other *Counter) {
	if other == nil {
		return
	}
	for _, w := range other.order {
		c.Add(w, other.counts[w])
	}
}

// Get returns the count for word, zero if absent.
func (c *Counter) Get(word string) int {
	if c == nil {
		return 0
	}
	return c.counts[word]
}

// Len is the number of distinct words.
func (c *Counter) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Keys returns the words in first-seen order.
func (c *Counter) Keys() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Filter returns a new Counter holding the words for which keep returns true,
// order preserved.
func (c *Counter) Filter(keep func(word string) bool) *Counter {
	out := NewCounter()
	if c == nil {
		return out
	}
	for _, w := range c.order {
		if keep(w) {
			out.Add(w, c.counts[w])
		}
	}
	return out
}
