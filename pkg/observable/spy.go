package observable

// Spy event types.
const (
	SpyCreate   = "create"
	SpyUpdate   = "update"
	SpyAction   = "action"
	SpyReaction = "reaction"
)

// SpyEvent describes something that happened inside a Context. Spies are
// diagnostic sinks: registering or removing one never changes behavior.
type SpyEvent struct {
	// Type is one of SpyCreate, SpyUpdate, SpyAction or SpyReaction.
	Type string

	// Name is the name of the cell, action or reaction.
	Name string

	// Object is the observable the event is about, if any.
	Object any

	NewValue any
	OldValue any
}

// Spy receives diagnostic events. ReportStart and ReportEnd are always
// paired; the event given to ReportEnd is the one that opened the span.
type Spy interface {
	Report(ev SpyEvent)
	ReportStart(ev SpyEvent)
	ReportEnd(ev SpyEvent)
}

// AddSpy registers s and returns a Disposer that removes it.
func (c *Context) AddSpy(s Spy) Disposer {
	if s == nil {
		return func() {}
	}
	c.spies = append(c.spies[:len(c.spies):len(c.spies)], s)

	removed := false
	return func() {
		if removed {
			return
		}
		removed = true
		for i, existing := range c.spies {
			if existing == s {
				next := make([]Spy, 0, len(c.spies)-1)
				next = append(next, c.spies[:i]...)
				c.spies = append(next, c.spies[i+1:]...)
				return
			}
		}
	}
}

// IsSpyEnabled reports whether any spy is registered.
func (c *Context) IsSpyEnabled() bool {
	return len(c.spies) > 0
}

// SpyReport sends a single event to every spy.
func (c *Context) SpyReport(ev SpyEvent) {
	for _, s := range c.spies {
		s.Report(ev)
	}
}

// SpyReportStart opens a span. It must be followed by SpyReportEnd.
func (c *Context) SpyReportStart(ev SpyEvent) {
	c.spyStack = append(c.spyStack, ev)
	for _, s := range c.spies {
		s.ReportStart(ev)
	}
}

// SpyReportEnd closes the innermost span opened by SpyReportStart.
func (c *Context) SpyReportEnd() {
	n := len(c.spyStack)
	if n == 0 {
		return
	}
	ev := c.spyStack[n-1]
	c.spyStack = c.spyStack[:n-1]
	for _, s := range c.spies {
		s.ReportEnd(ev)
	}
}
