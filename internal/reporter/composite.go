package reporter

// CompositeReporter fans out events to multiple reporters.
type CompositeReporter struct {
	reporters []Reporter
}

// NewCompositeReporter creates a composite reporter. Nil reporters are dropped.
func NewCompositeReporter(reporters ...Reporter) *CompositeReporter {
	c := &CompositeReporter{}
	for _, r := range reporters {
		if r != nil {
			c.reporters = append(c.reporters, r)
		}
	}
	return c
}

func (c *CompositeReporter) RunStarted(info RunStartInfo) {
	for _, r := range c.reporters {
		r.RunStarted(info)
	}
}

func (c *CompositeReporter) MetadataProbed(summary MetadataSummary) {
	for _, r := range c.reporters {
		r.MetadataProbed(summary)
	}
}

func (c *CompositeReporter) StageStarted(update StageUpdate) {
	for _, r := range c.reporters {
		r.StageStarted(update)
	}
}

func (c *CompositeReporter) StageProgress(update StageUpdate) {
	for _, r := range c.reporters {
		r.StageProgress(update)
	}
}

func (c *CompositeReporter) StageComplete(update StageUpdate) {
	for _, r := range c.reporters {
		r.StageComplete(update)
	}
}

func (c *CompositeReporter) ValidationComplete(summary ValidationSummary) {
	for _, r := range c.reporters {
		r.ValidationComplete(summary)
	}
}

func (c *CompositeReporter) RunComplete(outcome RunOutcome) {
	for _, r := range c.reporters {
		r.RunComplete(outcome)
	}
}

func (c *CompositeReporter) RunFailed(failure RunFailure) {
	for _, r := range c.reporters {
		r.RunFailed(failure)
	}
}

func (c *CompositeReporter) Warning(message string) {
	for _, r := range c.reporters {
		r.Warning(message)
	}
}

func (c *CompositeReporter) BatchStarted(info BatchStartInfo) {
	for _, r := range c.reporters {
		r.BatchStarted(info)
	}
}

func (c *CompositeReporter) BatchProgress(progress BatchProgress) {
	for _, r := range c.reporters {
		r.BatchProgress(progress)
	}
}

func (c *CompositeReporter) BatchComplete(summary BatchSummary) {
	for _, r := range c.reporters {
		r.BatchComplete(summary)
	}
}
