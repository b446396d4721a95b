package tap

import "go.uber.org/zap"

// spawnChild constructs and attaches a nested subtest parser at the
// given indent prefix. When buffered is true, the child is tied to the
// enclosing "{"-terminated assertion, which is flushed by the parent
// only once the child closes via its matching "}".
func (p *Parser) spawnChild(indent string, buffered bool) {
	var enclosing *Assertion
	if buffered {
		enclosing = p.current
	}
	parent := p
	child := NewParser(
		WithIndent(indent),
		WithLevel(p.level+1),
		WithBuffered(enclosing),
		WithLogger(p.logger),
		WithOnComplete(func(s Summary) { parent.absorbChildSummary(s) }),
	)
	p.child = child
	p.logger.Debug("child spawned", zap.String("indent", indent), zap.Int("level", child.level), zap.Bool("buffered", buffered))
	p.emit(Event{Type: EventChild, Child: child, Depth: p.level})
}

// closeChild finalizes the open child in place, synchronously, and
// detaches it. The child's outcome reaches the parent through the
// onComplete callback registered at spawn time, not through the
// child's own Events channel.
func (p *Parser) closeChild() {
	if p.child == nil {
		return
	}
	c := p.child
	c.finalizeInternal()
	p.logger.Debug("child closed", zap.Int("level", c.level))
	p.child = nil
}

// absorbChildSummary applies a just-closed child's outcome to this
// parser: a bailout propagates synchronously with the same reason, and
// a failing child forces this parser's own result to failing once it
// has itself seen valid TAP.
func (p *Parser) absorbChildSummary(s Summary) {
	if s.HasBailout {
		p.bailedOut = true
		p.bailoutReason = s.Bailout
		p.ok = false
		p.emit(Event{Type: EventBailout, Bailout: s.Bailout, Depth: p.level})
		p.logger.Error("bailout propagated from child", zap.String("reason", s.Bailout))
		return
	}
	if !s.OK && p.sawValidTap {
		p.ok = false
	}
}
