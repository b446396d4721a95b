package tap

// finalizeInternal drains any open child or diagnostic block, flushes
// the pending assertion, validates the plan, builds the Summary,
// invokes the completion callback, emits the terminal complete event,
// and closes this parser's event channel. It is idempotent: a second
// call returns the already-computed summary.
func (p *Parser) finalizeInternal() Summary {
	if p.finalized {
		return p.summary
	}
	p.finalized = true

	if p.diagOpen {
		p.breakDiagBlock("")
	}
	if p.child != nil {
		p.closeChild()
	}
	p.flushCurrent()

	var plan *Plan
	if p.planSet {
		plan = &Plan{Start: p.planStart, End: p.planEnd, Comment: p.planComment}
	}

	if !p.bailedOut {
		switch {
		case p.planSet && p.planStart == 1 && p.planEnd == 0:
			plan.SkipAll = true
			plan.SkipReason = p.planComment
			if p.count > 0 {
				p.registerFinalizeError("Plan of 1..0, but test points encountered")
			}
		case !p.planSet:
			p.registerFinalizeError("no plan")
		case p.ok && p.count != p.planEnd-p.planStart+1:
			p.registerFinalizeError("incorrect number of tests")
		case p.ok:
			if p.haveFirst && p.first != p.planStart {
				p.registerFinalizeError("first test id does not match plan start")
			}
			if p.haveFirst && p.last != p.planEnd {
				p.registerFinalizeError("last test id does not match plan end")
			}
		}
	}

	summary := Summary{
		OK:         p.ok,
		Count:      p.count,
		Pass:       p.pass,
		Fail:       p.fail,
		Todo:       p.todoCount,
		Skip:       p.skipCount,
		HasBailout: p.bailedOut,
		Bailout:    p.bailoutReason,
		Plan:       plan,
		Failures:   p.failures,
	}
	if !p.sawValidTap {
		summary = Summary{OK: true, Plan: &Plan{Start: 1, End: 0}, Failures: []Assertion{}}
	}

	p.summary = summary
	if p.onComplete != nil {
		p.onComplete(summary)
	}
	p.emit(Event{Type: EventComplete, Complete: &summary, Depth: p.level})
	p.closePump()
	return summary
}

func (p *Parser) registerFinalizeError(reason string) {
	p.ok = false
	p.failures = append(p.failures, Assertion{OK: false, TAPError: reason})
}
