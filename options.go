package tap

import "go.uber.org/zap"

// Option configures a Parser at construction time. Root callers
// generally leave all but WithLogger and WithOnComplete at their
// defaults; the rest exist for the parser's own use when spawning
// child (subtest) parsers.
type Option func(*Parser)

// WithIndent sets the line prefix this parser strips before
// classifying a line. Children are constructed with the indent
// prefix observed at their spawn point; the root parser defaults to "".
func WithIndent(s string) Option {
	return func(p *Parser) { p.indent = s }
}

// WithLevel sets the nesting depth recorded on emitted events.
func WithLevel(n int) Option {
	return func(p *Parser) { p.level = n }
}

// WithBuffered marks this parser as a brace-delimited subtest of the
// given enclosing assertion, which the parent flushes once this
// parser's closing "}" is read.
func WithBuffered(a *Assertion) Option {
	return func(p *Parser) { p.buffered = a }
}

// WithLogger supplies the structured logger used for operational
// telemetry (child spawn/close, broken diagnostic blocks, bailouts).
// Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithOnComplete registers a callback invoked synchronously with this
// parser's Summary once it finalizes, in addition to the complete
// event published on its channel. Used internally to let a parent
// observe a child's outcome without depending on the child's own
// Events() channel being drained.
func WithOnComplete(fn func(Summary)) Option {
	return func(p *Parser) { p.onComplete = fn }
}
