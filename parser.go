package tap

import (
	"bytes"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Parser is a streaming TAP parser. It ingests bytes through Ingest and
// End and publishes a typed Event stream over the channel returned by
// Events. A Parser owns at most one nested child Parser at a time,
// representing a streamed or brace-delimited subtest.
type Parser struct {
	indent   string
	level    int
	buffered *Assertion

	lineBuf []byte

	bailedOut     bool
	bailoutReason string

	planSet     bool
	planStart   int
	planEnd     int
	planComment string
	postPlan    bool

	diagOpen   bool
	diagIndent string
	diagText   strings.Builder

	child *Parser

	current      *Assertion
	commentQueue []string

	count, pass, fail, todoCount, skipCount int
	first, last                             int
	haveFirst                               bool
	failures                                []Assertion
	ok                                       bool


	sawValidTap   bool
	seenTestPoint bool
	strict        bool
	pragmas       map[string]bool

	logger     *zap.Logger
	onComplete func(Summary)

	events      chan Event
	queue       []Event
	queueMu     sync.Mutex
	queueCond   *sync.Cond
	queueClosed bool

	finalized bool
	summary   Summary
}

const eventBufferSize = 32

// NewParser constructs a Parser. Root callers typically pass no
// options; children are spawned internally with WithIndent/WithLevel/
// WithBuffered set to reflect their position in the subtest tree.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		planStart: -1,
		planEnd:   -1,
		ok:        true,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.events = make(chan Event, eventBufferSize)
	p.queueCond = sync.NewCond(&p.queueMu)
	p.startPump()
	return p
}

// Events returns the channel on which this parser's events are
// published. It is closed once this parser's complete event has been
// sent. A child parser owns its own Events channel rather than
// multiplexing into its parent's.
func (p *Parser) Events() <-chan Event {
	return p.events
}

// Buffered returns the enclosing assertion this parser is a
// brace-delimited subtest of, or nil for a streamed child or the root
// parser.
func (p *Parser) Buffered() *Assertion {
	return p.buffered
}

// Ingest appends chunk to the parser's line buffer and synchronously
// parses every complete line it contains. It never blocks on event
// delivery; events are handed to an internal queue drained by a
// dedicated pump goroutine.
func (p *Parser) Ingest(chunk []byte) error {
	p.lineBuf = append(p.lineBuf, chunk...)
	for {
		idx := bytes.IndexByte(p.lineBuf, '\n')
		if idx < 0 {
			break
		}
		raw := p.lineBuf[:idx+1]
		p.lineBuf = p.lineBuf[idx+1:]
		p.feedLine(raw)
	}
	return nil
}

// Write implements io.Writer over Ingest.
func (p *Parser) Write(chunk []byte) (int, error) {
	if err := p.Ingest(chunk); err != nil {
		return 0, err
	}
	return len(chunk), nil
}

// End ingests any trailing chunks, synthesizes a trailing newline for
// a final partial line if one remains, and finalizes the parser,
// producing the terminal complete event.
func (p *Parser) End(chunk ...[]byte) error {
	for _, c := range chunk {
		if err := p.Ingest(c); err != nil {
			return err
		}
	}
	if len(p.lineBuf) > 0 {
		tail := append(append([]byte{}, p.lineBuf...), '\n')
		p.lineBuf = nil
		p.feedLine(tail)
	}
	p.finalizeInternal()
	return nil
}

func normalizeCRLF(raw []byte) string {
	s := string(raw)
	if strings.HasSuffix(s, "\r\n") {
		return s[:len(s)-2] + "\n"
	}
	return s
}

// feedLine dispatches a single complete line (including its trailing
// "\n") through the state machine.
func (p *Parser) feedLine(raw []byte) {
	if p.bailedOut {
		return
	}
	line := normalizeCRLF(raw)
	p.emit(Event{Type: EventLine, Line: line, Depth: p.level})
	p.process(strings.TrimSuffix(line, "\n"))
	if p.child != nil && p.child.bailedOut {
		p.closeChild()
	}
}

// process dispatches one line's content (without its trailing "\n")
// according to the current parser state: diagnostic continuation,
// child forwarding, indentation, comments, and the fixed line shapes.
func (p *Parser) process(content string) {
	if content == "" {
		p.handleBlank()
		return
	}

	if p.diagOpen {
		if strings.HasPrefix(content, p.diagIndent) {
			rest := content[len(p.diagIndent):]
			if rest == "..." {
				p.closeDiagBlock()
				return
			}
			p.diagText.WriteString(content + "\n")
			return
		}
		p.breakDiagBlock(content + "\n")
		return
	}

	if p.child != nil {
		prefix := p.child.indent
		if strings.HasPrefix(content, prefix) {
			p.child.feedLine([]byte(content[len(prefix):] + "\n"))
			return
		}
		p.closeChild()
		p.process(content)
		return
	}

	trimmed := strings.TrimLeft(content, " \t")
	if trimmed != content {
		p.handleIndented(content)
		return
	}

	if strings.HasPrefix(content, "#") {
		p.handleComment(content)
		return
	}
	if p.postPlan {
		p.emitExtra(content)
		return
	}
	p.handleShapes(content)
}

func (p *Parser) handleBlank() {
	switch {
	case p.child != nil:
		p.child.feedLine([]byte("\n"))
	case p.diagOpen:
		p.diagText.WriteString("\n")
	}
}

// handleIndented runs once child and diagnostic-block states are both
// known closed: it decides whether this indented line opens a buffered
// subtest, opens a diagnostic block, spawns a streamed subtest, or is
// simply non-TAP.
func (p *Parser) handleIndented(content string) {
	ws := content[:len(content)-len(strings.TrimLeft(content, " \t"))]
	rest := content[len(ws):]

	switch {
	case p.current != nil && strings.HasSuffix(p.current.Name, "{"):
		p.spawnChild(ws, true)
		p.child.feedLine([]byte(rest + "\n"))
	case p.current != nil && rest == "---":
		p.openDiagBlock(ws)
	case !p.postPlan && classifyLine(rest) != shapeNone:
		p.spawnChild(ws, false)
		p.child.feedLine([]byte(rest + "\n"))
	default:
		p.emitExtra(content)
	}
}

func (p *Parser) handleComment(content string) {
	text := strings.TrimSpace(strings.TrimPrefix(content, "#"))
	if p.current != nil || len(p.commentQueue) > 0 {
		p.commentQueue = append(p.commentQueue, text)
		return
	}
	p.emit(Event{Type: EventComment, Comment: text, Depth: p.level})
}

func (p *Parser) handleShapes(content string) {
	switch classifyLine(content) {
	case shapeBailout:
		p.handleBailout(content)
	case shapePragma:
		p.handlePragma(content)
	case shapeVersion:
		p.handleVersion(content)
	case shapePlan:
		p.handlePlan(content)
	case shapeTestPoint:
		p.handleTestPoint(content)
	default:
		if content == "}" {
			p.handleBufferedClose()
			return
		}
		p.emitExtra(content)
	}
}

func (p *Parser) handleVersion(content string) {
	if p.planSet || p.seenTestPoint {
		p.emitExtra(content)
		return
	}
	v := parseVersionLine(content)
	if v < 13 {
		p.emitExtra(content)
		return
	}
	p.sawValidTap = true
	p.emit(Event{Type: EventVersion, Version: v, Depth: p.level})
}

func (p *Parser) handlePlan(content string) {
	if p.planSet {
		p.emitExtra(content)
		return
	}
	p.flushCurrent()
	start, end, comment := parsePlanLine(content)
	p.planSet = true
	p.planStart = start
	p.planEnd = end
	p.planComment = comment
	p.sawValidTap = true
	if p.count > 0 || end == 0 {
		p.postPlan = true
	}
	p.emit(Event{Type: EventPlan, Plan: &Plan{Start: start, End: end, Comment: comment}, Depth: p.level})
}

func (p *Parser) handleTestPoint(content string) {
	p.seenTestPoint = true
	p.sawValidTap = true

	negated, idStr, rest := parseTestPointLine(content)
	name, hasTodo, todo, hasSkip, skip, hasTime, timeMS := parseTestPointBody(rest)

	p.flushCurrent()

	var id int
	if idStr != "" {
		id, _ = strconv.Atoi(idStr)
	} else {
		id = p.count + 1
	}

	a := &Assertion{
		OK: !negated, ID: id, Name: name,
		HasTodo: hasTodo, Todo: todo,
		HasSkip: hasSkip, Skip: skip,
		HasTime: hasTime, TimeMS: timeMS,
	}
	if p.planSet {
		switch {
		case id < p.planStart:
			a.TAPError = "id less than plan start"
		case id > p.planEnd:
			a.TAPError = "id greater than plan end"
		}
	}
	p.current = a
}

func (p *Parser) handleBailout(content string) {
	p.flushCurrent()
	reason := parseBailoutReason(content)
	p.bailedOut = true
	p.bailoutReason = reason
	p.ok = false
	p.sawValidTap = true
	p.emit(Event{Type: EventBailout, Bailout: reason, Depth: p.level})
	p.logger.Error("bailout", zap.String("reason", reason))
}

func (p *Parser) handlePragma(content string) {
	name, enabled := parsePragmaLine(content)
	if p.pragmas == nil {
		p.pragmas = make(map[string]bool)
	}
	p.pragmas[name] = enabled
	p.sawValidTap = true
	if name == "strict" {
		p.strict = enabled
	}
}

func (p *Parser) handleBufferedClose() {
	if p.current != nil && strings.HasSuffix(p.current.Name, "{") {
		p.current.Name = strings.TrimSpace(strings.TrimSuffix(p.current.Name, "{"))
		p.flushCurrent()
		return
	}
	p.emitExtra("}")
}

// emitExtra publishes non-TAP content as an extra event, additionally
// recording a strict-mode failure when strict is enabled.
func (p *Parser) emitExtra(content string) {
	if p.strict {
		p.failures = append(p.failures, Assertion{TAPError: "Non-TAP data encountered in strict mode", Data: content})
		p.ok = false
	}
	p.emit(Event{Type: EventExtra, Extra: content, Depth: p.level})
}

// flushCurrent emits the pending assertion, if any, followed by any
// comments withheld while it was pending. Callers are responsible for
// ensuring no child or diagnostic block is open first; every call site
// in the state machine is reached only once both are already resolved.
func (p *Parser) flushCurrent() {
	if p.current == nil {
		p.drainComments()
		return
	}
	a := p.current
	p.current = nil
	p.count++
	if !p.haveFirst || a.ID < p.first {
		p.first = a.ID
	}
	if !p.haveFirst || a.ID > p.last {
		p.last = a.ID
	}
	p.haveFirst = true

	switch {
	case a.HasTodo:
		p.todoCount++
	case a.HasSkip:
		p.skipCount++
	case a.OK:
		p.pass++
	default:
		p.fail++
	}

	if a.isFailure() || a.TAPError != "" {
		p.failures = append(p.failures, *a)
		p.ok = false
	}

	p.emit(Event{Type: EventAssert, Assert: a, Depth: p.level})
	p.drainComments()
}

func (p *Parser) drainComments() {
	for _, c := range p.commentQueue {
		p.emit(Event{Type: EventComment, Comment: c, Depth: p.level})
	}
	p.commentQueue = nil
}

func (p *Parser) emit(e Event) {
	p.queueMu.Lock()
	p.queue = append(p.queue, e)
	p.queueCond.Signal()
	p.queueMu.Unlock()
}

// startPump launches the single goroutine responsible for draining this
// parser's internal event queue onto its public channel. Ingest/End
// never block on a slow consumer; only this pump's send does.
func (p *Parser) startPump() {
	go func() {
		for {
			p.queueMu.Lock()
			for len(p.queue) == 0 && !p.queueClosed {
				p.queueCond.Wait()
			}
			if len(p.queue) == 0 && p.queueClosed {
				p.queueMu.Unlock()
				close(p.events)
				return
			}
			e := p.queue[0]
			p.queue = p.queue[1:]
			p.queueMu.Unlock()
			p.events <- e
		}
	}()
}

func (p *Parser) closePump() {
	p.queueMu.Lock()
	p.queueClosed = true
	p.queueCond.Signal()
	p.queueMu.Unlock()
}
