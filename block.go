package tap

import (
	"strings"

	"go.uber.org/zap"
)

// openDiagBlock begins accumulating a diagnostic block attached to the
// current pending assertion, at the given indent prefix (which
// strictly extends this parser's own).
func (p *Parser) openDiagBlock(indent string) {
	p.diagOpen = true
	p.diagIndent = indent
	p.diagText.Reset()
}

// closeDiagBlock runs when the matching "..." terminator is read. The
// accumulated text is handed to the YAML adapter; on success it is
// attached to the pending assertion, which is then flushed. On
// failure the opening "---" line and the block body are emitted as
// non-TAP extra (the closing "..." line is not included), and the
// assertion stays pending with no diagnostic attached.
func (p *Parser) closeDiagBlock() {
	text := p.diagText.String()
	indent := p.diagIndent
	p.diagOpen = false
	p.diagIndent = ""
	p.diagText.Reset()

	doc, err := decodeYAML([]byte(text))
	if err != nil {
		p.emitExtra(indent + "---\n" + text)
		return
	}
	if p.current != nil {
		p.current.Diag = doc
	}
	p.flushCurrent()
}

// breakDiagBlock runs when a line arrives that does not continue the
// open block. The block accumulated so far, together with the
// breaking line, is reassembled and emitted as non-TAP extra; the
// breaking line is then reprocessed in its own right, since it was
// never actually block content.
func (p *Parser) breakDiagBlock(breakingRaw string) {
	text := p.diagText.String()
	indent := p.diagIndent
	p.diagOpen = false
	p.diagIndent = ""
	p.diagText.Reset()

	p.logger.Warn("diagnostic block broken", zap.String("indent", indent))
	p.emitExtra(indent + "---\n" + text + breakingRaw)

	if breakingRaw == "" {
		return
	}
	p.process(strings.TrimSuffix(breakingRaw, "\n"))
}
