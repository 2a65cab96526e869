package mdlex

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidUTF8 reports invalid UTF-8 input.
	ErrInvalidUTF8 = errors.New("invalid utf-8 input")
	// ErrBinaryInput reports input that appears to be binary.
	ErrBinaryInput = errors.New("binary input detected")
	// ErrRuleTimeout reports a rule that exceeded the step budget.
	ErrRuleTimeout = errors.New("rule step budget exceeded")
)

// EncodingError reports malformed UTF-8 at a byte offset of the source.
type EncodingError struct {
	Offset int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("invalid utf-8 at byte %d", e.Offset)
}

func (e *EncodingError) Unwrap() error { return ErrInvalidUTF8 }

// RuleClass names a family of grammar rules guarded by the step budget.
type RuleClass string

const (
	RuleEmphasis   RuleClass = "emphasis"
	RuleLink       RuleClass = "link"
	RuleHTMLBlock  RuleClass = "html_block"
	RuleInlineHTML RuleClass = "inline_html"
	RuleCodeSpan   RuleClass = "codespan"
	RuleContainer  RuleClass = "container"
	RuleTable      RuleClass = "table"
	RuleDef        RuleClass = "def"
)

// RuleTimeoutError reports that a rule class exhausted the step budget, or
// that containers nested deeper than the lexer follows. Callers can recover by
// treating the input as plain text.
type RuleTimeoutError struct {
	Rule  RuleClass
	Steps int
	// Depth is set instead of Steps when the nesting limit was hit.
	Depth int
}

func (e *RuleTimeoutError) Error() string {
	if e.Depth > 0 {
		return fmt.Sprintf("%s rule exceeded nesting depth of %d", e.Rule, e.Depth)
	}
	return fmt.Sprintf("%s rule exceeded step budget of %d", e.Rule, e.Steps)
}

func (e *RuleTimeoutError) Unwrap() error { return ErrRuleTimeout }

// thrown wraps an error raised deep inside the lexer so catch can tell it apart
// from runtime panics.
type thrown struct {
	err error
}

func throw(err error) {
	panic(thrown{err})
}

// catch stops a panic raised by throw and stores its error. Other panics keep
// unwinding. It must be called directly from defer.
func catch(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if t, ok := r.(thrown); ok {
		*errp = t.err
		return
	}
	panic(r)
}

const (
	minStepLimit    = 1 << 16
	stepsPerByte    = 256
	maxNestingDepth = 512
)

// budget counts work in rules whose cost is not linear in the bytes they consume.
type budget struct {
	limit int
	used  int
}

func newBudget(limit int, srcLen int) budget {
	if limit == 0 {
		limit = srcLen * stepsPerByte
		if limit < minStepLimit {
			limit = minStepLimit
		}
	}
	return budget{limit: limit}
}

func (b *budget) spend(rule RuleClass, n int) {
	if b.limit < 0 {
		return
	}
	b.used += n
	if b.used > b.limit {
		throw(&RuleTimeoutError{Rule: rule, Steps: b.limit})
	}
}
