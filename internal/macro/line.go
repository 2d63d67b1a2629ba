package macro

import (
	"strings"

	"github.com/pandeptwidyaop/sndctl/internal/models"
)

// CommentPrefix marks a body line as non-executable.
const CommentPrefix = "#"

// segment is either literal text or a 1-based placeholder reference.
type segment struct {
	text string
	arg  int
}

// Token is one blank-separated word of a body line, possibly containing
// placeholders.
type Token []segment

// resolve substitutes placeholders with args. Callers check bounds first.
func (t Token) resolve(args []string) string {
	if len(t) == 1 && t[0].arg == 0 {
		return t[0].text
	}
	var b strings.Builder
	for _, s := range t {
		if s.arg > 0 {
			b.WriteString(args[s.arg-1])
		} else {
			b.WriteString(s.text)
		}
	}
	return b.String()
}

// maxArg returns the highest placeholder index in the token, or 0.
func (t Token) maxArg() int {
	max := 0
	for _, s := range t {
		if s.arg > max {
			max = s.arg
		}
	}
	return max
}

// Step is a tokenized executable body line.
type Step struct {
	Tokens []Token
	Line   int
}

// MaxArg returns the highest placeholder index the step references.
func (s Step) MaxArg() int {
	max := 0
	for _, t := range s.Tokens {
		if m := t.maxArg(); m > max {
			max = m
		}
	}
	return max
}

// Command resolves the step against args.
func (s Step) Command(args []string) (models.PrimitiveCommand, error) {
	if m := s.MaxArg(); m > len(args) {
		return models.PrimitiveCommand{}, &MissingArgumentError{Index: m, Supplied: len(args), Line: s.Line}
	}
	cmd := models.PrimitiveCommand{
		Device: s.Tokens[0].resolve(args),
		Action: s.Tokens[1].resolve(args),
		Args:   make([]string, 0, len(s.Tokens)-2),
		Line:   s.Line,
	}
	for _, t := range s.Tokens[2:] {
		cmd.Args = append(cmd.Args, t.resolve(args))
	}
	return cmd, nil
}

// IsSkippable reports whether a body line is blank or a comment.
func IsSkippable(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, CommentPrefix)
}

// ParseLine tokenizes one body line. Blank and comment lines return nil.
// lineNo is only used for error reporting.
func ParseLine(line string, lineNo int) (*Step, error) {
	if IsSkippable(line) {
		return nil, nil
	}

	tokens, err := tokenize(line)
	if err != nil {
		return nil, &ParseError{Line: lineNo, Msg: err.Error()}
	}
	if len(tokens) < 2 {
		return nil, &ParseError{Line: lineNo, Msg: "expected a device and an action"}
	}
	return &Step{Tokens: tokens, Line: lineNo}, nil
}

type tokenizeError string

func (e tokenizeError) Error() string { return string(e) }

// tokenize splits a line on blanks. Double quotes group blanks into a token;
// inside quotes \" and \\ are escapes. %N is a placeholder and %% a literal
// percent sign, both inside and outside quotes.
func tokenize(line string) ([]Token, error) {
	var (
		tokens  []Token
		current Token
		text    strings.Builder
		inToken bool
		quoted  bool
	)

	flushText := func() {
		if text.Len() > 0 {
			current = append(current, segment{text: text.String()})
			text.Reset()
		}
	}
	endToken := func() {
		flushText()
		if inToken {
			if len(current) == 0 {
				current = Token{{text: ""}}
			}
			tokens = append(tokens, current)
		}
		current = nil
		inToken = false
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			quoted = !quoted
			inToken = true
		case !quoted && (c == ' ' || c == '\t'):
			endToken()
		case quoted && c == '\\' && i+1 < len(line) && (line[i+1] == '"' || line[i+1] == '\\'):
			text.WriteByte(line[i+1])
			i++
		case c == '%':
			inToken = true
			if i+1 < len(line) && line[i+1] == '%' {
				text.WriteByte('%')
				i++
				continue
			}
			j := i + 1
			for j < len(line) && line[j] >= '0' && line[j] <= '9' {
				j++
			}
			if j == i+1 {
				return nil, tokenizeError("'%' must be followed by a placeholder number or '%'")
			}
			n := 0
			for _, d := range line[i+1 : j] {
				n = n*10 + int(d-'0')
				if n > 1<<16 {
					return nil, tokenizeError("placeholder number too large")
				}
			}
			if n == 0 {
				return nil, tokenizeError("placeholders are numbered from %1")
			}
			flushText()
			current = append(current, segment{arg: n})
			i = j - 1
		default:
			text.WriteByte(c)
			inToken = true
		}
	}

	if quoted {
		return nil, tokenizeError("unterminated quote")
	}
	endToken()
	return tokens, nil
}
