package macro

import (
	"github.com/pandeptwidyaop/sndctl/internal/models"
)

// Compile tokenizes every executable line of a body in order.
func Compile(body []string) ([]Step, error) {
	steps := make([]Step, 0, len(body))
	for i, line := range body {
		step, err := ParseLine(line, i+1)
		if err != nil {
			return nil, err
		}
		if step != nil {
			steps = append(steps, *step)
		}
	}
	return steps, nil
}

// Expand substitutes args into the macro body and returns the commands to
// dispatch, in body order. Argument values are inserted verbatim.
func Expand(m models.Macro, args []string) ([]models.PrimitiveCommand, error) {
	steps, err := Compile(m.Body)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Macro = m.Name
		}
		return nil, err
	}

	cmds := make([]models.PrimitiveCommand, 0, len(steps))
	for _, step := range steps {
		cmd, err := step.Command(args)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// ArgumentCount returns the number of positional arguments a body needs, i.e.
// the highest placeholder index referenced. Untokenizable lines are ignored.
func ArgumentCount(body []string) int {
	max := 0
	for i, line := range body {
		step, err := ParseLine(line, i+1)
		if err != nil || step == nil {
			continue
		}
		if m := step.MaxArg(); m > max {
			max = m
		}
	}
	return max
}
