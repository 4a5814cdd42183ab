package latex

import "strings"

// Argument is a labeled value with an optional ordered list of options.
// A zero Argument (empty Value) means "absent" wherever it is optional.
type Argument struct {
	Value   string
	Options []string
}

// Arg returns a bare Argument.
func Arg(value string) Argument {
	return Argument{Value: value}
}

// ArgWith returns an Argument carrying options in the given order.
func ArgWith(value string, options ...string) Argument {
	if len(options) == 0 {
		return Argument{Value: value}
	}
	return Argument{Value: value, Options: append([]string(nil), options...)}
}

// IsZero reports whether the argument is absent.
func (a Argument) IsZero() bool {
	return a.Value == "" && len(a.Options) == 0
}

// String renders the argument with FormatArg.
func (a Argument) String() string {
	return FormatArg(a)
}

// FormatArg renders an argument as {value}, or [o1, o2, ...]{value} when it
// carries options. It is the only place argument syntax is produced.
func FormatArg(a Argument) string {
	var b strings.Builder
	if len(a.Options) > 0 {
		b.WriteByte('[')
		b.WriteString(strings.Join(a.Options, ", "))
		b.WriteByte(']')
	}
	b.WriteByte('{')
	b.WriteString(a.Value)
	b.WriteByte('}')
	return b.String()
}

// Args converts plain names into bare arguments.
func Args(values ...string) []Argument {
	out := make([]Argument, 0, len(values))
	for _, v := range values {
		out = append(out, Arg(v))
	}
	return out
}
