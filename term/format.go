package term

import (
	"math"
	"strconv"
	"strings"
)

// Format renders t in the host's literal syntax.
func Format(t Term) string {
	var b strings.Builder
	write(&b, t)
	return b.String()
}

func (a Atom) String() string         { return Format(a) }
func (x Binary) String() string       { return Format(x) }
func (f Float) String() string        { return Format(f) }
func (i Integer) String() string      { return Format(i) }
func (l List) String() string         { return Format(l) }
func (l ImproperList) String() string { return Format(l) }
func (t Tuple) String() string        { return Format(t) }
func (m Map) String() string          { return Format(m) }
func (f Fun) String() string          { return Format(f) }
func (p Pid) String() string          { return Format(p) }
func (p Port) String() string         { return Format(p) }
func (r Ref) String() string          { return Format(r) }

func write(b *strings.Builder, t Term) {
	switch v := t.(type) {
	case Atom:
		writeAtom(b, v)
	case Float:
		b.WriteString(formatFloat(float64(v)))
	case Integer:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case Binary:
		writeBinary(b, v)
	case List:
		b.WriteByte('[')
		writeSeq(b, v)
		b.WriteByte(']')
	case ImproperList:
		b.WriteByte('[')
		writeSeq(b, v.Elems)
		b.WriteByte('|')
		write(b, v.Tail)
		b.WriteByte(']')
	case Tuple:
		b.WriteByte('{')
		writeSeq(b, v)
		b.WriteByte('}')
	case Map:
		b.WriteString("#{")
		first := true
		v.Each(func(k, val Term) bool {
			if !first {
				b.WriteByte(',')
			}
			first = false
			write(b, k)
			b.WriteString(" => ")
			write(b, val)
			return true
		})
		b.WriteByte('}')
	case Fun:
		b.WriteString("fun ")
		writeAtom(b, v.Module)
		b.WriteByte(':')
		writeAtom(b, v.Name)
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(v.Arity))
	case Pid:
		b.WriteString("<0.")
		b.WriteString(strconv.FormatUint(uint64(v.ID), 10))
		b.WriteByte('.')
		b.WriteString(strconv.FormatUint(uint64(v.Serial), 10))
		b.WriteByte('>')
	case Port:
		b.WriteString("#Port<0.")
		b.WriteString(strconv.FormatUint(v.ID, 10))
		b.WriteByte('>')
	case Ref:
		b.WriteString("#Ref<0.")
		b.WriteString(strconv.FormatUint(v.id, 10))
		b.WriteByte('>')
	case nil:
		b.WriteString("<nil>")
	default:
		b.WriteString("<unknown>")
	}
}

func writeSeq(b *strings.Builder, ts []Term) {
	for i, t := range ts {
		if i > 0 {
			b.WriteByte(',')
		}
		write(b, t)
	}
}

// formatFloat prints the shortest representation that reads back to the
// same bits, always with a fractional part.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".") {
		return s
	}
	if i := strings.IndexByte(s, 'e'); i >= 0 {
		return s[:i] + ".0" + s[i:]
	}
	return s + ".0"
}

func writeAtom(b *strings.Builder, a Atom) {
	if bareAtom(string(a)) {
		b.WriteString(string(a))
		return
	}
	b.WriteByte('\'')
	for _, r := range string(a) {
		switch r {
		case '\'', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
}

func bareAtom(s string) bool {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isAtomChar(s[i]) {
			return false
		}
	}
	return true
}

func isAtomChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '@'
}

func writeBinary(b *strings.Builder, x Binary) {
	b.WriteString("<<")
	if len(x) > 0 && printable(x) {
		b.WriteString(strconv.Quote(string(x)))
	} else {
		for i, c := range x {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(int(c)))
		}
	}
	b.WriteString(">>")
}

func printable(x []byte) bool {
	for _, c := range x {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
