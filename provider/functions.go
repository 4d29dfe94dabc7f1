package provider

import (
	"strings"
)

// EscapeLike escapes the LIKE wildcards of s, so the result matches s
// literally when used as a LIKE pattern.
func (p *Provider) EscapeLike(s string) string {
	if !strings.ContainsAny(s, `%_\[`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case p.caps.LikeEscape == LikeEscapeBrackets && (r == '%' || r == '_' || r == '['):
			b.WriteByte('[')
			b.WriteRune(r)
			b.WriteByte(']')
		case p.caps.LikeEscape != LikeEscapeBrackets && (r == '%' || r == '_' || r == '\\'):
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Like renders a LIKE predicate over an escaped pattern. Comparisons are
// case insensitive unless the provider was configured otherwise.
func (p *Provider) Like(expr, pattern string, not bool) string {
	op := " LIKE "
	if not {
		op = " NOT LIKE "
	}
	escape := ""
	if p.caps.LikeEscape == LikeEscapeClause {
		escape = ` ESCAPE '\'`
	}
	switch {
	case p.caseSensitiveLike || p.caps.LikeFoldsCase:
	case p.caps.ILike:
		op = strings.Replace(op, "LIKE", "ILIKE", 1)
	default:
		expr, pattern = "UPPER("+expr+")", "UPPER("+pattern+")"
	}
	return expr + op + pattern + escape
}

// EqualFold renders a case insensitive equality.
func (p *Provider) EqualFold(a, b string) string {
	return "UPPER(" + a + ") = UPPER(" + b + ")"
}

// Substring renders the substring of expr. start is 1-based, length may be
// empty.
func (p *Provider) Substring(expr, start, length string) string {
	return p.caps.Substring(expr, start, length)
}

// Length renders the character length of expr.
func (p *Provider) Length(expr string) string { return p.caps.Length(expr) }

// Concat renders the string concatenation of parts.
func (p *Provider) Concat(parts ...string) string {
	if len(parts) == 1 {
		return parts[0]
	}
	return p.caps.Concat(parts...)
}

// Mod renders the remainder of a divided by b.
func (p *Provider) Mod(a, b string) string {
	if p.caps.ModFunction {
		return "MOD(" + a + ", " + b + ")"
	}
	return "(" + a + " % " + b + ")"
}

// Trim renders expr without leading and trailing spaces.
func (p *Provider) Trim(expr string) string { return p.caps.Trim(expr) }

// Call renders the scalar or aggregate function name over rendered
// arguments. Unknown functions fail with an UnsupportedExpressionError.
func (p *Provider) Call(name string, args ...string) (string, error) {
	arity := func(n int) error {
		if len(args) != n {
			return p.invalid(name, "wrong number of arguments")
		}
		return nil
	}
	switch strings.ToLower(name) {
	case "upper", "lower", "abs":
		if err := arity(1); err != nil {
			return "", err
		}
		return strings.ToUpper(name) + "(" + args[0] + ")", nil
	case "round":
		if len(args) == 1 {
			args = append(args, "0")
		}
		if err := arity(2); err != nil {
			return "", err
		}
		return "ROUND(" + args[0] + ", " + args[1] + ")", nil
	case "length":
		if err := arity(1); err != nil {
			return "", err
		}
		return p.Length(args[0]), nil
	case "trim":
		if err := arity(1); err != nil {
			return "", err
		}
		return p.Trim(args[0]), nil
	case "substring":
		switch len(args) {
		case 2:
			return p.Substring(args[0], args[1], ""), nil
		case 3:
			return p.Substring(args[0], args[1], args[2]), nil
		}
		return "", p.invalid(name, "wrong number of arguments")
	case "concat":
		if len(args) == 0 {
			return "", p.invalid(name, "wrong number of arguments")
		}
		return p.Concat(args...), nil
	case "coalesce":
		if len(args) < 2 {
			return "", p.invalid(name, "wrong number of arguments")
		}
		return "COALESCE(" + strings.Join(args, ", ") + ")", nil
	case "count":
		if len(args) == 0 {
			return "COUNT(*)", nil
		}
		if err := arity(1); err != nil {
			return "", err
		}
		return "COUNT(" + args[0] + ")", nil
	case "countdistinct":
		if err := arity(1); err != nil {
			return "", err
		}
		return "COUNT(DISTINCT " + args[0] + ")", nil
	case "sum", "min", "max", "avg":
		if err := arity(1); err != nil {
			return "", err
		}
		return strings.ToUpper(name) + "(" + args[0] + ")", nil
	}
	return "", p.unsupported(name + "()")
}

func substr(expr, start, length string) string {
	if length == "" {
		return "SUBSTR(" + expr + ", " + start + ")"
	}
	return "SUBSTR(" + expr + ", " + start + ", " + length + ")"
}

func substring(expr, start, length string) string {
	if length == "" {
		return "SUBSTRING(" + expr + ", " + start + ")"
	}
	return "SUBSTRING(" + expr + ", " + start + ", " + length + ")"
}

func pipes(parts ...string) string {
	return "(" + strings.Join(parts, " || ") + ")"
}

func concatFunc(parts ...string) string {
	return "CONCAT(" + strings.Join(parts, ", ") + ")"
}

func trim(expr string) string { return "TRIM(" + expr + ")" }

func fn(name string) func(string) string {
	return func(expr string) string { return name + "(" + expr + ")" }
}
