package main

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"deedles.dev/wlkde/internal/xslices"
	"deedles.dev/wlkde/protocol"
)

func (ctx Context) ident(v string) string {
	for _, prefix := range ctx.Prefixes {
		after, ok := strings.CutPrefix(v, prefix)
		if ok {
			v = after
			break
		}
	}

	return ctx.camel(v)
}

func (ctx Context) camel(v string) string {
	var buf strings.Builder
	buf.Grow(len(v))
	shift := true
	for _, c := range v {
		if (c == '_') || (c == '-') {
			shift = true
			continue
		}

		if shift {
			c = unicode.ToUpper(c)
		}
		buf.WriteRune(c)
		shift = false
	}
	return buf.String()
}

func (ctx Context) unexport(v string) string {
	if len(v) == 0 {
		return ""
	}

	c, size := utf8.DecodeRuneInString(v)
	if unicode.IsLower(c) {
		return v
	}

	var buf strings.Builder
	buf.Grow(len(v))
	buf.WriteRune(unicode.ToLower(c))
	buf.WriteString(v[size:])
	return buf.String()
}

func (ctx Context) enumEntries(e protocol.Enum) []protocol.Entry {
	return xslices.Filter(e.Entries, func(entry protocol.Entry) bool {
		_, err := entry.Int()
		return err == nil
	})
}
