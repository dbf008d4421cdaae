// Package variables expands ${NAME} placeholders against an ordered context.
// This is part of the Functional Core - all functions are pure with no I/O.
package variables

import (
	"regexp"
	"strings"

	"github.com/artpar/uniform/internal/core/domain"
)

// =============================================================================
// Variable Substitution Functions
// =============================================================================

// placeholderRegex matches ${NAME} and ${NAME:DEFAULT}.
// Groups:
//   - Group 1: variable name
//   - Group 2: default expression, everything after the first colon
var placeholderRegex = regexp.MustCompile(`\$\{([A-Z0-9_]+)(?::([^}]+))?\}`)

// Substitute replaces every ${NAME} and ${NAME:DEFAULT} placeholder in value.
//
// Behavior:
//   - NAME present in ctx - replaced with the context value, default ignored
//   - ${NAME:$OTHER} - falls back to ctx[OTHER], one level of lookup only
//   - ${NAME:'x'} or ${NAME:"x"} - falls back to x with the quotes stripped
//   - ${NAME:x} - falls back to x, trimmed
//   - ${NAME} not in ctx - replaced with the empty string
//
// The string is scanned once; placeholders produced by a replacement are
// not expanded again.
//
// Examples:
//
//	Substitute("${ROOT}/web", ctx)        // "/srv/web" when ROOT=/srv
//	Substitute("${PORT:8080}", empty)     // "8080"
//	Substitute("${HOST:$DB_HOST}", ctx)   // ctx["DB_HOST"]
func Substitute(value string, ctx *domain.Context) string {
	if !strings.Contains(value, "${") {
		return value
	}

	return placeholderRegex.ReplaceAllStringFunc(value, func(match string) string {
		submatch := placeholderRegex.FindStringSubmatch(match)
		name := submatch[1]
		if v, ok := ctx.Get(name); ok {
			return v
		}
		return fallback(submatch[2], ctx)
	})
}

// fallback evaluates the DEFAULT part of a placeholder.
func fallback(def string, ctx *domain.Context) string {
	def = strings.TrimSpace(def)
	switch {
	case def == "":
		return ""
	case strings.HasPrefix(def, "$"):
		v, _ := ctx.Get(def[1:])
		return strings.TrimSpace(v)
	case strings.HasPrefix(def, `"`):
		return strings.Trim(def, `"`)
	case strings.HasPrefix(def, "'"):
		return strings.Trim(def, "'")
	}
	return def
}

// Insert substitutes value against ctx and stores the result under key.
// It is the single step of the left-to-right layering pass: a placeholder
// only sees the names already present in ctx.
func Insert(ctx *domain.Context, key, value string) {
	ctx.Set(key, Substitute(value, ctx))
}

// InsertAll applies Insert for every entry of vars in declaration order.
func InsertAll(ctx *domain.Context, vars *domain.Context) {
	vars.Each(func(k, v string) {
		Insert(ctx, k, v)
	})
}
