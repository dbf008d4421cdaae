// Package paths rewrites host paths for container tools running behind a
// POSIX compatibility layer.
// This is part of the Functional Core - all functions are pure with no I/O.
package paths

import (
	"strings"

	"github.com/artpar/uniform/internal/core/domain"
)

// PathKeys are the context entries holding host paths.
var PathKeys = []string{
	"WORKSPACE_PATH",
	"TPL_PATH",
	"PACKAGES_ROOT",
	"HOME_PATH",
	"SVC_PATH",
}

// ToUnix replaces backslashes with forward slashes.
func ToUnix(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// ToWindows replaces forward slashes with backslashes.
func ToWindows(p string) string {
	return strings.ReplaceAll(p, "/", `\`)
}

// WSL converts a drive path into its /mnt mount form.
//
//	WSL(`C:\work\acme`) // "/mnt/c/work/acme"
//	WSL("/srv/acme")    // unchanged
func WSL(p string) string {
	drive, rest, ok := strings.Cut(p, `:\`)
	if !ok {
		return p
	}
	return "/mnt/" + strings.ToLower(drive) + "/" + ToUnix(rest)
}

// Rewriter transforms path-valued context entries before they are handed
// to the external tool.
type Rewriter func(ctx *domain.Context) *domain.Context

// Identity leaves the context untouched.
func Identity(ctx *domain.Context) *domain.Context {
	return ctx
}

// RewriteWSL returns a copy of ctx with every PathKeys entry converted to
// its WSL mount form. Other entries are copied as-is.
func RewriteWSL(ctx *domain.Context) *domain.Context {
	out := ctx.Clone()
	for _, key := range PathKeys {
		if v, ok := out.Get(key); ok {
			out.Set(key, WSL(ToWindows(v)))
		}
	}
	return out
}

// ForOS picks the rewriter for a host platform as reported by runtime.GOOS.
func ForOS(goos string) Rewriter {
	if goos == "windows" {
		return RewriteWSL
	}
	return Identity
}
