// Package security はアクセスポリシーとHTTP Basic認証ミドルウェアを提供します。
package security

import (
	"path"
	"strings"
)

// Policy is a table of path patterns served without credentials.
//
// A pattern ending in "/**" matches its prefix and every path below it.
// Other patterns use path.Match syntax, so "/users/*" matches one segment.
type Policy struct {
	public []string
}

// NewPolicy builds a policy from public path patterns. Blank entries are ignored.
func NewPolicy(publicPaths []string) *Policy {
	p := &Policy{public: make([]string, 0, len(publicPaths))}
	for _, pattern := range publicPaths {
		if pattern = strings.TrimSpace(pattern); pattern != "" {
			p.public = append(p.public, pattern)
		}
	}
	return p
}

// IsPublic reports whether requestPath may be served anonymously.
func (p *Policy) IsPublic(requestPath string) bool {
	for _, pattern := range p.public {
		if matches(pattern, requestPath) {
			return true
		}
	}
	return false
}

func matches(pattern, requestPath string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return requestPath == prefix || strings.HasPrefix(requestPath, prefix+"/")
	}
	ok, err := path.Match(pattern, requestPath)
	return err == nil && ok
}
