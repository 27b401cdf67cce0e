// Package guard decides what a protected route does for a given session state
// Package guard 根据会话状态决定受保护路由的行为
package guard

import (
	"net/url"

	"github.com/haierkeys/fast-note-web/internal/session"
)

// LoginPath is where unauthenticated navigation is sent
// LoginPath 未登录时跳转的页面
const LoginPath = "/login"

// Variant selects the guard behaviour
// Variant 守卫类型
type Variant int

const (
	// Wrapper renders its children only when authenticated
	// Wrapper 仅在已登录时渲染子内容
	Wrapper Variant = iota
	// Nested guards a route subtree and remembers the attempted location
	// Nested 守护一组子路由，并记住尝试访问的位置
	Nested
)

func (v Variant) String() string {
	if v == Nested {
		return "nested"
	}
	return "wrapper"
}

// Outcome is the terminal result of a guard decision
// Outcome 守卫判定结果
type Outcome int

const (
	Render Outcome = iota
	Placeholder
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case Placeholder:
		return "placeholder"
	default:
		return "redirect"
	}
}

// Decision is exactly one of render, placeholder or redirect
// Decision 渲染、占位、跳转三者之一
type Decision struct {
	Outcome Outcome
	// To redirect target
	To string
	// Replace the current history entry
	Replace bool
	// From attempted location, Nested only
	From string
}

// Decide maps a session snapshot to a decision
// Decide 将会话快照映射为判定结果
func Decide(v Variant, st session.State, location string) Decision {
	// only Nested has a placeholder; Wrapper treats a session still loading as signed out
	if st.Loading && v == Nested {
		return Decision{Outcome: Placeholder}
	}
	if st.Authenticated {
		return Decision{Outcome: Render}
	}
	d := Decision{Outcome: Redirect, To: LoginPath, Replace: true}
	if v == Nested {
		d.From = location
	}
	return d
}

// Location is the redirect URL, carrying from as a query parameter when set
// Location 跳转地址，From 非空时作为 query 参数携带
func (d Decision) Location() string {
	if d.From == "" {
		return d.To
	}
	return d.To + "?" + url.Values{"from": {d.From}}.Encode()
}
