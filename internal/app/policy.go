package app

import (
	"github.com/dkeye/Duet/internal/core"
	"github.com/rs/zerolog/log"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
)

// Policy decides what happens to a connection whose send buffer is full.
type Policy interface {
	OnBackPressure(sess *core.Session) BackpressureAction
}

// SimplePolicy kicks slow connections; the read pump then runs the normal
// disconnect cascade for them.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(sess *core.Session) BackpressureAction {
	return KickMember
}

// Apply runs the policy decision against sess.
func Apply(p Policy, sess *core.Session) BackpressureAction {
	if p == nil {
		return NoAction
	}
	action := p.OnBackPressure(sess)
	switch action {
	case KickMember:
		log.Warn().Str("module", "app.policy").Str("name", sess.Name).Str("conn", string(sess.ID)).Msg("send buffer full, closing connection")
		sess.Conn.Close()
	case NoAction:
	}
	return action
}
