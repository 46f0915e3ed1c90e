package wire

import (
	"fmt"
	"math/rand/v2"

	"cipherxfer/internal/domain"
)

// LossScope selects which outgoing frames are subject to simulated loss.
type LossScope string

const (
	// LossScopeAll applies loss to every frame except the handshake tokens.
	LossScopeAll LossScope = "all"
	// LossScopeData applies loss to DATA messages only.
	LossScopeData LossScope = "data"
)

// ParseLossScope validates a configured scope name.
func ParseLossScope(s string) (LossScope, error) {
	switch LossScope(s) {
	case LossScopeAll, LossScopeData:
		return LossScope(s), nil
	case "":
		return LossScopeAll, nil
	default:
		return "", fmt.Errorf("unknown loss scope %q (want %q or %q)", s, LossScopeAll, LossScopeData)
	}
}

// LossPolicy decides whether an outgoing frame is dropped.
type LossPolicy struct {
	Rate  float64
	Scope LossScope

	// Float64 returns a value in [0, 1). Nil uses math/rand/v2.
	Float64 func() float64
}

// NoLoss never drops.
var NoLoss = LossPolicy{}

// Drop decides the fate of one frame. kind is the JSON message type, or
// empty for a raw frame.
func (p LossPolicy) Drop(kind domain.MessageType) bool {
	if p.Rate <= 0 {
		return false
	}
	if p.Scope == LossScopeData && kind != domain.MessageData {
		return false
	}
	roll := rand.Float64
	if p.Float64 != nil {
		roll = p.Float64
	}
	return roll() < p.Rate
}

func isHandshakeToken(payload []byte) bool {
	s := string(payload)
	return s == domain.HelloToken || s == domain.ReadyToken
}
