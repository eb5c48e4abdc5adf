// ABOUTME: Use-case names and the bounded UseCase type
// ABOUTME: Validates routing profile names against the known verb/modifier set
package ucm

import (
	"errors"
	"fmt"
	"strings"
)

// Identifiers understood by Manager.Get and Manager.Set.
const (
	IdentVerb          = "_verb"
	IdentEnableMod     = "_enamod"
	IdentDisableMod    = "_dismod"
	IdentEnableDevice  = "_enadev"
	IdentDisableDevice = "_disdev"
)

// Routing profiles.
const (
	VerbInactive     = "Inactive"
	VerbHiFi         = "HiFi"
	VerbHiFiLowPower = "HiFi Low Power"
	ModPlayMusic     = "Play Music"
	ModPlayLPA       = "Play LPA"
)

// MaxUseCaseLen is the capacity of a use-case name in bytes.
const MaxUseCaseLen = 50

var (
	ErrEmptyUseCase   = errors.New("ucm: empty use case")
	ErrInvalidUseCase = errors.New("ucm: invalid use case")
	ErrUnknownUseCase = errors.New("ucm: unknown use case")
)

// UseCase names the routing profile a driver handle is bound to.
// Values built with ParseUseCase are always one of the known profiles.
type UseCase string

var verbs = map[string]bool{
	VerbHiFi:         true,
	VerbHiFiLowPower: true,
}

var modifiers = map[string]bool{
	ModPlayMusic: true,
	ModPlayLPA:   true,
}

// ParseUseCase validates s as a use-case name.
func ParseUseCase(s string) (UseCase, error) {
	switch {
	case s == "":
		return "", ErrEmptyUseCase
	case len(s) > MaxUseCaseLen:
		return "", fmt.Errorf("%w: %d bytes exceeds capacity %d", ErrInvalidUseCase, len(s), MaxUseCaseLen)
	case strings.IndexByte(s, 0) >= 0:
		return "", fmt.Errorf("%w: contains NUL", ErrInvalidUseCase)
	case !verbs[s] && !modifiers[s]:
		return "", fmt.Errorf("%w: %q", ErrUnknownUseCase, s)
	}
	return UseCase(s), nil
}

// IsVerb reports whether u occupies the verb slot rather than a modifier slot.
func (u UseCase) IsVerb() bool {
	return verbs[string(u)]
}

// LowPower reports whether u routes through the low-power amplifier path,
// where volume is set on the amplifier instead of by mixing.
func (u UseCase) LowPower() bool {
	return u == VerbHiFiLowPower || u == ModPlayLPA
}

func (u UseCase) String() string {
	return string(u)
}
