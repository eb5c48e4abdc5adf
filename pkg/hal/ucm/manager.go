// ABOUTME: Use-case manager tracking the active verb, modifiers and devices
// ABOUTME: Shared by every stream on a card; callers must treat queries as best-effort
package ucm

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Resonate-Protocol/resonate-hal/internal/logging"
)

var log = logging.WithTag("ucm")

var (
	ErrUnknownIdentifier = errors.New("ucm: unknown identifier")
	ErrNoVerb            = errors.New("ucm: no active verb")
)

// Manager is the use-case manager consumed by streams and drivers.
type Manager interface {
	// Get returns the value for identifier. Get(IdentVerb) returns "" when
	// no verb is active.
	Get(identifier string) (string, error)

	// Set applies value to identifier.
	Set(identifier, value string) error
}

// Mgr is an in-memory Manager for one sound card.
type Mgr struct {
	mu        sync.Mutex
	card      string
	verb      string
	modifiers map[string]bool
	devices   map[string]bool
}

// New creates a manager for the named card with no active verb.
func New(card string) *Mgr {
	return &Mgr{
		card:      card,
		modifiers: make(map[string]bool),
		devices:   make(map[string]bool),
	}
}

// Card returns the card name the manager was created for.
func (m *Mgr) Card() string {
	return m.card
}

// Get implements Manager.
func (m *Mgr) Get(identifier string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch identifier {
	case IdentVerb:
		return m.verb, nil
	case IdentEnableMod:
		return joinKeys(m.modifiers), nil
	case IdentEnableDevice:
		return joinKeys(m.devices), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownIdentifier, identifier)
	}
}

// Set implements Manager. Setting a verb drops all enabled modifiers;
// setting VerbInactive clears the verb.
func (m *Mgr) Set(identifier, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch identifier {
	case IdentVerb:
		if value == VerbInactive {
			m.verb = ""
			m.modifiers = make(map[string]bool)
			log.Verbose("verb cleared")
			return nil
		}
		if !verbs[value] {
			return fmt.Errorf("%w: verb %q", ErrUnknownUseCase, value)
		}
		if m.verb != value {
			m.modifiers = make(map[string]bool)
		}
		m.verb = value
		log.Verbose("verb set to %q", value)
	case IdentEnableMod:
		if !modifiers[value] {
			return fmt.Errorf("%w: modifier %q", ErrUnknownUseCase, value)
		}
		if m.verb == "" {
			return fmt.Errorf("enable modifier %q: %w", value, ErrNoVerb)
		}
		m.modifiers[value] = true
		log.Verbose("modifier %q enabled", value)
	case IdentDisableMod:
		delete(m.modifiers, value)
	case IdentEnableDevice:
		m.devices[value] = true
	case IdentDisableDevice:
		delete(m.devices, value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownIdentifier, identifier)
	}
	return nil
}

// Modifiers returns the enabled modifiers in sorted order.
func (m *Mgr) Modifiers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedKeys(m.modifiers)
}

// Devices returns the enabled devices in sorted order.
func (m *Mgr) Devices() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedKeys(m.devices)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinKeys(set map[string]bool) string {
	s := ""
	for i, k := range sortedKeys(set) {
		if i > 0 {
			s += ","
		}
		s += k
	}
	return s
}
