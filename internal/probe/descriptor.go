package probe

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrEmptyChain = errors.New("probe chain needs at least one descriptor")

type Kind int

const (
	KindTestID Kind = iota
	KindCSS
	KindRole
	KindText
)

// Descriptor is one candidate strategy for locating a logical element.
type Descriptor struct {
	Kind    Kind
	Value   string
	Timeout time.Duration
}

// Selector renders the descriptor as a Playwright selector.
func (d Descriptor) Selector() string {
	switch d.Kind {
	case KindTestID:
		return fmt.Sprintf("[data-testid='%s']", d.Value)
	case KindRole:
		return fmt.Sprintf("[role='%s']", d.Value)
	case KindText:
		escaped := strings.ReplaceAll(d.Value, `"`, `\"`)
		return fmt.Sprintf(`:has-text("%s")`, escaped)
	default:
		return d.Value
	}
}

func ByTestID(value string, timeout time.Duration) Descriptor {
	return Descriptor{Kind: KindTestID, Value: value, Timeout: timeout}
}

func ByCSS(value string, timeout time.Duration) Descriptor {
	return Descriptor{Kind: KindCSS, Value: value, Timeout: timeout}
}

func ByRole(value string, timeout time.Duration) Descriptor {
	return Descriptor{Kind: KindRole, Value: value, Timeout: timeout}
}

func ByText(value string, timeout time.Duration) Descriptor {
	return Descriptor{Kind: KindText, Value: value, Timeout: timeout}
}

// Chain is an ordered, immutable set of alternatives for one logical
// target. Position encodes priority: the first visible candidate wins.
type Chain struct {
	target     string
	candidates []Descriptor
}

func NewChain(target string, candidates ...Descriptor) (Chain, error) {
	if len(candidates) == 0 {
		return Chain{}, fmt.Errorf("%q: %w", target, ErrEmptyChain)
	}
	copied := make([]Descriptor, len(candidates))
	copy(copied, candidates)
	return Chain{target: target, candidates: copied}, nil
}

// MustChain is for the static chains declared at package level.
func MustChain(target string, candidates ...Descriptor) Chain {
	c, err := NewChain(target, candidates...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Chain) Target() string { return c.target }

func (c Chain) Candidates() []Descriptor {
	copied := make([]Descriptor, len(c.candidates))
	copy(copied, c.candidates)
	return copied
}

func (c Chain) Len() int { return len(c.candidates) }
