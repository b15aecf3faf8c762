package keeper

import (
	"errors"
	"fmt"

	"github.com/xb1002/onchainLpV2/internal/liquidity"
	"github.com/xb1002/onchainLpV2/internal/pricemath"
)

// Kind classifies failures by how the controller recovers from them.
type Kind int

const (
	// KindTransient covers RPC and venue failures; the next cycle re-reads state and tries again.
	KindTransient Kind = iota
	// KindInput is a request rejected before any external call.
	KindInput
	// KindStateInconsistency means chain state disagreed with what the controller expected.
	KindStateInconsistency
	// KindFatalConfig stops the process.
	KindFatalConfig
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindInput:
		return "input"
	case KindStateInconsistency:
		return "state_inconsistency"
	case KindFatalConfig:
		return "fatal_config"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified failure of one controller step.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err. Math range errors count as input
// errors; anything unclassified is treated as transient.
func KindOf(err error) Kind {
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Kind
	}
	if errors.Is(err, liquidity.ErrInvalidRange) ||
		errors.Is(err, pricemath.ErrTickOutOfRange) ||
		errors.Is(err, pricemath.ErrInvalidSpacing) {
		return KindInput
	}
	return KindTransient
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var ke *Error
	if errors.As(err, &ke) {
		return err
	}
	return &Error{Kind: KindOf(err), Op: op, Err: err}
}

func inputError(op string, err error) error {
	return &Error{Kind: KindInput, Op: op, Err: err}
}

func inconsistency(op string, err error) error {
	return &Error{Kind: KindStateInconsistency, Op: op, Err: err}
}

func configError(op string, err error) error {
	return &Error{Kind: KindFatalConfig, Op: op, Err: err}
}
