package either

import (
	"errors"
	"fmt"
)

// ErrWrongVariant is returned when reading the side an Either does not hold.
var ErrWrongVariant = errors.New("either: wrong variant access")

// ErrNilHandler is the panic value of Switch when a handler is missing.
var ErrNilHandler = errors.New("either: nil switch handler")

// Either holds exactly one of a left value or a right value.
//
// The zero value is a Left holding the zero L.
type Either[L, R any] struct {
	left    L
	right   R
	isRight bool
}

// MakeLeft creates a Left variant.
func MakeLeft[L, R any](value L) Either[L, R] {
	return Either[L, R]{left: value}
}

// MakeRight creates a Right variant.
func MakeRight[L, R any](value R) Either[L, R] {
	return Either[L, R]{right: value, isRight: true}
}

// IsLeft reports whether e holds a left value.
func (e Either[L, R]) IsLeft() bool {
	return !e.isRight
}

// IsRight reports whether e holds a right value.
func (e Either[L, R]) IsRight() bool {
	return e.isRight
}

// Left returns the left value, or ErrWrongVariant if e is a Right.
func (e Either[L, R]) Left() (L, error) {
	if e.isRight {
		var zero L
		return zero, fmt.Errorf("%w: Left called on %s", ErrWrongVariant, e)
	}
	return e.left, nil
}

// Right returns the right value, or ErrWrongVariant if e is a Left.
func (e Either[L, R]) Right() (R, error) {
	if !e.isRight {
		var zero R
		return zero, fmt.Errorf("%w: Right called on %s", ErrWrongVariant, e)
	}
	return e.right, nil
}

// MustLeft returns the left value and panics if e is a Right.
func (e Either[L, R]) MustLeft() L {
	v, err := e.Left()
	if err != nil {
		panic(err)
	}
	return v
}

// MustRight returns the right value and panics if e is a Left.
func (e Either[L, R]) MustRight() R {
	v, err := e.Right()
	if err != nil {
		panic(err)
	}
	return v
}

// Switch calls exactly one of onLeft or onRight. Both handlers are required;
// Switch panics with ErrNilHandler if either is nil, whichever side e holds.
func (e Either[L, R]) Switch(onLeft func(L), onRight func(R)) {
	if onLeft == nil || onRight == nil {
		panic(ErrNilHandler)
	}
	if e.isRight {
		onRight(e.right)
		return
	}
	onLeft(e.left)
}

// String formats e as Left(v) or Right(v).
func (e Either[L, R]) String() string {
	if e.isRight {
		return fmt.Sprintf("Right(%v)", e.right)
	}
	return fmt.Sprintf("Left(%v)", e.left)
}

// Match maps e to a single result type through the handler for its side.
// Like Switch, it panics with ErrNilHandler if either handler is nil.
func Match[L, R, T any](e Either[L, R], onLeft func(L) T, onRight func(R) T) T {
	if onLeft == nil || onRight == nil {
		panic(ErrNilHandler)
	}
	if e.isRight {
		return onRight(e.right)
	}
	return onLeft(e.left)
}
