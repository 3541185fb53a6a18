package either

import (
	"errors"
	"testing"

	"github.com/jonwraymond/rxops/disposable"
	"github.com/jonwraymond/rxops/observable"
)

func TestEither_Exclusivity(t *testing.T) {
	tests := []struct {
		name    string
		value   Either[int, string]
		isLeft  bool
		display string
	}{
		{name: "left", value: MakeLeft[int, string](7), isLeft: true, display: "Left(7)"},
		{name: "right", value: MakeRight[int]("x"), isLeft: false, display: "Right(x)"},
		{name: "zero", value: Either[int, string]{}, isLeft: true, display: "Left(0)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value.IsLeft() == tt.value.IsRight() {
				t.Fatalf("IsLeft() = IsRight() = %v", tt.value.IsLeft())
			}
			if tt.value.IsLeft() != tt.isLeft {
				t.Errorf("IsLeft() = %v, want %v", tt.value.IsLeft(), tt.isLeft)
			}

			_, lerr := tt.value.Left()
			_, rerr := tt.value.Right()
			if tt.isLeft {
				if lerr != nil {
					t.Errorf("Left() error = %v", lerr)
				}
				if !errors.Is(rerr, ErrWrongVariant) {
					t.Errorf("Right() error = %v, want ErrWrongVariant", rerr)
				}
			} else {
				if rerr != nil {
					t.Errorf("Right() error = %v", rerr)
				}
				if !errors.Is(lerr, ErrWrongVariant) {
					t.Errorf("Left() error = %v, want ErrWrongVariant", lerr)
				}
			}

			if got := tt.value.String(); got != tt.display {
				t.Errorf("String() = %q, want %q", got, tt.display)
			}
		})
	}
}

func TestEither_MustPanicsOnWrongSide(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrWrongVariant) {
			t.Errorf("recover() = %v, want ErrWrongVariant", r)
		}
	}()

	e := MakeLeft[int, string](1)
	if e.MustLeft() != 1 {
		t.Errorf("MustLeft() = %d, want 1", e.MustLeft())
	}
	e.MustRight()
}

func TestEither_Switch(t *testing.T) {
	var left, right int
	onLeft := func(int) { left++ }
	onRight := func(error) { right++ }

	MakeLeft[int, error](1).Switch(onLeft, onRight)
	MakeRight[int](errors.New("x")).Switch(onLeft, onRight)

	if left != 1 || right != 1 {
		t.Errorf("left = %d, right = %d, want 1, 1", left, right)
	}
}

func TestEither_SwitchNilHandlerPanics(t *testing.T) {
	tests := []struct {
		name    string
		value   Either[int, error]
		onLeft  func(int)
		onRight func(error)
	}{
		{"nil right on left value", MakeLeft[int, error](1), func(int) {}, nil},
		{"nil right on right value", MakeRight[int](errors.New("x")), func(int) {}, nil},
		{"nil left on left value", MakeLeft[int, error](1), nil, func(error) {}},
		{"nil left on right value", MakeRight[int](errors.New("x")), nil, func(error) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r != ErrNilHandler {
					t.Errorf("recover() = %v, want ErrNilHandler", r)
				}
			}()
			tt.value.Switch(tt.onLeft, tt.onRight)
		})
	}
}

func TestMatch_NilHandlerPanics(t *testing.T) {
	defer func() {
		if r := recover(); r != ErrNilHandler {
			t.Errorf("recover() = %v, want ErrNilHandler", r)
		}
	}()
	Match(MakeLeft[int, error](1), func(int) string { return "value" }, nil)
}

func TestMatch(t *testing.T) {
	describe := func(e Either[int, error]) string {
		return Match(e,
			func(v int) string { return "value" },
			func(err error) string { return "error: " + err.Error() },
		)
	}

	if got := describe(MakeLeft[int, error](3)); got != "value" {
		t.Errorf("Match(left) = %q", got)
	}
	if got := describe(MakeRight[int](errors.New("bad"))); got != "error: bad" {
		t.Errorf("Match(right) = %q", got)
	}
}

type pairedRecorder struct {
	lefts     []int
	rights    []string
	err       error
	completed int
}

func (p *pairedRecorder) OnNextLeft(v int)     { p.lefts = append(p.lefts, v) }
func (p *pairedRecorder) OnNextRight(v string) { p.rights = append(p.rights, v) }
func (p *pairedRecorder) OnError(err error)    { p.err = err }
func (p *pairedRecorder) OnCompleted()         { p.completed++ }

func TestPaired_RoutesEachNotificationOnce(t *testing.T) {
	src := Create(func(o Observer[int, string]) disposable.Disposable {
		o.OnNextLeft(1)
		o.OnNextRight("a")
		o.OnNextLeft(2)
		o.OnCompleted()
		o.OnNextLeft(3)
		return disposable.Empty
	})

	rec := &pairedRecorder{}
	Subscribe(src, rec)

	if len(rec.lefts) != 2 || rec.lefts[0] != 1 || rec.lefts[1] != 2 {
		t.Errorf("lefts = %v, want [1 2]", rec.lefts)
	}
	if len(rec.rights) != 1 || rec.rights[0] != "a" {
		t.Errorf("rights = %v, want [a]", rec.rights)
	}
	if rec.completed != 1 {
		t.Errorf("completed = %d, want 1", rec.completed)
	}
}

func TestUnpair_ForwardsEitherValues(t *testing.T) {
	var got []Either[int, string]
	sink := observable.Callbacks[Either[int, string]]{
		Next: func(e Either[int, string]) { got = append(got, e) },
	}

	p := Unpair(sink)
	p.OnNextLeft(5)
	p.OnNextRight("r")

	if len(got) != 2 || !got[0].IsLeft() || !got[1].IsRight() {
		t.Fatalf("got = %v, want [Left(5) Right(r)]", got)
	}
	if got[0].MustLeft() != 5 || got[1].MustRight() != "r" {
		t.Errorf("got = %v", got)
	}
}

func TestLeftsRights(t *testing.T) {
	testErr := errors.New("done")
	src := Create(func(o Observer[int, string]) disposable.Disposable {
		o.OnNextLeft(1)
		o.OnNextRight("a")
		o.OnNextRight("b")
		o.OnError(testErr)
		return disposable.Empty
	})

	var lefts []int
	var leftErr error
	Lefts(src).Subscribe(observable.Callbacks[int]{
		Next:  func(v int) { lefts = append(lefts, v) },
		Error: func(err error) { leftErr = err },
	})

	var rights []string
	Rights(src).Subscribe(observable.Callbacks[string]{
		Next: func(v string) { rights = append(rights, v) },
	})

	if len(lefts) != 1 || leftErr != testErr {
		t.Errorf("Lefts: values = %v, err = %v", lefts, leftErr)
	}
	if len(rights) != 2 {
		t.Errorf("Rights: values = %v, want [a b]", rights)
	}
}
