package presale

import "fmt"

// Stage of the sale. Values match the u8 stored by the on-chain program.
type Stage uint8

const (
	NotStarted Stage = iota
	RoundOne
	RoundTwo
	RoundThree
	Ended
)

var stageNames = map[Stage]string{
	NotStarted: "NotStarted",
	RoundOne:   "RoundOne",
	RoundTwo:   "RoundTwo",
	RoundThree: "RoundThree",
	Ended:      "Ended",
}

// transitions is the only source of stage changes.
var transitions = map[Stage]Stage{
	NotStarted: RoundOne,
	RoundOne:   RoundTwo,
	RoundTwo:   RoundThree,
	RoundThree: Ended,
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

// Next returns the stage startNextRound moves to.
func (s Stage) Next() (Stage, error) {
	if s == Ended {
		return s, ErrPresaleEnded
	}
	next, ok := transitions[s]
	if !ok {
		return s, fmt.Errorf("%w: no transition from %s", ErrStageInvalid, s)
	}
	return next, nil
}

// Round returns the 1-based round number, or 0 outside the sale rounds.
func (s Stage) Round() int {
	switch s {
	case RoundOne:
		return 1
	case RoundTwo:
		return 2
	case RoundThree:
		return 3
	}
	return 0
}

// ParseStage maps the on-chain u8 to a Stage.
func ParseStage(v uint8) (Stage, error) {
	s := Stage(v)
	if !s.Valid() {
		return s, fmt.Errorf("%w: unknown stage %d", ErrStageInvalid, v)
	}
	return s, nil
}
