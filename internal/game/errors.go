package game

import (
	"errors"
	"fmt"
)

// Error classes. Rule violations mean the engine itself is broken and must
// abort whatever is running; policy failures are fatal to one game only.
var (
	ErrRuleViolation = errors.New("rule violation")
	ErrPolicy        = errors.New("policy failure")
	ErrConfig        = errors.New("invalid game configuration")
)

var (
	ErrInvalidSeat   = fmt.Errorf("%w: seat out of range", ErrRuleViolation)
	ErrOutOfTurn     = fmt.Errorf("%w: seat played out of turn", ErrRuleViolation)
	ErrDuplicatePlay = fmt.Errorf("%w: seat already played this trick", ErrRuleViolation)
	ErrTrickComplete = fmt.Errorf("%w: trick already complete", ErrRuleViolation)
	ErrTrickOpen     = fmt.Errorf("%w: trick not complete", ErrRuleViolation)
	ErrEmptyHand     = fmt.Errorf("%w: no legal moves", ErrRuleViolation)
	ErrIllegalCard   = fmt.Errorf("%w: card is not a legal move", ErrRuleViolation)
	ErrInvariant     = fmt.Errorf("%w: invariant broken", ErrRuleViolation)

	ErrGameFinished = errors.New("game already finished")
	ErrNotFinished  = errors.New("game not finished")
)
