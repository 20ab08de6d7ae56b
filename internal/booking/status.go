package booking

import (
	"fmt"
	"net/http"

	"github.com/nekogravitycat/venue-booking-backend/internal/pkg/apperror"
)

var ErrInvalidTransition = apperror.New(http.StatusConflict, apperror.KindInvalidTransition, "booking is no longer active")

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// transitions lists the allowed moves. Cancelled and completed are terminal.
var transitions = map[Status][]Status{
	StatusConfirmed: {StatusCancelled, StatusCompleted},
}

func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether moving from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition returns next, or an ErrInvalidTransition wrapping the attempted move.
func (s Status) Transition(next Status) (Status, error) {
	if !s.CanTransition(next) {
		return s, apperror.Wrap(fmt.Errorf("%s -> %s", s, next), ErrInvalidTransition.Code, ErrInvalidTransition.Kind, ErrInvalidTransition.Message)
	}
	return next, nil
}
