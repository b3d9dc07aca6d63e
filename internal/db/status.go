package db

import "fmt"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending    BookingStatus = "PENDING"
	StatusConfirmed  BookingStatus = "CONFIRMED"
	StatusInProgress BookingStatus = "IN_PROGRESS"
	StatusCompleted  BookingStatus = "COMPLETED"
	StatusCancelled  BookingStatus = "CANCELLED"
)

// Role of an authenticated requester.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleValet    Role = "VALET"
	RoleAdmin    Role = "ADMIN"
)

// transitions maps a current status to its legal targets and the roles allowed
// to trigger each. Cancellation by a CUSTOMER is additionally gated on
// ownership of the booking, which the service layer checks.
var transitions = map[BookingStatus]map[BookingStatus][]Role{
	StatusPending: {
		StatusConfirmed: {RoleAdmin},
		StatusCancelled: {RoleAdmin, RoleCustomer},
	},
	StatusConfirmed: {
		StatusInProgress: {RoleAdmin, RoleValet},
		StatusCancelled:  {RoleAdmin, RoleCustomer},
	},
	StatusInProgress: {
		StatusCompleted: {RoleAdmin},
		StatusCancelled: {RoleAdmin, RoleCustomer},
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

// ActiveStatuses are the statuses that count toward overlap conflicts.
func ActiveStatuses() []string {
	return []string{string(StatusPending), string(StatusConfirmed), string(StatusInProgress)}
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if _, ok := transitions[status]; !ok {
		return "", fmt.Errorf("unknown booking status %q", s)
	}
	return status, nil
}

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleValet, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// IsTerminal reports whether no further transition is legal from s.
func (s BookingStatus) IsTerminal() bool {
	targets, ok := transitions[s]
	return ok && len(targets) == 0
}

func (s BookingStatus) IsActive() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress:
		return true
	}
	return false
}

// CanTransitionTo reports whether the target status is reachable from s,
// ignoring roles.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	_, ok := transitions[s][target]
	return ok
}

// RoleMayTransition reports whether the given role is allowed to drive the
// transition s -> target. It is false whenever the transition itself is
// illegal.
func (s BookingStatus) RoleMayTransition(target BookingStatus, role Role) bool {
	for _, r := range transitions[s][target] {
		if r == role {
			return true
		}
	}
	return false
}

func (s BookingStatus) String() string { return string(s) }
