package core

import "fmt"

// ReapRule is evaluated under the room lock after a departure.
type ReapRule func(LeaveOutcome) bool

// ReapWhenEmptyAfterCoordinator closes the room only when the coordinator
// leaves a room whose roster is already empty. A participant leaving never
// closes it.
func ReapWhenEmptyAfterCoordinator(o LeaveOutcome) bool {
	return o.Remaining == 0 && o.Departed == o.Coordinator
}

// ReapOnCoordinatorLeave closes the room as soon as the coordinator leaves.
func ReapOnCoordinatorLeave(o LeaveOutcome) bool {
	return o.Departed == o.Coordinator
}

const (
	ReapRuleEmptyAfterCoordinator = "empty_after_coordinator"
	ReapRuleCoordinatorLeave      = "coordinator_leave"
)

func ParseReapRule(name string) (ReapRule, error) {
	switch name {
	case "", ReapRuleEmptyAfterCoordinator:
		return ReapWhenEmptyAfterCoordinator, nil
	case ReapRuleCoordinatorLeave:
		return ReapOnCoordinatorLeave, nil
	}
	return nil, fmt.Errorf("unknown reap rule %q", name)
}
