package domain

import "fmt"

// CopyStatus is the circulation state of one physical copy
type CopyStatus string

const (
	CopyAvailable   CopyStatus = "available"
	CopyReserved    CopyStatus = "reserved"
	CopyBorrowed    CopyStatus = "borrowed"
	CopyLost        CopyStatus = "lost"
	CopyDamaged     CopyStatus = "damaged"
	CopyMaintenance CopyStatus = "maintenance"
)

// ParseCopyStatus validates a status string from a request
func ParseCopyStatus(s string) (CopyStatus, error) {
	status := CopyStatus(s)
	if _, ok := transitions[status]; !ok {
		return "", fmt.Errorf("%w: unknown copy status %q", ErrValidation, s)
	}
	return status, nil
}

// IsOutOfService returns true for statuses only a staff restoration can clear
func (s CopyStatus) IsOutOfService() bool {
	return s == CopyLost || s == CopyDamaged || s == CopyMaintenance
}

// transitions is the single source of truth for legal copy moves
var transitions = map[CopyStatus][]CopyStatus{
	CopyAvailable:   {CopyReserved, CopyBorrowed, CopyLost, CopyDamaged, CopyMaintenance},
	CopyReserved:    {CopyBorrowed, CopyAvailable},
	CopyBorrowed:    {CopyAvailable, CopyLost, CopyDamaged, CopyMaintenance},
	CopyLost:        {CopyAvailable},
	CopyDamaged:     {CopyAvailable},
	CopyMaintenance: {CopyAvailable},
}

// CanTransition reports whether from -> to is in the transition table
func CanTransition(from, to CopyStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns ErrInvalidTransition when from -> to is not legal
func CheckTransition(from, to CopyStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// AvailabilityDelta is the change to a title's available_copies counter
// caused by moving one copy from -> to.
func AvailabilityDelta(from, to CopyStatus) int {
	switch {
	case from == to:
		return 0
	case from == CopyAvailable:
		return -1
	case to == CopyAvailable:
		return 1
	default:
		return 0
	}
}

// StatusAfterReturn maps a return condition report onto the copy status
func StatusAfterReturn(c Condition) (CopyStatus, error) {
	switch c {
	case "", ConditionNew, ConditionGood, ConditionFair, ConditionPoor:
		return CopyAvailable, nil
	case ConditionDamaged:
		return CopyDamaged, nil
	case ConditionLost:
		return CopyLost, nil
	default:
		return "", fmt.Errorf("%w: unknown condition %q", ErrValidation, c)
	}
}

// Copy transaction types written to the history log
const (
	TxIntake     = "INTAKE"
	TxReserve    = "RESERVE"
	TxRelease    = "RELEASE"
	TxCheckout   = "CHECKOUT"
	TxReturn     = "RETURN"
	TxStatus     = "STATUS_CHANGE"
	TxRestore    = "RESTORE"
	TxRelocate   = "RELOCATE"
	TxDeactivate = "DEACTIVATE"
	TxReconcile  = "RECONCILE"
)
