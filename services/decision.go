package services

import "stock-repair-service/models"

// Decide reports whether a snapshot warrants a correction and the on-hand
// value to set. Pure function; callers always pass a freshly fetched snapshot
// so corrections overwrite with the authoritative absolute value.
//
// Rules, in order:
//  1. Negative on-hand is always corrected.
//  2. Negative available is corrected only when nothing is incoming and the
//     committed stock would not be zeroed out from under a pending order
//     (unless allowRaiseToCommitted permits raising to cover it).
//  3. Negative available with incoming replenishment is a transient,
//     self-correcting state and is left alone.
//
// The target is 0, or the committed quantity when allowRaiseToCommitted is
// set and committed demand exists.
func Decide(s models.InventorySnapshot, allowRaiseToCommitted bool) (int, bool) {
	target := 0
	if allowRaiseToCommitted && s.Committed > 0 {
		target = s.Committed
	}

	if s.OnHand < 0 {
		return target, true
	}
	if s.Available < 0 && s.Incoming == 0 && (s.Committed == 0 || allowRaiseToCommitted) {
		return target, true
	}
	return 0, false
}

// DecideCandidate wraps Decide, returning a ready-to-apply candidate.
func DecideCandidate(s models.InventorySnapshot, allowRaiseToCommitted bool) (models.CorrectionCandidate, bool) {
	target, ok := Decide(s, allowRaiseToCommitted)
	if !ok {
		return models.CorrectionCandidate{}, false
	}
	return models.CorrectionCandidate{
		InventoryItemID: s.InventoryItemID,
		LocationID:      s.LocationID,
		TargetOnHand:    target,
		SnapshotBefore:  s,
	}, true
}
