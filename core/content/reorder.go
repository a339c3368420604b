package content

import "github.com/pkg/errors"

// OrderPair carries one record's new order value in a bulk reorder.
type OrderPair struct {
	ID    string `json:"id" validate:"required"`
	Order int    `json:"order"`
}

var errIndexOutOfRange = errors.New("reorder index out of range")

const orderStep = 10

// ReorderSequence translates a drag gesture over an ordered sibling scope
// into the order values to persist: the id at src is moved to dst and every
// id in the resulting sequence is renumbered index*10. The spacing leaves
// gaps for manual insertions without a full renumbering pass.
func ReorderSequence(ids []string, src, dst int) ([]OrderPair, error) {
	n := len(ids)
	if src < 0 || src >= n || dst < 0 || dst >= n {
		return nil, errors.Wrapf(errIndexOutOfRange, "src=%d dst=%d len=%d", src, dst, n)
	}

	moved := make([]string, 0, n)
	moved = append(moved, ids[:src]...)
	moved = append(moved, ids[src+1:]...)
	moved = append(moved[:dst], append([]string{ids[src]}, moved[dst:]...)...)

	pairs := make([]OrderPair, n)
	for i, id := range moved {
		pairs[i] = OrderPair{ID: id, Order: i * orderStep}
	}
	return pairs, nil
}

// MoveRecord returns a copy of records with the element at src reinserted at
// dst and orders renumbered to match ReorderSequence; used for the optimistic
// local apply before the server confirms.
func MoveRecord(records []Record, src, dst int) ([]Record, error) {
	n := len(records)
	if src < 0 || src >= n || dst < 0 || dst >= n {
		return nil, errors.Wrapf(errIndexOutOfRange, "src=%d dst=%d len=%d", src, dst, n)
	}

	moved := make([]Record, 0, n)
	moved = append(moved, records[:src]...)
	moved = append(moved, records[src+1:]...)
	moved = append(moved[:dst], append([]Record{records[src]}, moved[dst:]...)...)

	for i := range moved {
		moved[i].Order = i * orderStep
	}
	return moved, nil
}

// ChangedPairs drops the pairs whose order already matches current records,
// keeping the persistence call minimal. Persisting all pairs would also be
// correct since the bulk reorder is idempotent per id.
func ChangedPairs(pairs []OrderPair, current []Record) []OrderPair {
	orders := make(map[string]int, len(current))
	for _, r := range current {
		orders[r.ID] = r.Order
	}
	changed := make([]OrderPair, 0, len(pairs))
	for _, p := range pairs {
		if ord, ok := orders[p.ID]; !ok || ord != p.Order {
			changed = append(changed, p)
		}
	}
	return changed
}
