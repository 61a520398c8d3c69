package plan

import "fmt"

// MapToRacks places units sequentially starting at start, wrapping to the next
// rack after rackSize positions. It returns the slots and the next free cursor.
func MapToRacks(units []VialUnit, rackSize int, start Cursor) ([]RackSlot, Cursor, error) {
	if rackSize <= 0 {
		return nil, Cursor{}, InvalidRackSizeError{RackSize: rackSize}
	}
	if start.Rack < 1 || start.Position < 1 || start.Position > rackSize {
		return nil, Cursor{}, fmt.Errorf("start cursor rack %d position %d is outside racks of %d positions",
			start.Rack, start.Position, rackSize)
	}
	slots := make([]RackSlot, 0, len(units))
	cur := start
	for _, u := range units {
		slots = append(slots, RackSlot{Cursor: cur, Unit: u})
		cur = cur.Next(rackSize)
	}
	return slots, cur, nil
}
