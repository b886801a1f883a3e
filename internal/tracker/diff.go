package tracker

import "github.com/rickgao/okx-copytrack/internal/model"

// Diff classifies the transition from prev to curr.
//
// When first is true it returns exactly one InitialSnapshot event carrying
// curr (possibly empty, meaning "no positions found") and ignores any apparent
// differences; there is no meaningful previous snapshot to diff against.
//
// Otherwise it returns one Opened event per instrument in curr but not prev
// (carrying curr's record) and one Closed event per instrument in prev but not
// curr (carrying prev's record). The result is deterministic as an unordered
// set for fixed inputs.
func Diff(prev, curr model.Snapshot, first bool) []model.PositionEvent {
	if first {
		return []model.PositionEvent{{
			Type:     model.EventInitialSnapshot,
			Snapshot: curr.Clone(),
		}}
	}

	var events []model.PositionEvent

	for inst, rec := range curr {
		if _, ok := prev[inst]; !ok {
			events = append(events, model.PositionEvent{
				Type:       model.EventOpened,
				Instrument: inst,
				Record:     rec,
			})
		}
	}

	for inst, rec := range prev {
		if _, ok := curr[inst]; !ok {
			events = append(events, model.PositionEvent{
				Type:       model.EventClosed,
				Instrument: inst,
				Record:     rec,
			})
		}
	}

	return events
}
