package tile

import (
	"time"
)

// ViewportID identifies a viewport for usage tracking.
type ViewportID uint64

// UsageMarker records which viewports currently use a tile. A marker with no entries is
// expired: expiry means "not in use", not "unused for some time". How long a tile has been
// unused is measured separately from LastTouched.
type UsageMarker struct {
	tracker     *UsageTracker
	viewports   map[ViewportID]time.Time
	lastTouched time.Time
}

// NewUsageMarker creates an expired marker indexed by tracker. A nil tracker is allowed; such a
// marker can only be cleared one viewport at a time.
//
// Parameters:
//   - tracker: the tracker that indexes the marker per viewport
//
// Returns:
//   - *UsageMarker: the new marker
func NewUsageMarker(tracker *UsageTracker) *UsageMarker {
	return &UsageMarker{
		tracker:   tracker,
		viewports: make(map[ViewportID]time.Time),
	}
}

// Mark records that vp uses the tile as of now.
func (m *UsageMarker) Mark(vp ViewportID, now time.Time) {
	m.viewports[vp] = now
	if now.After(m.lastTouched) {
		m.lastTouched = now
	}
	if m.tracker != nil {
		m.tracker.index(vp, m)
	}
}

// IsExpired reports whether no viewport uses the tile. asOf does not affect the result: an
// in-use marker never expires and an unused marker is always expired.
func (m *UsageMarker) IsExpired(asOf time.Time) bool {
	return len(m.viewports) == 0
}

// InUse reports whether any viewport uses the tile.
func (m *UsageMarker) InUse() bool { return len(m.viewports) > 0 }

// InUseBy reports whether vp uses the tile.
func (m *UsageMarker) InUseBy(vp ViewportID) bool {
	_, ok := m.viewports[vp]
	return ok
}

// LastTouched returns the most recent time any viewport marked the tile, or the zero time if
// none ever has. Clearing usage does not reset it.
func (m *UsageMarker) LastTouched() time.Time { return m.lastTouched }

// ClearUsageForViewport removes vp's entry. The marker becomes expired when its last entry is
// removed.
func (m *UsageMarker) ClearUsageForViewport(vp ViewportID) {
	if _, ok := m.viewports[vp]; !ok {
		return
	}
	delete(m.viewports, vp)
	if m.tracker != nil {
		m.tracker.unindex(vp, m)
	}
}

// Discard removes every entry and detaches the marker from its tracker. Used when the tile it
// belongs to is dropped.
func (m *UsageMarker) Discard() {
	for vp := range m.viewports {
		if m.tracker != nil {
			m.tracker.unindex(vp, m)
		}
	}
	clear(m.viewports)
	m.tracker = nil
}

// UsageTracker indexes every marker by the viewports using it, so a viewport's usage can be
// cleared without visiting tiles it does not use.
type UsageTracker struct {
	byViewport map[ViewportID]map[*UsageMarker]struct{}
}

// NewUsageTracker creates an empty tracker.
func NewUsageTracker() *UsageTracker {
	return &UsageTracker{byViewport: make(map[ViewportID]map[*UsageMarker]struct{})}
}

func (t *UsageTracker) index(vp ViewportID, m *UsageMarker) {
	set, ok := t.byViewport[vp]
	if !ok {
		set = make(map[*UsageMarker]struct{})
		t.byViewport[vp] = set
	}
	set[m] = struct{}{}
}

func (t *UsageTracker) unindex(vp ViewportID, m *UsageMarker) {
	set, ok := t.byViewport[vp]
	if !ok {
		return
	}
	delete(set, m)
	if len(set) == 0 {
		delete(t.byViewport, vp)
	}
}

// ClearViewport removes vp's entry from every marker that has one.
func (t *UsageTracker) ClearViewport(vp ViewportID) {
	set := t.byViewport[vp]
	delete(t.byViewport, vp)
	for m := range set {
		delete(m.viewports, vp)
	}
}

// MarkerCount returns how many markers vp currently uses.
func (t *UsageTracker) MarkerCount(vp ViewportID) int { return len(t.byViewport[vp]) }

// Viewports returns the number of viewports holding at least one marker.
func (t *UsageTracker) Viewports() int { return len(t.byViewport) }
