package device

import (
	"os"
	"path/filepath"
)

// recover enumerates files matching "<base>.*" under the base filename's
// directory, parses each numeric suffix as a segment_id, and computes
// start_segment/end_segment as the bounds of the longest contiguous run of
// ids ending at the maximum observed id (spec §4.3 "Startup recovery").
//
// This resolves spec Design Note §9 Open Question (a). The source sets
// start_segment when it observes a gap but only advances end_segment when
// the current id equals prev+1, so a single trailing file after a gap can
// leave end_segment stale. This implementation instead defines
// end_segment directly as the maximum observed id (which is always the
// end of "the longest contiguous run ending at the maximum observed id" by
// construction) and walks backward from it to find start_segment — a
// single deterministic pass with no window where the two fields disagree.
// Pinned by scenario S1: files log.0, log.1, log.2, log.5 recover to
// start_segment=5, end_segment=5.
func (d *Device) recover() error {
	dir := filepath.Dir(d.baseFilename)
	base := filepath.Base(d.baseFilename)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		d.startSegment = 0
		d.endSegment = -1
		return nil
	}
	if err != nil {
		return err
	}

	present := make(map[int64]bool)
	var maxID int64 = -1
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := parseSegmentID(e.Name(), base)
		if !ok {
			continue
		}
		present[id] = true
		if id > maxID {
			maxID = id
		}
	}

	if maxID < 0 {
		d.startSegment = 0
		d.endSegment = -1
		return nil
	}

	start := maxID
	for present[start-1] {
		start--
	}

	d.startSegment = start
	d.endSegment = maxID
	return nil
}
