package tasks

import (
	"math"
	"slices"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
)

// Match weights. A content id match outranks every combination of text matches.
const (
	scoreVideoID   = 100
	scoreTitle     = 40
	scoreChannel   = 20
	scoreLength    = 8
	scorePublished = 6
)

type candidate struct {
	entry    models.Entry
	score    int
	distance int
}

// textMatch compares normalised text. An empty target never matches.
func textMatch(target, fresh string) bool {
	t := shared.NormalizeText(target)
	return t != "" && t == shared.NormalizeText(fresh)
}

func scoreCandidate(target models.DeletionTarget, fresh models.Entry) candidate {
	c := candidate{entry: fresh, distance: math.MaxInt}

	if target.Entry.VideoID != "" && fresh.VideoID == target.Entry.VideoID {
		c.score += scoreVideoID
	}
	if textMatch(target.Entry.Title, fresh.Title) {
		c.score += scoreTitle
	}
	if textMatch(target.Entry.ChannelName, fresh.ChannelName) {
		c.score += scoreChannel
	}
	if textMatch(target.Entry.LengthText, fresh.LengthText) {
		c.score += scoreLength
	}
	if textMatch(target.Entry.PublishedTimeText, fresh.PublishedTimeText) {
		c.score += scorePublished
	}

	if target.OrderIndexAtScan > 0 && fresh.OrderIndex > 0 {
		d := fresh.OrderIndex - target.OrderIndexAtScan
		if d < 0 {
			d = -d
		}
		c.distance = d
	}
	return c
}

// FindReplacement re-identifies target among freshly scanned entries.
//
// Candidates are ranked by score, then by distance from the target's scan-time position. When the top two are
// tied on both, the match is ambiguous and no entry is returned.
func FindReplacement(fresh []models.Entry, target models.DeletionTarget) (*models.Entry, error) {
	var ranked []candidate
	for _, e := range fresh {
		if c := scoreCandidate(target, e); c.score > 0 {
			ranked = append(ranked, c)
		}
	}

	if len(ranked) == 0 {
		return nil, &ReconciliationError{Target: target}
	}

	slices.SortStableFunc(ranked, func(a, b candidate) int {
		if a.score != b.score {
			return b.score - a.score
		}
		switch {
		case a.distance < b.distance:
			return -1
		case a.distance > b.distance:
			return 1
		default:
			return 0
		}
	})

	if len(ranked) > 1 && ranked[0].score == ranked[1].score && ranked[0].distance == ranked[1].distance {
		return nil, &ReconciliationError{Target: target, Ambiguous: true, Candidates: len(ranked)}
	}

	best := ranked[0].entry
	return &best, nil
}
