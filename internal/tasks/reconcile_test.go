package tasks

import (
	"errors"
	"testing"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
)

func entry(setID, videoID, title string, order int) models.Entry {
	return models.Entry{
		SetVideoID:        setID,
		VideoID:           videoID,
		Title:             title,
		ChannelName:       "Channel",
		LengthText:        "3:00",
		PublishedTimeText: "1 year ago",
		OrderIndex:        order,
	}
}

func TestFindReplacement(t *testing.T) {
	t.Run("unique video id wins", func(t *testing.T) {
		target := models.DeletionTarget{Entry: entry("stale", "v2", "Same", 2), OrderIndexAtScan: 2}
		fresh := []models.Entry{
			entry("n1", "v1", "Same", 1),
			entry("n2", "v2", "Different title", 5),
			entry("n3", "v3", "Same", 2),
		}

		got, err := FindReplacement(fresh, target)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.SetVideoID != "n2" {
			t.Errorf("expected n2, got %s", got.SetVideoID)
		}
	})

	t.Run("exact tie is ambiguous", func(t *testing.T) {
		target := models.DeletionTarget{Entry: entry("stale", "v1", "Dup", 2), OrderIndexAtScan: 2}
		fresh := []models.Entry{
			entry("a", "v1", "Dup", 1),
			entry("b", "v1", "Dup", 3),
		}

		got, err := FindReplacement(fresh, target)
		if got != nil {
			t.Errorf("expected no match, got %+v", got)
		}
		if !errors.Is(err, shared.ErrReconciliationAmbiguous) {
			t.Fatalf("expected ErrReconciliationAmbiguous, got %v", err)
		}
		var rec *ReconciliationError
		if !errors.As(err, &rec) || rec.Candidates != 2 {
			t.Errorf("unexpected error detail %+v", rec)
		}
	})

	t.Run("tie on score broken by distance", func(t *testing.T) {
		target := models.DeletionTarget{Entry: entry("stale", "v1", "Dup", 2), OrderIndexAtScan: 2}
		fresh := []models.Entry{
			entry("far", "v1", "Dup", 9),
			entry("near", "v1", "Dup", 3),
		}

		got, err := FindReplacement(fresh, target)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.SetVideoID != "near" {
			t.Errorf("expected near, got %s", got.SetVideoID)
		}
	})

	t.Run("unknown positions tie", func(t *testing.T) {
		target := models.DeletionTarget{Entry: entry("stale", "v1", "Dup", 0)}
		fresh := []models.Entry{
			entry("a", "v1", "Dup", 1),
			entry("b", "v1", "Dup", 2),
		}
		if _, err := FindReplacement(fresh, target); !errors.Is(err, shared.ErrReconciliationAmbiguous) {
			t.Errorf("expected ambiguity with unknown distances, got %v", err)
		}
	})

	t.Run("text match after whitespace normalisation", func(t *testing.T) {
		target := models.DeletionTarget{
			Entry:            models.Entry{SetVideoID: "stale", Title: "  A   title "},
			OrderIndexAtScan: 4,
		}
		fresh := []models.Entry{
			{SetVideoID: "x", Title: "A title", OrderIndex: 4},
			{SetVideoID: "y", Title: "Another", OrderIndex: 4},
		}

		got, err := FindReplacement(fresh, target)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.SetVideoID != "x" {
			t.Errorf("expected x, got %s", got.SetVideoID)
		}
	})

	t.Run("empty target fields never score", func(t *testing.T) {
		target := models.DeletionTarget{Entry: models.Entry{SetVideoID: "stale"}, OrderIndexAtScan: 1}
		fresh := []models.Entry{{SetVideoID: "x", OrderIndex: 1}}

		_, err := FindReplacement(fresh, target)
		if !errors.Is(err, shared.ErrReconciliationNotFound) {
			t.Errorf("expected ErrReconciliationNotFound, got %v", err)
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		target := models.DeletionTarget{Entry: entry("stale", "gone", "Gone", 1), OrderIndexAtScan: 1}
		target.Entry.ChannelName = "Elsewhere"
		target.Entry.LengthText = "9:99"
		target.Entry.PublishedTimeText = "never"

		_, err := FindReplacement([]models.Entry{entry("a", "v1", "Other", 1)}, target)
		if !errors.Is(err, shared.ErrReconciliationNotFound) {
			t.Errorf("expected ErrReconciliationNotFound, got %v", err)
		}
		if _, err := FindReplacement(nil, target); !errors.Is(err, shared.ErrReconciliationNotFound) {
			t.Errorf("expected ErrReconciliationNotFound for empty scan, got %v", err)
		}
	})

	t.Run("higher score beats closer position", func(t *testing.T) {
		target := models.DeletionTarget{Entry: entry("stale", "v1", "T", 5), OrderIndexAtScan: 5}
		fresh := []models.Entry{
			{SetVideoID: "close", Title: "T", OrderIndex: 5},
			{SetVideoID: "id", VideoID: "v1", OrderIndex: 50},
		}

		got, err := FindReplacement(fresh, target)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.SetVideoID != "id" {
			t.Errorf("expected id match, got %s", got.SetVideoID)
		}
	})
}
