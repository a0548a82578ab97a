package model

import (
	"testing"
	"time"
)

func TestDistanceKm(t *testing.T) {
	paris := Location{Lat: 48.8566, Lng: 2.3522}
	lyon := Location{Lat: 45.7640, Lng: 4.8357}

	d := paris.DistanceKm(lyon)
	if d < 380 || d > 405 {
		t.Fatalf("Paris-Lyon great-circle distance = %.1fkm, want ~392km", d)
	}
	if paris.DistanceKm(paris) != 0 {
		t.Fatal("distance to self must be zero")
	}
}

func TestDayKey(t *testing.T) {
	date := time.Date(2026, 3, 4, 13, 45, 0, 0, time.UTC)
	key := NewDayKey("e1", date)
	if key.Date != "2026-03-04" {
		t.Fatalf("key date = %q", key.Date)
	}
	if key.String() != "e1@2026-03-04" {
		t.Fatalf("key string = %q", key.String())
	}

	// Same calendar day, different clock time: identical key.
	if NewDayKey("e1", date.Add(5*time.Hour)) != key {
		t.Fatal("day key must ignore the time of day")
	}
}
