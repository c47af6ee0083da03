// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeNowStandsStill(t *testing.T) {
	c := Fake(epoch)
	if !c.Now().Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", c.Now(), epoch)
	}
	c.Advance(3 * time.Second)
	if want := epoch.Add(3 * time.Second); !c.Now().Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", c.Now(), want)
	}
}

func TestFakeAfterFiresAtDeadline(t *testing.T) {
	c := Fake(epoch)
	channel := c.After(time.Second)

	c.Advance(999 * time.Millisecond)
	select {
	case <-channel:
		t.Fatal("timer fired before its deadline")
	default:
	}

	c.Advance(time.Millisecond)
	select {
	case fired := <-channel:
		if want := epoch.Add(time.Second); !fired.Equal(want) {
			t.Errorf("fired at %v, want %v", fired, want)
		}
	default:
		t.Fatal("timer did not fire at its deadline")
	}
	if c.PendingCount() != 0 {
		t.Errorf("PendingCount() = %d, want 0", c.PendingCount())
	}
}

func TestFakeAfterNonPositive(t *testing.T) {
	c := Fake(epoch)
	select {
	case <-c.After(0):
	default:
		t.Fatal("After(0) should be ready immediately")
	}
	if c.PendingCount() != 0 {
		t.Errorf("After(0) registered a timer")
	}
}

func TestFakeSleepUnblocksOnAdvance(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})
	go func() {
		c.Sleep(5 * time.Second)
		close(done)
	}()

	c.WaitForTimers(1)
	c.Advance(5 * time.Second)

	select {
	case <-done:
	case <-time.After(5 * time.Second): //nolint:realclock test hang prevention
		t.Fatal("Sleep did not return after Advance")
	}
}
