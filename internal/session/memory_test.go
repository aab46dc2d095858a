package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoryRegistryRoundTrip(t *testing.T) {
	reg := NewMemoryRegistry(0)
	ctx := context.Background()

	id, err := reg.Create(ctx, "user-1")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty session id")
	}

	for i := 0; i < 2; i++ {
		userID, ok, err := reg.Lookup(ctx, id)
		if err != nil || !ok || userID != "user-1" {
			t.Fatalf("Lookup #%d = (%q, %v, %v), want (user-1, true, nil)", i, userID, ok, err)
		}
	}

	deleted, err := reg.Delete(ctx, id)
	if err != nil || !deleted {
		t.Fatalf("Delete = (%v, %v), want (true, nil)", deleted, err)
	}
	if _, ok, _ := reg.Lookup(ctx, id); ok {
		t.Fatal("expected session to be gone after delete")
	}

	deleted, err = reg.Delete(ctx, id)
	if err != nil || deleted {
		t.Fatalf("second Delete = (%v, %v), want (false, nil)", deleted, err)
	}
}

func TestMemoryRegistryEmptyInputs(t *testing.T) {
	reg := NewMemoryRegistry(0)
	ctx := context.Background()

	if _, err := reg.Create(ctx, ""); !errors.Is(err, ErrEmptyUserID) {
		t.Fatalf("Create(\"\") err = %v, want ErrEmptyUserID", err)
	}
	if _, ok, err := reg.Lookup(ctx, ""); ok || err != nil {
		t.Fatalf("Lookup(\"\") = (%v, %v)", ok, err)
	}
	if deleted, err := reg.Delete(ctx, ""); deleted || err != nil {
		t.Fatalf("Delete(\"\") = (%v, %v)", deleted, err)
	}
	if reg.Len() != 0 {
		t.Fatalf("Len = %d, want 0", reg.Len())
	}
}

func TestMemoryRegistryConcurrentCreateIsUnique(t *testing.T) {
	reg := NewMemoryRegistry(0)
	ctx := context.Background()
	const n = 200

	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := reg.Create(ctx, "user")
			if err != nil {
				t.Errorf("Create: %v", err)
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, n)
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate session id %q", id)
		}
		seen[id] = struct{}{}
	}
	if reg.Len() != n {
		t.Fatalf("Len = %d, want %d", reg.Len(), n)
	}
}

func TestMemoryRegistryRegeneratesOnCollision(t *testing.T) {
	reg := NewMemoryRegistry(0)
	ctx := context.Background()
	queue := []string{"fixed", "fixed", "fresh"}
	reg.newID = func() (string, error) {
		id := queue[0]
		queue = queue[1:]
		return id, nil
	}

	first, err := reg.Create(ctx, "alice")
	if err != nil || first != "fixed" {
		t.Fatalf("first Create = (%q, %v)", first, err)
	}
	second, err := reg.Create(ctx, "bob")
	if err != nil || second != "fresh" {
		t.Fatalf("second Create = (%q, %v), want fresh id", second, err)
	}
	if userID, _, _ := reg.Lookup(ctx, "fixed"); userID != "alice" {
		t.Fatalf("existing session was overwritten: %q", userID)
	}
}

func TestMemoryRegistryGivesUpAfterRepeatedCollisions(t *testing.T) {
	reg := NewMemoryRegistry(0)
	ctx := context.Background()
	reg.newID = func() (string, error) { return "same", nil }

	if _, err := reg.Create(ctx, "alice"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := reg.Create(ctx, "bob"); !errors.Is(err, ErrIDExhausted) {
		t.Fatalf("err = %v, want ErrIDExhausted", err)
	}
}

func TestMemoryRegistryExpiry(t *testing.T) {
	reg := NewMemoryRegistry(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }
	ctx := context.Background()

	expiring, _ := reg.Create(ctx, "alice")
	now = now.Add(45 * time.Second)
	fresh, _ := reg.Create(ctx, "bob")

	now = now.Add(30 * time.Second)
	if _, ok, _ := reg.Lookup(ctx, expiring); ok {
		t.Fatal("expected expired session to read as absent")
	}
	if reg.Len() != 2 {
		t.Fatalf("Lookup must not mutate; Len = %d", reg.Len())
	}
	if userID, ok, _ := reg.Lookup(ctx, fresh); !ok || userID != "bob" {
		t.Fatalf("fresh session lookup = (%q, %v)", userID, ok)
	}

	if removed := reg.Sweep(); removed != 1 {
		t.Fatalf("Sweep removed %d, want 1", removed)
	}
	if reg.Len() != 1 {
		t.Fatalf("Len after sweep = %d, want 1", reg.Len())
	}
}

func TestMemoryRegistryDeleteExpiredReportsAbsent(t *testing.T) {
	reg := NewMemoryRegistry(time.Second)
	now := time.Now()
	reg.now = func() time.Time { return now }
	ctx := context.Background()

	id, _ := reg.Create(ctx, "alice")
	now = now.Add(2 * time.Second)
	if deleted, _ := reg.Delete(ctx, id); deleted {
		t.Fatal("expected expired session delete to report false")
	}
	if reg.Len() != 0 {
		t.Fatalf("expired entry should still be removed; Len = %d", reg.Len())
	}
}

func TestMemoryRegistrySweeperStopsWithContext(t *testing.T) {
	reg := NewMemoryRegistry(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := reg.Create(ctx, "alice"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	reg.StartSweeper(ctx, 5*time.Millisecond, nil)

	deadline := time.Now().Add(2 * time.Second)
	for reg.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("sweeper did not remove expired session")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMemoryRegistryConcurrentDeleteAndLookupSameKey(t *testing.T) {
	ctx := context.Background()

	for round := 0; round < 50; round++ {
		reg := NewMemoryRegistry(0)
		id, err := reg.Create(ctx, "alice")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		const deleters = 8
		const readers = 8
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			deleted int
		)
		start := make(chan struct{})

		for i := 0; i < deleters; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				ok, err := reg.Delete(ctx, id)
				if err != nil {
					t.Errorf("Delete: %v", err)
					return
				}
				if ok {
					mu.Lock()
					deleted++
					mu.Unlock()
				}
			}()
		}
		for i := 0; i < readers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				userID, found, err := reg.Lookup(ctx, id)
				if err != nil {
					t.Errorf("Lookup: %v", err)
					return
				}
				if found && userID != "alice" {
					t.Errorf("Lookup saw %q, want alice or not-found", userID)
				}
				if !found && userID != "" {
					t.Errorf("not-found Lookup returned user %q", userID)
				}
			}()
		}
		close(start)
		wg.Wait()

		if deleted != 1 {
			t.Fatalf("round %d: %d deletes reported success, want exactly 1", round, deleted)
		}
		if _, found, _ := reg.Lookup(ctx, id); found {
			t.Fatalf("round %d: session still resolves after delete", round)
		}
	}
}
