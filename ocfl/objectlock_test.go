package ocfl_test

import (
	"sync"
	"testing"
	"time"

	"github.com/ocflgo/ocfl/ocfl"
)

func TestObjectLockExclusion(t *testing.T) {
	lock := ocfl.NewObjectLock()
	var order []string
	var mu sync.Mutex
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		lock.Write("obj-1", func() error {
			time.Sleep(20 * time.Millisecond)
			mu.Lock()
			order = append(order, "first")
			mu.Unlock()
			return nil
		})
	}()
	time.Sleep(5 * time.Millisecond)
	wg.Add(1)
	go func() {
		defer wg.Done()
		lock.Write("obj-1", func() error {
			mu.Lock()
			order = append(order, "second")
			mu.Unlock()
			return nil
		})
	}()
	wg.Wait()
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("expected writers to run in order, got %v", order)
	}
}

func TestObjectLockIndependentObjects(t *testing.T) {
	lock := ocfl.NewObjectLock()
	var wg sync.WaitGroup
	for _, id := range []string{"obj-a", "obj-b", "obj-c"} {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := lock.Write(id, func() error { return nil }); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
}
