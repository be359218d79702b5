package ocfl_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ocflgo/ocfl/ocfl"
)

func TestFileLockerExclusion(t *testing.T) {
	locker := ocfl.NewFileLocker(time.Second)
	ctx := context.Background()

	release, err := locker.Lock(ctx, "a.txt")
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		release2, err := locker.Lock(ctx, "a.txt")
		if err != nil {
			t.Error(err)
			close(done)
			return
		}
		release2()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second Lock succeeded before the first was released")
	case <-time.After(50 * time.Millisecond):
	}
	release()
	<-done
}

func TestFileLockerTryOnce(t *testing.T) {
	locker := ocfl.NewFileLocker(0)
	ctx := context.Background()

	release, err := locker.Lock(ctx, "a.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	if _, err := locker.Lock(ctx, "a.txt"); !errors.Is(err, ocfl.ErrLockTimeout) {
		t.Fatalf("got %v, want ErrLockTimeout", err)
	}
}

func TestFileLockerTryOnceUncontended(t *testing.T) {
	locker := ocfl.NewFileLocker(0)
	ctx := context.Background()
	release, err := locker.Lock(ctx, "a.txt")
	if err != nil {
		t.Fatalf("expected uncontended lock to succeed, got %v", err)
	}
	release()
}

func TestFileLockerDifferentPaths(t *testing.T) {
	locker := ocfl.NewFileLocker(time.Second)
	ctx := context.Background()
	var wg sync.WaitGroup
	for _, p := range []string{"a.txt", "b.txt", "c.txt"} {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Lock(ctx, p)
			if err != nil {
				t.Error(err)
				return
			}
			defer release()
		}()
	}
	wg.Wait()
}

func TestFileLockerWithLock(t *testing.T) {
	locker := ocfl.NewFileLocker(time.Second)
	ctx := context.Background()
	var ran bool
	err := locker.WithLock(ctx, "x.txt", func() error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Fatal("fn did not run")
	}
}
