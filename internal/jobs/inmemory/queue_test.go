package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/christufur/MazzyMoney-sub001/internal/jobs"
)

func TestQueue_ProcessesJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, store)
	defer q.Close()

	done := make(chan string, 1)
	err := q.Start(context.Background(), func(ctx context.Context, job jobs.Job) error {
		done <- job.GetID()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	job := &jobs.SyncUserJob{UserID: "u1"}
	if err := q.PublishSyncUser(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	select {
	case id := <-done:
		if id != job.JobID {
			t.Errorf("handled job %s, published %s", id, job.JobID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job never handled")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := store.GetJob(context.Background(), job.JobID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status == jobs.JobStatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job status = %s, want completed", got.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestQueue_RetriesOnFailure(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, store)
	defer q.Close()

	var attempts atomic.Int32
	err := q.Start(context.Background(), func(ctx context.Context, job jobs.Job) error {
		if attempts.Add(1) == 1 {
			return errors.New("transient failure")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	job := &jobs.SyncUserJob{UserID: "u1", MaxRetries: 2}
	if err := q.PublishSyncUser(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		got, err := store.GetJob(context.Background(), job.JobID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status == jobs.JobStatusCompleted {
			if got.RetryCount != 1 {
				t.Errorf("retry count = %d, want 1", got.RetryCount)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("job status = %s after deadline", got.Status)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestPublish_RequiresUser(t *testing.T) {
	q := NewQueue(1, NewStore())
	defer q.Close()

	if err := q.PublishSyncUser(context.Background(), &jobs.SyncUserJob{}); err == nil {
		t.Fatal("expected error for job without user id")
	}
}
