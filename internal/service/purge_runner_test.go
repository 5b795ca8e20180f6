package service

import (
	"errors"
	"testing"
	"time"

	"puptime/internal/model"
	"puptime/internal/repository"
)

type stubPurgeSource struct {
	ids []uint
	err error
}

func (s *stubPurgeSource) PopDue(now time.Time) ([]uint, error) {
	return s.ids, s.err
}

func TestPurgeRunnerRunOnce(t *testing.T) {
	svc, db, _, _ := newFriendshipFixture(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	cancelled, err := svc.Request(alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if _, err := svc.Cancel(alice.ID, cancelled.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	pending, err := svc.Request(alice.ID, carol.ID)
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	// due list mixes a deletable id, a still-pending id and a missing id
	source := &stubPurgeSource{ids: []uint{cancelled.ID, pending.ID, 9999}}
	runner := NewPurgeRunner(source, svc, time.Minute)
	runner.runOnce()

	var count int64
	db.Model(&model.Friendship{}).Where("id = ?", cancelled.ID).Count(&count)
	if count != 0 {
		t.Error("cancelled record survived the purge round")
	}
	db.Model(&model.Friendship{}).Where("id = ?", pending.ID).Count(&count)
	if count != 1 {
		t.Error("pending record deleted by the purge round")
	}
}

func TestPurgeRunnerRunOnceSourceFailure(t *testing.T) {
	db := newTestDB(t)
	svc := NewFriendshipService(
		repository.NewFriendshipRepository(db),
		repository.NewUserRepository(db),
		&fakeScheduler{}, nil, time.Hour,
	)

	// a failing source only skips the round
	runner := NewPurgeRunner(&stubPurgeSource{err: errors.New("redis down")}, svc, time.Minute)
	runner.runOnce()
}
