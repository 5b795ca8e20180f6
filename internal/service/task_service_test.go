package service

import (
	"testing"
	"time"

	"puptime/internal/model"
	"puptime/internal/repository"
	"puptime/pkg/errs"

	"gorm.io/gorm"
)

func newTaskFixture(t *testing.T) (*TaskService, *gorm.DB, *model.User) {
	t.Helper()
	db := newTestDB(t)
	svc := NewTaskService(repository.NewTaskRepository(db))
	owner := seedUser(t, db, "owner")
	return svc, db, owner
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func timePtr(t time.Time) *time.Time { return &t }

func TestTaskCreate(t *testing.T) {
	svc, db, owner := newTaskFixture(t)
	sport := seedCategory(t, db, "sport")
	study := seedCategory(t, db, "study")

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	end := start.Add(time.Hour)
	task, err := svc.Create(owner.ID, CreateTaskInput{
		Title:        "  morning run  ",
		StartTime:    start,
		EndTime:      &end,
		ReminderTime: intPtr(15),
		Priority:     model.TaskPriorityHigh,
		Emoji:        "🏃",
		Categories:   []uint{sport.ID, study.ID},
		Repetitions: []RepetitionInput{
			{Frequency: "daily", Time: strPtr("09:00")},
			{Frequency: "weekly"},
		},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.Title != "morning run" {
		t.Errorf("Title = %q, want trimmed title", task.Title)
	}

	got, err := svc.Get(owner.ID, task.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Categories) != 2 {
		t.Errorf("Categories = %d, want 2", len(got.Categories))
	}
	if len(got.Repetitions) != 2 {
		t.Errorf("Repetitions = %d, want 2", len(got.Repetitions))
	}
}

func TestTaskCreateValidation(t *testing.T) {
	svc, _, owner := newTaskFixture(t)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)

	tests := []struct {
		name string
		in   CreateTaskInput
	}{
		{
			name: "empty title",
			in:   CreateTaskInput{Title: "   ", StartTime: start},
		},
		{
			name: "unknown priority",
			in:   CreateTaskInput{Title: "t", StartTime: start, Priority: "urgent"},
		},
		{
			name: "end before start",
			in:   CreateTaskInput{Title: "t", StartTime: start, EndTime: timePtr(start.Add(-time.Minute))},
		},
		{
			name: "end equal to start",
			in:   CreateTaskInput{Title: "t", StartTime: start, EndTime: timePtr(start)},
		},
		{
			name: "negative reminder",
			in:   CreateTaskInput{Title: "t", StartTime: start, ReminderTime: intPtr(-1)},
		},
		{
			name: "empty repetition frequency",
			in:   CreateTaskInput{Title: "t", StartTime: start, Repetitions: []RepetitionInput{{Frequency: " "}}},
		},
		{
			name: "unknown category",
			in:   CreateTaskInput{Title: "t", StartTime: start, Categories: []uint{999}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(owner.ID, tt.in); !errs.Is(err, errs.KindValidation) {
				t.Errorf("Create() error = %v, want kind VALIDATION", err)
			}
		})
	}
}

func TestTaskOwnership(t *testing.T) {
	svc, db, owner := newTaskFixture(t)
	other := seedUser(t, db, "other")

	task, err := svc.Create(owner.ID, CreateTaskInput{
		Title:     "private",
		StartTime: time.Now(),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// someone else's task is indistinguishable from a missing one
	if _, err := svc.Get(other.ID, task.ID); !errs.Is(err, errs.KindNotFound) {
		t.Errorf("Get() error = %v, want kind NOT_FOUND", err)
	}
	if _, err := svc.Update(other.ID, task.ID, UpdateTaskInput{Title: strPtr("x")}); !errs.Is(err, errs.KindNotFound) {
		t.Errorf("Update() error = %v, want kind NOT_FOUND", err)
	}
	if err := svc.Delete(other.ID, task.ID); !errs.Is(err, errs.KindNotFound) {
		t.Errorf("Delete() error = %v, want kind NOT_FOUND", err)
	}
	if _, err := svc.Complete(other.ID, task.ID, ""); !errs.Is(err, errs.KindNotFound) {
		t.Errorf("Complete() error = %v, want kind NOT_FOUND", err)
	}
}

func TestTaskUpdateMerge(t *testing.T) {
	svc, _, owner := newTaskFixture(t)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)

	task, err := svc.Create(owner.ID, CreateTaskInput{
		Title:     "draft",
		StartTime: start,
		Priority:  model.TaskPriorityLow,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// only the provided field changes
	updated, err := svc.Update(owner.ID, task.ID, UpdateTaskInput{Title: strPtr("final")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "final" {
		t.Errorf("Title = %q, want final", updated.Title)
	}
	if updated.Priority != model.TaskPriorityLow {
		t.Errorf("Priority = %s, want unchanged low", updated.Priority)
	}
	if !updated.StartTime.Equal(start) {
		t.Errorf("StartTime = %v, want unchanged %v", updated.StartTime, start)
	}
}

func TestTaskUpdateValidatesMergedState(t *testing.T) {
	svc, _, owner := newTaskFixture(t)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)

	task, err := svc.Create(owner.ID, CreateTaskInput{Title: "t", StartTime: start})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// the new end time conflicts with the existing start time
	_, err = svc.Update(owner.ID, task.ID, UpdateTaskInput{EndTime: timePtr(start.Add(-time.Hour))})
	if !errs.Is(err, errs.KindValidation) {
		t.Fatalf("Update() error = %v, want kind VALIDATION", err)
	}

	// nothing was persisted
	got, err := svc.Get(owner.ID, task.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.EndTime != nil {
		t.Errorf("EndTime = %v, want nil after rejected update", got.EndTime)
	}
}

func TestTaskUpdateReplacesRepetitions(t *testing.T) {
	svc, _, owner := newTaskFixture(t)

	task, err := svc.Create(owner.ID, CreateTaskInput{
		Title:     "habit",
		StartTime: time.Now(),
		Repetitions: []RepetitionInput{
			{Frequency: "daily"},
			{Frequency: "weekly"},
		},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// absent field leaves the collection alone
	got, err := svc.Update(owner.ID, task.ID, UpdateTaskInput{Title: strPtr("habit2")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(got.Repetitions) != 2 {
		t.Fatalf("Repetitions = %d, want 2 untouched", len(got.Repetitions))
	}

	// provided list replaces the whole collection
	got, err = svc.Update(owner.ID, task.ID, UpdateTaskInput{
		Repetitions: &[]RepetitionInput{{Frequency: "monthly", Time: strPtr("08:30")}},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(got.Repetitions) != 1 || got.Repetitions[0].Frequency != "monthly" {
		t.Fatalf("Repetitions = %+v, want single monthly rule", got.Repetitions)
	}

	// empty list clears it
	got, err = svc.Update(owner.ID, task.ID, UpdateTaskInput{Repetitions: &[]RepetitionInput{}})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(got.Repetitions) != 0 {
		t.Errorf("Repetitions = %d, want 0 after clearing", len(got.Repetitions))
	}
}

func TestTaskUpdateReplacesCategories(t *testing.T) {
	svc, db, owner := newTaskFixture(t)
	sport := seedCategory(t, db, "sport")
	study := seedCategory(t, db, "study")

	task, err := svc.Create(owner.ID, CreateTaskInput{
		Title:      "mixed",
		StartTime:  time.Now(),
		Categories: []uint{sport.ID},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := svc.Update(owner.ID, task.ID, UpdateTaskInput{Categories: &[]uint{study.ID}})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(got.Categories) != 1 || got.Categories[0].ID != study.ID {
		t.Fatalf("Categories = %+v, want only study", got.Categories)
	}

	// unknown id rejects the whole update
	if _, err := svc.Update(owner.ID, task.ID, UpdateTaskInput{Categories: &[]uint{999}}); !errs.Is(err, errs.KindValidation) {
		t.Errorf("Update() error = %v, want kind VALIDATION", err)
	}

	got, err = svc.Update(owner.ID, task.ID, UpdateTaskInput{Categories: &[]uint{}})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(got.Categories) != 0 {
		t.Errorf("Categories = %d, want 0 after clearing", len(got.Categories))
	}
}

func TestTaskList(t *testing.T) {
	svc, db, owner := newTaskFixture(t)
	other := seedUser(t, db, "other")
	sport := seedCategory(t, db, "sport")

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	mk := func(userID uint, title, priority string, start time.Time, categories []uint) {
		t.Helper()
		_, err := svc.Create(userID, CreateTaskInput{
			Title: title, StartTime: start, Priority: priority, Categories: categories,
		})
		if err != nil {
			t.Fatalf("Create(%s) error = %v", title, err)
		}
	}
	mk(owner.ID, "a", model.TaskPriorityHigh, base, []uint{sport.ID})
	mk(owner.ID, "b", model.TaskPriorityLow, base.Add(time.Hour), nil)
	mk(owner.ID, "c", model.TaskPriorityHigh, base.Add(2*time.Hour), nil)
	mk(other.ID, "foreign", model.TaskPriorityHigh, base, nil)

	// only the caller's tasks
	all, err := svc.List(owner.ID, ListTasksInput{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List() = %d items, want 3", len(all))
	}

	// priority filter
	high, err := svc.List(owner.ID, ListTasksInput{Priority: model.TaskPriorityHigh})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(high) != 2 {
		t.Errorf("priority filter = %d items, want 2", len(high))
	}

	// an invalid priority value is ignored, not an error
	ignored, err := svc.List(owner.ID, ListTasksInput{Priority: "urgent"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ignored) != 3 {
		t.Errorf("invalid priority filter = %d items, want all 3", len(ignored))
	}

	// category filter
	inSport, err := svc.List(owner.ID, ListTasksInput{CategoryID: sport.ID})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(inSport) != 1 || inSport[0].Title != "a" {
		t.Errorf("category filter = %d items, want only task a", len(inSport))
	}

	// whitelisted ordering
	asc, err := svc.List(owner.ID, ListTasksInput{Ordering: "start_time"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if asc[0].Title != "a" || asc[2].Title != "c" {
		t.Errorf("ascending order = [%s %s %s], want [a b c]", asc[0].Title, asc[1].Title, asc[2].Title)
	}

	// an unknown ordering value falls back to the default (newest first)
	def, err := svc.List(owner.ID, ListTasksInput{Ordering: "title; DROP TABLE task"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if def[0].Title != "c" {
		t.Errorf("default order starts with %s, want c", def[0].Title)
	}

	// pagination
	page2, err := svc.List(owner.ID, ListTasksInput{Ordering: "start_time", Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page2) != 1 || page2[0].Title != "c" {
		t.Errorf("page 2 = %d items, want only c", len(page2))
	}
}

func TestTaskComplete(t *testing.T) {
	svc, _, owner := newTaskFixture(t)
	task, err := svc.Create(owner.ID, CreateTaskInput{Title: "t", StartTime: time.Now()})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// empty time defaults to now
	before := time.Now().Add(-time.Second)
	h, err := svc.Complete(owner.ID, task.ID, "")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	after := time.Now().Add(time.Second)
	if h.CompletionTime.Before(before) || h.CompletionTime.After(after) {
		t.Errorf("CompletionTime = %v, want roughly now", h.CompletionTime)
	}

	// explicit times in both accepted formats
	h, err = svc.Complete(owner.ID, task.ID, "2026-03-01T10:00:00Z")
	if err != nil {
		t.Fatalf("Complete(RFC3339) error = %v", err)
	}
	if !h.CompletionTime.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("CompletionTime = %v, want 2026-03-01T10:00:00Z", h.CompletionTime)
	}
	if _, err := svc.Complete(owner.ID, task.ID, "2026-02-27T11:30:00"); err != nil {
		t.Fatalf("Complete(local) error = %v", err)
	}

	// same day twice is allowed
	if _, err := svc.Complete(owner.ID, task.ID, "2026-03-01T12:00:00Z"); err != nil {
		t.Fatalf("Complete(same day) error = %v", err)
	}

	if _, err := svc.Complete(owner.ID, task.ID, "01/03/2026"); !errs.Is(err, errs.KindValidation) {
		t.Errorf("Complete(bad format) error = %v, want kind VALIDATION", err)
	}

	history, err := svc.History(owner.ID, task.ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("History() = %d items, want 4", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].CompletionTime.After(history[i-1].CompletionTime) {
			t.Errorf("history not in descending order at index %d", i)
		}
	}
}

func TestTaskUncomplete(t *testing.T) {
	svc, _, owner := newTaskFixture(t)
	task, err := svc.Create(owner.ID, CreateTaskInput{Title: "t", StartTime: time.Now()})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	complete := func(value string) *model.TaskHistory {
		t.Helper()
		h, err := svc.Complete(owner.ID, task.ID, value)
		if err != nil {
			t.Fatalf("Complete(%s) error = %v", value, err)
		}
		return h
	}
	first := complete("2026-03-01T09:00:00")
	complete("2026-03-01T18:00:00")
	latest := complete("2026-03-02T09:00:00")

	// by explicit record id
	deleted, err := svc.Uncomplete(owner.ID, task.ID, first.ID, "")
	if err != nil {
		t.Fatalf("Uncomplete(by id) error = %v", err)
	}
	if deleted.ID != first.ID {
		t.Errorf("deleted id = %d, want %d", deleted.ID, first.ID)
	}
	if _, err := svc.Uncomplete(owner.ID, task.ID, first.ID, ""); !errs.Is(err, errs.KindNotFound) {
		t.Errorf("Uncomplete(gone id) error = %v, want kind NOT_FOUND", err)
	}

	// by date: the latest record of that day
	deleted, err = svc.Uncomplete(owner.ID, task.ID, 0, "2026-03-01")
	if err != nil {
		t.Fatalf("Uncomplete(by date) error = %v", err)
	}
	if deleted.CompletionTime.Hour() != 18 {
		t.Errorf("deleted at hour %d, want the 18:00 record", deleted.CompletionTime.Hour())
	}
	if _, err := svc.Uncomplete(owner.ID, task.ID, 0, "2026-03-01"); !errs.Is(err, errs.KindNotFound) {
		t.Errorf("Uncomplete(empty day) error = %v, want kind NOT_FOUND", err)
	}
	if _, err := svc.Uncomplete(owner.ID, task.ID, 0, "03/01/2026"); !errs.Is(err, errs.KindValidation) {
		t.Errorf("Uncomplete(bad date) error = %v, want kind VALIDATION", err)
	}

	// no selector: the most recent record overall
	deleted, err = svc.Uncomplete(owner.ID, task.ID, 0, "")
	if err != nil {
		t.Fatalf("Uncomplete(latest) error = %v", err)
	}
	if deleted.ID != latest.ID {
		t.Errorf("deleted id = %d, want latest %d", deleted.ID, latest.ID)
	}

	// nothing left
	if _, err := svc.Uncomplete(owner.ID, task.ID, 0, ""); !errs.Is(err, errs.KindNotFound) {
		t.Errorf("Uncomplete(no history) error = %v, want kind NOT_FOUND", err)
	}
}

func TestTaskDelete(t *testing.T) {
	svc, db, owner := newTaskFixture(t)
	sport := seedCategory(t, db, "sport")

	task, err := svc.Create(owner.ID, CreateTaskInput{
		Title:       "doomed",
		StartTime:   time.Now(),
		Categories:  []uint{sport.ID},
		Repetitions: []RepetitionInput{{Frequency: "daily"}},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Complete(owner.ID, task.ID, ""); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if err := svc.Delete(owner.ID, task.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := svc.Get(owner.ID, task.ID); !errs.Is(err, errs.KindNotFound) {
		t.Errorf("Get() after delete error = %v, want kind NOT_FOUND", err)
	}

	var count int64
	db.Model(&model.TaskRepetition{}).Where("task_id = ?", task.ID).Count(&count)
	if count != 0 {
		t.Error("repetitions left behind after delete")
	}
	db.Model(&model.TaskHistory{}).Where("task_id = ?", task.ID).Count(&count)
	if count != 0 {
		t.Error("history left behind after delete")
	}
	db.Table("task_category").Where("task_id = ?", task.ID).Count(&count)
	if count != 0 {
		t.Error("category links left behind after delete")
	}

	// the category itself survives
	db.Model(&model.InterestCategory{}).Where("id = ?", sport.ID).Count(&count)
	if count != 1 {
		t.Error("shared category deleted together with the task")
	}
}
