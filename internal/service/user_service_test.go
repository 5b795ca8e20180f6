package service

import (
	"testing"
	"time"

	"puptime/config"
	"puptime/internal/model"
	"puptime/internal/repository"
	"puptime/pkg/errs"
	"puptime/pkg/jwt"

	"gorm.io/gorm"
)

func newUserFixture(t *testing.T) (*UserService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	jwtSvc := jwt.NewJWTService(config.JWTConfig{
		Secret:     "test-secret-key-for-service-tests",
		ExpireTime: time.Hour,
		Issuer:     "puptime-test",
	})
	return NewUserService(repository.NewUserRepository(db), jwtSvc), db
}

func TestUserRegister(t *testing.T) {
	svc, _ := newUserFixture(t)

	user, token, err := svc.Register(RegisterInput{
		Username: "  Alice  ",
		Email:    "Alice@Example.COM",
		Password: "supersecret",
		Gender:   "female",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Username != "Alice" {
		t.Errorf("Username = %q, want trimmed Alice", user.Username)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, want lowercased", user.Email)
	}
	if user.PasswordHash == "supersecret" || user.PasswordHash == "" {
		t.Error("password stored without hashing")
	}
	if user.StreakCnt != 0 {
		t.Errorf("StreakCnt = %d, want 0", user.StreakCnt)
	}
	if token == "" {
		t.Error("Register() returned empty token")
	}
}

func TestUserRegisterValidation(t *testing.T) {
	svc, _ := newUserFixture(t)

	tests := []struct {
		name     string
		in       RegisterInput
		wantKind errs.Kind
	}{
		{
			name:     "empty username",
			in:       RegisterInput{Username: "  ", Email: "a@b.com", Password: "supersecret"},
			wantKind: errs.KindValidation,
		},
		{
			name:     "invalid email",
			in:       RegisterInput{Username: "a", Email: "not-an-email", Password: "supersecret"},
			wantKind: errs.KindValidation,
		},
		{
			name:     "short password",
			in:       RegisterInput{Username: "a", Email: "a@b.com", Password: "1234567"},
			wantKind: errs.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := svc.Register(tt.in); !errs.Is(err, tt.wantKind) {
				t.Errorf("Register() error = %v, want kind %s", err, tt.wantKind)
			}
		})
	}
}

func TestUserRegisterDuplicates(t *testing.T) {
	svc, _ := newUserFixture(t)

	if _, _, err := svc.Register(RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "supersecret",
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// username uniqueness is case-insensitive
	_, _, err := svc.Register(RegisterInput{
		Username: "ALICE", Email: "other@example.com", Password: "supersecret",
	})
	if !errs.Is(err, errs.KindConflict) {
		t.Errorf("duplicate username error = %v, want kind CONFLICT", err)
	}

	// so is email
	_, _, err = svc.Register(RegisterInput{
		Username: "bob", Email: "ALICE@example.com", Password: "supersecret",
	})
	if !errs.Is(err, errs.KindConflict) {
		t.Errorf("duplicate email error = %v, want kind CONFLICT", err)
	}
}

func TestUserLogin(t *testing.T) {
	svc, _ := newUserFixture(t)

	if _, _, err := svc.Register(RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "supersecret",
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, token, err := svc.Login("Alice@Example.com", "supersecret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.Username != "alice" || token == "" {
		t.Errorf("Login() = (%s, %q), want alice with a token", user.Username, token)
	}

	// unknown email and wrong password are indistinguishable
	_, _, errUnknown := svc.Login("nobody@example.com", "supersecret")
	_, _, errWrongPw := svc.Login("alice@example.com", "wrongpassword")
	if !errs.Is(errUnknown, errs.KindAuthorization) {
		t.Errorf("unknown email error = %v, want kind AUTHORIZATION", errUnknown)
	}
	if !errs.Is(errWrongPw, errs.KindAuthorization) {
		t.Errorf("wrong password error = %v, want kind AUTHORIZATION", errWrongPw)
	}
	if errs.MessageOf(errUnknown) != errs.MessageOf(errWrongPw) {
		t.Errorf("login failures leak account existence: %q vs %q",
			errs.MessageOf(errUnknown), errs.MessageOf(errWrongPw))
	}
}

func TestUserSearch(t *testing.T) {
	svc, db := newUserFixture(t)
	seedUser(t, db, "alice")
	seedUser(t, db, "alicia")
	seedUser(t, db, "bob")

	users, err := svc.Search("ali")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("Search(ali) = %d users, want 2", len(users))
	}

	if _, err := svc.Search("   "); !errs.Is(err, errs.KindValidation) {
		t.Errorf("Search(blank) error = %v, want kind VALIDATION", err)
	}
}

func TestUserUpdate(t *testing.T) {
	svc, db := newUserFixture(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	// only the owner may modify the profile
	newName := "mallory"
	if _, err := svc.Update(bob.ID, alice.ID, UpdateUserInput{Username: &newName}); !errs.Is(err, errs.KindAuthorization) {
		t.Errorf("foreign update error = %v, want kind AUTHORIZATION", err)
	}

	// renaming onto an existing username conflicts
	taken := "BOB"
	if _, err := svc.Update(alice.ID, alice.ID, UpdateUserInput{Username: &taken}); !errs.Is(err, errs.KindConflict) {
		t.Errorf("rename onto taken username error = %v, want kind CONFLICT", err)
	}

	gender := "female"
	updated, err := svc.Update(alice.ID, alice.ID, UpdateUserInput{Gender: &gender})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Gender != "female" {
		t.Errorf("Gender = %q, want female", updated.Gender)
	}
	if updated.Username != "alice" {
		t.Errorf("Username = %q, want unchanged alice", updated.Username)
	}

	// keeping your own name is not a conflict
	same := "alice"
	if _, err := svc.Update(alice.ID, alice.ID, UpdateUserInput{Username: &same}); err != nil {
		t.Errorf("no-op rename error = %v", err)
	}
}

func TestUserDeleteCascade(t *testing.T) {
	svc, db := newUserFixture(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	taskSvc := NewTaskService(repository.NewTaskRepository(db))
	sport := seedCategory(t, db, "sport")
	task, err := taskSvc.Create(alice.ID, CreateTaskInput{
		Title:       "run",
		StartTime:   time.Now(),
		Categories:  []uint{sport.ID},
		Repetitions: []RepetitionInput{{Frequency: "daily"}},
	})
	if err != nil {
		t.Fatalf("Create task error = %v", err)
	}
	if _, err := taskSvc.Complete(alice.ID, task.ID, ""); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	friendSvc := NewFriendshipService(
		repository.NewFriendshipRepository(db),
		repository.NewUserRepository(db),
		&fakeScheduler{}, nil, time.Hour,
	)
	if _, err := friendSvc.Request(alice.ID, bob.ID); err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	// only the owner may delete the account
	if err := svc.Delete(bob.ID, alice.ID); !errs.Is(err, errs.KindAuthorization) {
		t.Errorf("foreign delete error = %v, want kind AUTHORIZATION", err)
	}

	if err := svc.Delete(alice.ID, alice.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := svc.Get(alice.ID); !errs.Is(err, errs.KindNotFound) {
		t.Errorf("Get() after delete error = %v, want kind NOT_FOUND", err)
	}

	var count int64
	db.Model(&model.Task{}).Where("user_id = ?", alice.ID).Count(&count)
	if count != 0 {
		t.Errorf("task rows left behind after account delete: %d", count)
	}
	db.Model(&model.TaskRepetition{}).Where("task_id = ?", task.ID).Count(&count)
	if count != 0 {
		t.Errorf("repetition rows left behind after account delete: %d", count)
	}
	db.Model(&model.TaskHistory{}).Where("task_id = ?", task.ID).Count(&count)
	if count != 0 {
		t.Errorf("history rows left behind after account delete: %d", count)
	}
	db.Table("task_category").Where("task_id = ?", task.ID).Count(&count)
	if count != 0 {
		t.Errorf("category link rows left behind after account delete: %d", count)
	}
	db.Model(&model.Friendship{}).
		Where("sender_id = ? OR receiver_id = ?", alice.ID, alice.ID).
		Count(&count)
	if count != 0 {
		t.Errorf("friendship rows left behind after account delete: %d", count)
	}

	// bob is untouched
	if _, err := svc.Get(bob.ID); err != nil {
		t.Errorf("Get(bob) error = %v", err)
	}
}
