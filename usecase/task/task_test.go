package task_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/internal/testutil"
	"github.com/fastygo/taskshare/usecase/notification"
	"github.com/fastygo/taskshare/usecase/task"
)

type fixture struct {
	repos    testutil.Repos
	recorder *testutil.Recorder
	notes    *notification.UseCase
	tasks    *task.UseCase
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repos := testutil.NewRepos(t)
	recorder := &testutil.Recorder{}
	notes := notification.New(repos.Notifications, recorder, nil, nil)
	return fixture{
		repos:    repos,
		recorder: recorder,
		notes:    notes,
		tasks:    task.New(repos.Tasks, repos.Participants, repos.Users, notes, nil),
	}
}

func patch(t *testing.T, raw string) domain.TaskPatch {
	t.Helper()
	var p domain.TaskPatch
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("decoding patch: %v", err)
	}
	return p
}

func TestSharedProgressScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.repos.CreateUser(t, "owner")
	bob := f.repos.CreateUser(t, "bob")

	created, err := f.tasks.CreateTask(ctx, owner.ID, task.CreateInput{Title: "  Write report "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Title != "Write report" || created.Status != domain.StatusPending {
		t.Fatalf("unexpected created task %+v", created)
	}
	if created.TotalParticipants != 1 || created.OverallProgress != 0 {
		t.Fatalf("expected 1 member at 0%%, got %d at %d%%", created.TotalParticipants, created.OverallProgress)
	}

	if _, err := f.tasks.ShareTask(ctx, created.ID, owner, task.ShareInput{Identifier: "bob", AccessLevel: "LIMITED"}); err != nil {
		t.Fatalf("share: %v", err)
	}

	asBob, err := f.tasks.GetTask(ctx, created.ID, bob.ID)
	if err != nil {
		t.Fatalf("get as bob: %v", err)
	}
	if asBob.ViewerAccessLevel == nil || *asBob.ViewerAccessLevel != domain.AccessLimited {
		t.Fatalf("expected limited access, got %v", asBob.ViewerAccessLevel)
	}
	if asBob.Permissions.CanEdit || !asBob.Permissions.CanUpdateProgress || asBob.IsOwner {
		t.Fatalf("unexpected permissions %+v", asBob.Permissions)
	}

	progressed, err := f.tasks.UpdateProgress(ctx, created.ID, bob, "Completed")
	if err != nil {
		t.Fatalf("bob progress: %v", err)
	}
	if progressed.TotalParticipants != 2 || progressed.CompletedParticipants != 1 || progressed.OverallProgress != 50 {
		t.Fatalf("expected 1/2 at 50%%, got %d/%d at %d%%",
			progressed.CompletedParticipants, progressed.TotalParticipants, progressed.OverallProgress)
	}
	if progressed.ViewerStatus != domain.StatusCompleted || progressed.OwnerStatus != domain.StatusPending {
		t.Fatalf("unexpected statuses viewer=%s owner=%s", progressed.ViewerStatus, progressed.OwnerStatus)
	}

	done, err := f.tasks.UpdateProgress(ctx, created.ID, owner, "Completed")
	if err != nil {
		t.Fatalf("owner progress: %v", err)
	}
	if done.OverallProgress != 100 {
		t.Fatalf("expected 100%%, got %d", done.OverallProgress)
	}

	// bob: shared + owner's progress; owner: bob's progress.
	if got := len(f.recorder.For(bob.ID)); got != 2 {
		t.Fatalf("expected 2 pushes to bob, got %d", got)
	}
	if got := len(f.recorder.For(owner.ID)); got != 1 {
		t.Fatalf("expected 1 push to owner, got %d", got)
	}
}

func TestGetTaskAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.repos.CreateUser(t, "owner")
	stranger := f.repos.CreateUser(t, "stranger")

	created, err := f.tasks.CreateTask(ctx, owner.ID, task.CreateInput{Title: "Private"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("stranger is forbidden", func(t *testing.T) {
		_, err := f.tasks.GetTask(ctx, created.ID, stranger.ID)
		if !domain.IsDomainError(err, domain.ErrCodeForbidden) {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("missing task is not found", func(t *testing.T) {
		_, err := f.tasks.GetTask(ctx, created.ID+100, owner.ID)
		if !errors.Is(err, domain.ErrTaskNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("list hides foreign tasks", func(t *testing.T) {
		views, err := f.tasks.ListTasksForViewer(ctx, stranger.ID)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(views) != 0 {
			t.Fatalf("expected no tasks, got %d", len(views))
		}
	})
}

func TestCreateTaskValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.repos.CreateUser(t, "owner")
	empty := ""

	cases := map[string]task.CreateInput{
		"blank title":    {Title: "   "},
		"invalid status": {Title: "ok", Status: "Done"},
		"bad due date":   {Title: "ok", DueDate: strPtr("tomorrow")},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := f.tasks.CreateTask(ctx, owner.ID, input); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	t.Run("empty due date is null", func(t *testing.T) {
		view, err := f.tasks.CreateTask(ctx, owner.ID, task.CreateInput{Title: "ok", DueDate: &empty})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if view.DueDate != nil {
			t.Fatalf("expected nil due date, got %v", view.DueDate)
		}
	})
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.repos.CreateUser(t, "owner")
	full := f.repos.CreateUser(t, "full")
	limited := f.repos.CreateUser(t, "limited")

	created, err := f.tasks.CreateTask(ctx, owner.ID, task.CreateInput{Title: "Plan", Description: strPtr("draft"), DueDate: strPtr("2030-01-02")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.tasks.ShareTask(ctx, created.ID, owner, task.ShareInput{Identifier: "full@example.com", AccessLevel: "full"}); err != nil {
		t.Fatalf("share full: %v", err)
	}
	if _, err := f.tasks.ShareTask(ctx, created.ID, owner, task.ShareInput{Email: "limited"}); err != nil {
		t.Fatalf("share limited: %v", err)
	}
	f.recorder.Reset()

	t.Run("empty patch touches nothing", func(t *testing.T) {
		_, err := f.tasks.UpdateTask(ctx, created.ID, owner, patch(t, `{}`))
		if !errors.Is(err, domain.ErrEmptyUpdate) {
			t.Fatalf("expected empty update error, got %v", err)
		}
		if len(f.recorder.Emissions()) != 0 {
			t.Fatal("expected no notifications")
		}
	})

	t.Run("limited participant cannot edit", func(t *testing.T) {
		_, err := f.tasks.UpdateTask(ctx, created.ID, limited, patch(t, `{"title":"x"}`))
		if !errors.Is(err, domain.ErrEditDenied) {
			t.Fatalf("expected edit denied, got %v", err)
		}
	})

	t.Run("blank title rejected", func(t *testing.T) {
		_, err := f.tasks.UpdateTask(ctx, created.ID, owner, patch(t, `{"title":"  "}`))
		if !errors.Is(err, domain.ErrTitleRequired) {
			t.Fatalf("expected title required, got %v", err)
		}
	})

	t.Run("full participant edits and others are notified", func(t *testing.T) {
		view, err := f.tasks.UpdateTask(ctx, created.ID, full, patch(t, `{"title":"Plan v2","description":null,"status":"In Progress","due_date":null}`))
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if view.Title != "Plan v2" || view.Description != nil || view.DueDate != nil {
			t.Fatalf("unexpected view %+v", view)
		}
		if view.OwnerStatus != domain.StatusInProgress {
			t.Fatalf("expected owner status In Progress, got %s", view.OwnerStatus)
		}
		if len(f.recorder.For(full.ID)) != 0 {
			t.Fatal("actor must not be notified")
		}
		if len(f.recorder.For(owner.ID)) != 1 || len(f.recorder.For(limited.ID)) != 1 {
			t.Fatalf("expected one push each to owner and limited, got %+v", f.recorder.Emissions())
		}

		list, err := f.notes.ListNotifications(ctx, owner.ID, 0)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 1 || list[0].Type != task.TypeTaskUpdated {
			t.Fatalf("unexpected notifications %+v", list)
		}
		status, ok := list[0].Metadata.Get("status")
		if !ok || status != "In Progress" {
			t.Fatalf("expected status metadata, got %v", status)
		}
	})
}

func TestShareTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.repos.CreateUser(t, "owner")
	bob := f.repos.CreateUser(t, "bob")

	created, err := f.tasks.CreateTask(ctx, owner.ID, task.CreateInput{Title: "Shared"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("blank identifier", func(t *testing.T) {
		_, err := f.tasks.ShareTask(ctx, created.ID, owner, task.ShareInput{Identifier: " "})
		if !errors.Is(err, domain.ErrShareIdentifierNeeded) {
			t.Fatalf("expected identifier error, got %v", err)
		}
	})

	t.Run("self share", func(t *testing.T) {
		_, err := f.tasks.ShareTask(ctx, created.ID, owner, task.ShareInput{Identifier: "owner"})
		if !domain.IsDomainError(err, domain.ErrCodeSelfShare) {
			t.Fatalf("expected self share, got %v", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.tasks.ShareTask(ctx, created.ID, owner, task.ShareInput{Identifier: "nobody"})
		if !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected user not found, got %v", err)
		}
	})

	t.Run("non owner", func(t *testing.T) {
		_, err := f.tasks.ShareTask(ctx, created.ID, bob, task.ShareInput{Identifier: "owner"})
		if !errors.Is(err, domain.ErrNotOwner) {
			t.Fatalf("expected not owner, got %v", err)
		}
	})

	t.Run("duplicate share conflicts", func(t *testing.T) {
		view, err := f.tasks.ShareTask(ctx, created.ID, owner, task.ShareInput{Identifier: "bob", AccessLevel: "admin"})
		if err != nil {
			t.Fatalf("first share: %v", err)
		}
		if !view.IsOwner || len(view.Participants) != 1 || view.Participants[0].AccessLevel != domain.AccessLimited {
			t.Fatalf("unexpected owner view %+v", view)
		}

		_, err = f.tasks.ShareTask(ctx, created.ID, owner, task.ShareInput{Identifier: "bob"})
		if !domain.IsDomainError(err, domain.ErrCodeConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}

		again, err := f.tasks.GetTask(ctx, created.ID, owner.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(again.Participants) != 1 {
			t.Fatalf("expected exactly one participant, got %d", len(again.Participants))
		}
	})

	t.Run("only the target is notified", func(t *testing.T) {
		if len(f.recorder.For(owner.ID)) != 0 {
			t.Fatal("owner must not be notified of own share")
		}
		pushes := f.recorder.For(bob.ID)
		if len(pushes) != 1 || pushes[0].Event != domain.EventNew {
			t.Fatalf("unexpected pushes %+v", pushes)
		}
	})
}

func TestProgressAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.repos.CreateUser(t, "owner")
	bob := f.repos.CreateUser(t, "bob")
	stranger := f.repos.CreateUser(t, "stranger")

	created, err := f.tasks.CreateTask(ctx, owner.ID, task.CreateInput{Title: "Solo"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("invalid status is checked first", func(t *testing.T) {
		_, err := f.tasks.UpdateProgress(ctx, created.ID+100, owner, "Nope")
		if !errors.Is(err, domain.ErrInvalidStatus) {
			t.Fatalf("expected invalid status, got %v", err)
		}
	})

	t.Run("owner alone creates no notifications", func(t *testing.T) {
		if _, err := f.tasks.UpdateProgress(ctx, created.ID, owner, "In Progress"); err != nil {
			t.Fatalf("progress: %v", err)
		}
		if len(f.recorder.Emissions()) != 0 {
			t.Fatalf("expected no emissions, got %d", len(f.recorder.Emissions()))
		}
		count, err := f.notes.GetUnreadCount(ctx, owner.ID)
		if err != nil || count != 0 {
			t.Fatalf("expected 0 unread, got %d (%v)", count, err)
		}
	})

	t.Run("stranger cannot update progress", func(t *testing.T) {
		_, err := f.tasks.UpdateProgress(ctx, created.ID, stranger, "Completed")
		if !domain.IsDomainError(err, domain.ErrCodeForbidden) {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("limited participant cannot delete", func(t *testing.T) {
		if _, err := f.tasks.ShareTask(ctx, created.ID, owner, task.ShareInput{Identifier: "bob"}); err != nil {
			t.Fatalf("share: %v", err)
		}
		if err := f.tasks.DeleteTask(ctx, created.ID, bob.ID); !errors.Is(err, domain.ErrDeleteDenied) {
			t.Fatalf("expected delete denied, got %v", err)
		}
	})

	t.Run("owner delete cascades", func(t *testing.T) {
		if err := f.tasks.DeleteTask(ctx, created.ID, owner.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := f.tasks.GetTask(ctx, created.ID, owner.ID); !errors.Is(err, domain.ErrTaskNotFound) {
			t.Fatalf("expected not found after delete, got %v", err)
		}
		list, err := f.notes.ListNotifications(ctx, bob.ID, 0)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 0 {
			t.Fatalf("expected notifications to cascade, got %d", len(list))
		}
	})
}

func TestRecipients(t *testing.T) {
	participants := []domain.Participant{{UserID: 2}, {UserID: 3}, {UserID: 2}}

	got := task.Recipients(1, participants, 2)
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("unexpected recipients %v", got)
	}
	if got := task.Recipients(1, nil, 1); len(got) != 0 {
		t.Fatalf("expected no recipients, got %v", got)
	}
}

func strPtr(s string) *string { return &s }
