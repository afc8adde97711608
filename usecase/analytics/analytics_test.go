package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/internal/testutil"
	"github.com/fastygo/taskshare/usecase/analytics"
)

func seed(t *testing.T) (testutil.Repos, domain.Principal, domain.Principal) {
	t.Helper()
	ctx := context.Background()
	repos := testutil.NewRepos(t)
	owner := repos.CreateUser(t, "owner")
	bob := repos.CreateUser(t, "bob")

	past := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	inputs := []domain.NewTask{
		{OwnerID: owner.ID, Title: "done", Status: domain.StatusCompleted},
		{OwnerID: owner.ID, Title: "late", Status: domain.StatusPending, DueDate: &past},
		{OwnerID: owner.ID, Title: "open", Status: domain.StatusPending},
	}
	for i, in := range inputs {
		created, err := repos.Tasks.Create(ctx, in)
		if err != nil {
			t.Fatalf("creating task %d: %v", i, err)
		}
		if i == 0 {
			err = repos.Participants.Add(ctx, domain.Participation{
				TaskID:      created.ID,
				UserID:      bob.ID,
				AccessLevel: domain.AccessLimited,
				Status:      domain.StatusCompleted,
				InvitedBy:   owner.ID,
			})
			if err != nil {
				t.Fatalf("sharing task: %v", err)
			}
		}
	}
	return repos, owner, bob
}

func TestSummary(t *testing.T) {
	repos, owner, bob := seed(t)
	uc := analytics.New(repos.Tasks, repos.Participants, nil)

	s, err := uc.Summary(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	want := analytics.Summary{
		TotalTasks:              3,
		CompletedTasks:          1,
		PendingTasks:            2,
		OverdueTasks:            1,
		TasksCreatedThisWeek:    3,
		TasksCompletedThisWeek:  1,
		TasksCreatedThisMonth:   3,
		TasksCompletedThisMonth: 1,
	}
	if *s != want {
		t.Fatalf("unexpected summary\n got %+v\nwant %+v", *s, want)
	}

	t.Run("participant sees shared tasks only", func(t *testing.T) {
		s, err := uc.Summary(context.Background(), bob.ID)
		if err != nil {
			t.Fatalf("summary: %v", err)
		}
		if s.TotalTasks != 1 || s.CompletedTasks != 1 {
			t.Fatalf("unexpected summary for participant %+v", *s)
		}
	})
}

func TestTrends(t *testing.T) {
	repos, owner, _ := seed(t)

	t.Run("buckets today", func(t *testing.T) {
		uc := analytics.New(repos.Tasks, repos.Participants, nil)
		trends, err := uc.Trends(context.Background(), owner.ID, "bogus")
		if err != nil {
			t.Fatalf("trends: %v", err)
		}
		if trends.Range != analytics.RangeWeekly {
			t.Fatalf("expected weekly fallback, got %q", trends.Range)
		}
		if len(trends.Data) != 1 {
			t.Fatalf("expected one day, got %+v", trends.Data)
		}
		point := trends.Data[0]
		if point.Date != time.Now().UTC().Format(time.DateOnly) {
			t.Fatalf("unexpected date %s", point.Date)
		}
		if point.Created != 3 || point.Completed != 1 || point.Overdue != 1 {
			t.Fatalf("unexpected point %+v", point)
		}
	})

	t.Run("old tasks fall outside the window", func(t *testing.T) {
		later := func() time.Time { return time.Now().AddDate(0, 0, 40) }
		uc := analytics.New(repos.Tasks, repos.Participants, nil).WithClock(later)
		trends, err := uc.Trends(context.Background(), owner.ID, "Monthly")
		if err != nil {
			t.Fatalf("trends: %v", err)
		}
		if trends.Range != analytics.RangeMonthly || len(trends.Data) != 0 {
			t.Fatalf("expected empty monthly trends, got %+v", trends)
		}
	})
}

func TestStatusBreakdown(t *testing.T) {
	repos, owner, _ := seed(t)
	uc := analytics.New(repos.Tasks, repos.Participants, nil)

	rows, err := uc.StatusBreakdown(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	want := map[domain.TaskStatus][2]int{
		domain.StatusPending:    {2, 67},
		domain.StatusInProgress: {0, 0},
		domain.StatusCompleted:  {1, 33},
	}
	if len(rows) != 3 {
		t.Fatalf("expected three rows, got %d", len(rows))
	}
	for i, row := range rows {
		if row.Status != domain.Statuses[i] {
			t.Fatalf("row %d out of order: %s", i, row.Status)
		}
		if got := [2]int{row.Count, row.Percentage}; got != want[row.Status] {
			t.Fatalf("%s: got %v want %v", row.Status, got, want[row.Status])
		}
	}

	t.Run("no tasks", func(t *testing.T) {
		stranger := repos.CreateUser(t, "stranger")
		rows, err := uc.StatusBreakdown(context.Background(), stranger.ID)
		if err != nil {
			t.Fatalf("breakdown: %v", err)
		}
		for _, row := range rows {
			if row.Count != 0 || row.Percentage != 0 {
				t.Fatalf("expected zero row, got %+v", row)
			}
		}
	})
}

func TestParticipantProgress(t *testing.T) {
	repos, owner, bob := seed(t)
	uc := analytics.New(repos.Tasks, repos.Participants, nil)

	p, err := uc.ParticipantProgress(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	// three owners plus bob, of which the first owner and bob completed
	if p.TotalParticipants != 4 || p.CompletedParticipants != 2 || p.OverallProgress != 50 {
		t.Fatalf("unexpected progress %+v", *p)
	}

	p, err = uc.ParticipantProgress(context.Background(), bob.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if p.TotalParticipants != 2 || p.CompletedParticipants != 2 || p.OverallProgress != 100 {
		t.Fatalf("unexpected progress for participant %+v", *p)
	}
}

func TestNormalizeRange(t *testing.T) {
	cases := map[string]string{
		"":          analytics.RangeWeekly,
		"weekly":    analytics.RangeWeekly,
		" MONTHLY ": analytics.RangeMonthly,
		"yearly":    analytics.RangeWeekly,
	}
	for in, want := range cases {
		if got := analytics.NormalizeRange(in); got != want {
			t.Errorf("NormalizeRange(%q) = %q, want %q", in, got, want)
		}
	}
}
