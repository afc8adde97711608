package analytics

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/repository"
)

// Trend ranges.
const (
	RangeWeekly  = "weekly"
	RangeMonthly = "monthly"
)

type Summary struct {
	TotalTasks              int `json:"totalTasks"`
	CompletedTasks          int `json:"completedTasks"`
	PendingTasks            int `json:"pendingTasks"`
	InProgressTasks         int `json:"inProgressTasks"`
	OverdueTasks            int `json:"overdueTasks"`
	TasksCreatedThisWeek    int `json:"tasksCreatedThisWeek"`
	TasksCompletedThisWeek  int `json:"tasksCompletedThisWeek"`
	TasksCreatedThisMonth   int `json:"tasksCreatedThisMonth"`
	TasksCompletedThisMonth int `json:"tasksCompletedThisMonth"`
}

type TrendPoint struct {
	Date      string `json:"date"`
	Created   int    `json:"created"`
	Completed int    `json:"completed"`
	Overdue   int    `json:"overdue"`
}

type Trends struct {
	Range string       `json:"range"`
	Data  []TrendPoint `json:"data"`
}

type StatusCount struct {
	Status     domain.TaskStatus `json:"status"`
	Count      int               `json:"count"`
	Percentage int               `json:"percentage"`
}

type ParticipantProgress struct {
	TotalParticipants     int `json:"totalParticipants"`
	CompletedParticipants int `json:"completedParticipants"`
	OverallProgress       int `json:"overallProgress"`
}

// UseCase aggregates statistics over the tasks a viewer can see. All
// calendar math is done in UTC.
type UseCase struct {
	tasks        repository.TaskRepository
	participants repository.ParticipantRepository
	now          func() time.Time
	logger       *zap.Logger
}

func New(tasks repository.TaskRepository, participants repository.ParticipantRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:        tasks,
		participants: participants,
		now:          time.Now,
		logger:       logger,
	}
}

// WithClock replaces the time source.
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

func (uc *UseCase) Summary(ctx context.Context, viewerID int64) (*Summary, error) {
	tasks, err := uc.tasks.ListForViewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	today := day(uc.now())
	weekStart := today.AddDate(0, 0, -weekday(today))
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	var s Summary
	for _, t := range tasks {
		s.TotalTasks++
		switch t.Status {
		case domain.StatusCompleted:
			s.CompletedTasks++
		case domain.StatusPending:
			s.PendingTasks++
		case domain.StatusInProgress:
			s.InProgressTasks++
		}
		if t.DueDate != nil && day(*t.DueDate).Before(today) && !t.IsCompleted() {
			s.OverdueTasks++
		}
		created := t.CreatedAt.UTC()
		updated := t.UpdatedAt.UTC()
		if !created.Before(weekStart) {
			s.TasksCreatedThisWeek++
		}
		if !created.Before(monthStart) {
			s.TasksCreatedThisMonth++
		}
		if t.IsCompleted() && !updated.Before(weekStart) {
			s.TasksCompletedThisWeek++
		}
		if t.IsCompleted() && !updated.Before(monthStart) {
			s.TasksCompletedThisMonth++
		}
	}
	return &s, nil
}

// Trends buckets tasks created in the last 7 (weekly) or 30 (monthly) days by
// creation date, ascending. Days without tasks are omitted.
func (uc *UseCase) Trends(ctx context.Context, viewerID int64, rangeName string) (*Trends, error) {
	rangeName = NormalizeRange(rangeName)
	interval := 7
	if rangeName == RangeMonthly {
		interval = 30
	}

	tasks, err := uc.tasks.ListForViewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	since := day(uc.now()).AddDate(0, 0, -interval)
	buckets := make(map[string]*TrendPoint)
	for _, t := range tasks {
		created := day(t.CreatedAt)
		if created.Before(since) {
			continue
		}
		key := created.Format(time.DateOnly)
		point, ok := buckets[key]
		if !ok {
			point = &TrendPoint{Date: key}
			buckets[key] = point
		}
		point.Created++
		if t.IsCompleted() {
			point.Completed++
		} else if t.DueDate != nil && day(*t.DueDate).Before(created) {
			point.Overdue++
		}
	}

	data := make([]TrendPoint, 0, len(buckets))
	for _, p := range buckets {
		data = append(data, *p)
	}
	sort.Slice(data, func(i, j int) bool { return data[i].Date < data[j].Date })

	return &Trends{Range: rangeName, Data: data}, nil
}

// StatusBreakdown always reports the three statuses in display order.
func (uc *UseCase) StatusBreakdown(ctx context.Context, viewerID int64) ([]StatusCount, error) {
	tasks, err := uc.tasks.ListForViewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.TaskStatus]int, len(domain.Statuses))
	for _, t := range tasks {
		counts[t.Status]++
	}

	breakdown := make([]StatusCount, 0, len(domain.Statuses))
	for _, status := range domain.Statuses {
		breakdown = append(breakdown, StatusCount{
			Status:     status,
			Count:      counts[status],
			Percentage: domain.Percentage(counts[status], len(tasks)),
		})
	}
	return breakdown, nil
}

// ParticipantProgress counts one member per visible task plus one per
// participation row on those tasks.
func (uc *UseCase) ParticipantProgress(ctx context.Context, viewerID int64) (*ParticipantProgress, error) {
	tasks, err := uc.tasks.ListForViewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	byTask, err := uc.participants.List(ctx, ids)
	if err != nil {
		return nil, err
	}

	var out ParticipantProgress
	for _, t := range tasks {
		progress := domain.ProgressOf(t.Status, byTask[t.ID])
		out.TotalParticipants += progress.Total
		out.CompletedParticipants += progress.Completed
	}
	out.OverallProgress = domain.Percentage(out.CompletedParticipants, out.TotalParticipants)
	return &out, nil
}

// NormalizeRange maps anything other than "monthly" to weekly.
func NormalizeRange(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), RangeMonthly) {
		return RangeMonthly
	}
	return RangeWeekly
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// weekday counts days since Monday.
func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
