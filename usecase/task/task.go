package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/pkg/logger"
	"github.com/fastygo/taskshare/repository"
	"github.com/fastygo/taskshare/usecase"
)

// Notification types produced by task mutations.
const (
	TypeTaskUpdated  = "task_updated"
	TypeTaskShared   = "task_shared"
	TypeTaskProgress = "task_progress"
)

// CreateInput is a task creation request as received from a client.
type CreateInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	DueDate     *string `json:"due_date"`
}

// ShareInput names the target by identifier (email or username). Email is
// accepted as a fallback field.
type ShareInput struct {
	Identifier  string `json:"identifier"`
	Email       string `json:"email"`
	AccessLevel string `json:"accessLevel"`
}

type UseCase struct {
	tasks        repository.TaskRepository
	participants repository.ParticipantRepository
	users        repository.UserRepository
	notifier     usecase.Notifier
	logger       *zap.Logger
}

func New(
	tasks repository.TaskRepository,
	participants repository.ParticipantRepository,
	users repository.UserRepository,
	notifier usecase.Notifier,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:        tasks,
		participants: participants,
		users:        users,
		notifier:     notifier,
		logger:       logger,
	}
}

// ListTasksForViewer returns every task the viewer owns or participates in,
// newest first, each shaped for that viewer.
func (uc *UseCase) ListTasksForViewer(ctx context.Context, viewerID int64) ([]domain.TaskView, error) {
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

	views := make([]domain.TaskView, 0, len(tasks))
	for i := range tasks {
		view, err := domain.ComputeView(&tasks[i], byTask[tasks[i].ID], viewerID)
		if err != nil {
			return nil, fmt.Errorf("shaping task %d for viewer %d: %w", tasks[i].ID, viewerID, err)
		}
		views = append(views, *view)
	}
	return views, nil
}

func (uc *UseCase) GetTask(ctx context.Context, taskID, viewerID int64) (*domain.TaskView, error) {
	view, _, err := uc.load(ctx, taskID, viewerID)
	return view, err
}

func (uc *UseCase) CreateTask(ctx context.Context, viewerID int64, input CreateInput) (*domain.TaskView, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.ErrTitleRequired
	}

	status := domain.StatusPending
	if strings.TrimSpace(input.Status) != "" {
		parsed, err := domain.ParseStatus(input.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	dueDate, err := parseOptionalDate(input.DueDate)
	if err != nil {
		return nil, err
	}

	created, err := uc.tasks.Create(ctx, domain.NewTask{
		OwnerID:     viewerID,
		Title:       title,
		Description: normalizeDescription(input.Description),
		Status:      status,
		DueDate:     dueDate,
	})
	if err != nil {
		return nil, err
	}

	return domain.ComputeView(created, nil, viewerID)
}

// UpdateTask applies a partial update. Only fields present in the patch are
// touched; explicit nulls clear description and due date.
func (uc *UseCase) UpdateTask(ctx context.Context, taskID int64, actor domain.Principal, patch domain.TaskPatch) (*domain.TaskView, error) {
	access, _, err := uc.load(ctx, taskID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !access.Permissions.CanEdit {
		return nil, domain.ErrEditDenied
	}

	changes, err := changesFromPatch(patch)
	if err != nil {
		return nil, err
	}

	if err := uc.tasks.Update(ctx, taskID, changes); err != nil {
		return nil, err
	}

	view, participants, err := uc.load(ctx, taskID, actor.ID)
	if err != nil {
		return nil, err
	}

	metadata := domain.NewMetadata().Set("action", "update")
	if changes.Status != nil {
		metadata.Set("status", string(*changes.Status))
	}
	uc.notifyTaskParticipants(ctx, view, participants, actor, domain.NotificationInput{
		Type:     TypeTaskUpdated,
		Title:    "Task updated",
		Message:  fmt.Sprintf("%s updated %q.", actor.DisplayName(), view.Title),
		Metadata: metadata,
	})

	return view, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, taskID, viewerID int64) error {
	access, _, err := uc.load(ctx, taskID, viewerID)
	if err != nil {
		return err
	}
	if !access.Permissions.CanDelete {
		return domain.ErrDeleteDenied
	}
	return uc.tasks.Delete(ctx, taskID)
}

// ShareTask grants the target user a Pending participation and notifies only
// that user. The returned view is the owner's.
func (uc *UseCase) ShareTask(ctx context.Context, taskID int64, actor domain.Principal, input ShareInput) (*domain.TaskView, error) {
	lookup := strings.TrimSpace(input.Identifier)
	if lookup == "" {
		lookup = strings.TrimSpace(input.Email)
	}
	if lookup == "" {
		return nil, domain.ErrShareIdentifierNeeded
	}
	level := domain.NormalizeAccessLevel(input.AccessLevel)

	task, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != actor.ID {
		return nil, domain.ErrNotOwner
	}

	target, err := uc.users.FindByIdentifier(ctx, lookup)
	if err != nil {
		return nil, err
	}
	if target.ID == actor.ID {
		return nil, domain.ErrSelfShare
	}

	if err := uc.participants.Add(ctx, domain.Participation{
		TaskID:      taskID,
		UserID:      target.ID,
		AccessLevel: level,
		Status:      domain.StatusPending,
		InvitedBy:   actor.ID,
	}); err != nil {
		return nil, err
	}

	if uc.notifier != nil {
		taskRef := taskID
		uc.notifier.DeliverOrDefer(ctx, domain.NotificationInput{
			UserID:  target.ID,
			TaskID:  &taskRef,
			Type:    TypeTaskShared,
			Title:   "Task shared with you",
			Message: fmt.Sprintf("%s shared %q with you.", actor.DisplayName(), task.Title),
			Metadata: domain.NewMetadata().
				Set("taskId", taskID).
				Set("taskTitle", task.Title).
				Set("actorId", actor.ID).
				Set("actorName", actor.DisplayName()).
				Set("accessLevel", string(level)),
		})
	}

	view, _, err := uc.load(ctx, taskID, actor.ID)
	return view, err
}

// UpdateProgress records the viewer's own status: the task status column for
// the owner, the participation row for everyone else.
func (uc *UseCase) UpdateProgress(ctx context.Context, taskID int64, actor domain.Principal, rawStatus string) (*domain.TaskView, error) {
	status, err := domain.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	access, _, err := uc.load(ctx, taskID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !access.Permissions.CanUpdateProgress {
		return nil, domain.ErrProgressDenied
	}

	if access.IsOwner {
		err = uc.tasks.SetStatus(ctx, taskID, status)
	} else {
		err = uc.participants.SetStatus(ctx, taskID, actor.ID, status)
	}
	if err != nil {
		return nil, err
	}

	view, participants, err := uc.load(ctx, taskID, actor.ID)
	if err != nil {
		return nil, err
	}

	uc.notifyTaskParticipants(ctx, view, participants, actor, domain.NotificationInput{
		Type:    TypeTaskProgress,
		Title:   "Progress updated",
		Message: fmt.Sprintf("%s updated progress on %q to %s.", actor.DisplayName(), view.Title, status),
		Metadata: domain.NewMetadata().
			Set("action", "progress").
			Set("status", string(status)),
	})

	return view, nil
}

// load fetches a task and its participants and shapes it for viewerID.
// A missing task is NotFound; a task the viewer cannot see is Forbidden.
func (uc *UseCase) load(ctx context.Context, taskID, viewerID int64) (*domain.TaskView, []domain.Participant, error) {
	task, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}

	byTask, err := uc.participants.List(ctx, []int64{taskID})
	if err != nil {
		return nil, nil, err
	}
	participants := byTask[taskID]

	if !domain.CanView(task, participants, viewerID) {
		return nil, nil, domain.ErrTaskAccessDenied
	}

	view, err := domain.ComputeView(task, participants, viewerID)
	if err != nil {
		return nil, nil, err
	}
	return view, participants, nil
}

// notifyTaskParticipants sends input to the owner and every participant
// except the actor. Delivery failures never reach the caller.
func (uc *UseCase) notifyTaskParticipants(
	ctx context.Context,
	view *domain.TaskView,
	participants []domain.Participant,
	actor domain.Principal,
	input domain.NotificationInput,
) {
	if uc.notifier == nil {
		return
	}

	recipients := Recipients(view.Owner.ID, participants, actor.ID)
	if len(recipients) == 0 {
		return
	}

	taskID := view.ID
	input.TaskID = &taskID
	metadata := domain.NewMetadata().
		Set("taskId", view.ID).
		Set("taskTitle", view.Title).
		Set("actorId", actor.ID).
		Set("actorName", actor.DisplayName())
	input.Metadata = metadata.Merge(input.Metadata)

	delivered := uc.notifier.NotifyUsers(ctx, recipients, input)
	logger.WithRequestID(ctx, uc.logger).Debug("task participants notified",
		zap.Int64("task_id", view.ID),
		zap.String("type", input.Type),
		zap.Int("recipients", len(recipients)),
		zap.Int("delivered", len(delivered)),
	)
}

// Recipients is owner plus participants, minus actor, without duplicates.
func Recipients(ownerID int64, participants []domain.Participant, actorID int64) []int64 {
	seen := make(map[int64]struct{}, len(participants)+1)
	out := make([]int64, 0, len(participants)+1)
	add := func(id int64) {
		if id == actorID {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	add(ownerID)
	for _, p := range participants {
		add(p.UserID)
	}
	return out
}

func changesFromPatch(patch domain.TaskPatch) (domain.TaskChanges, error) {
	var changes domain.TaskChanges

	if patch.Title.Present {
		title := strings.TrimSpace(patch.Title.Value)
		if title == "" {
			return changes, domain.ErrTitleRequired
		}
		changes.Title = &title
	}

	if patch.Description.Present {
		if desc := normalizeDescription(patch.Description.Value); desc != nil {
			changes.Description = desc
		} else {
			changes.ClearDescription = true
		}
	}

	if patch.Status.Present {
		status, err := domain.ParseStatus(patch.Status.Value)
		if err != nil {
			return changes, err
		}
		changes.Status = &status
	}

	if patch.DueDate.Present {
		due, err := parseOptionalDate(patch.DueDate.Value)
		if err != nil {
			return changes, err
		}
		if due != nil {
			changes.DueDate = due
		} else {
			changes.ClearDueDate = true
		}
	}

	if changes.Empty() {
		return changes, domain.ErrEmptyUpdate
	}
	return changes, nil
}

func normalizeDescription(desc *string) *string {
	if desc == nil || *desc == "" {
		return nil
	}
	v := *desc
	return &v
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	return domain.ParseDueDate(*raw)
}

