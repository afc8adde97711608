package domain

import "time"

// Permissions is the fixed set of actions a viewer may take on a task.
type Permissions struct {
	CanEdit           bool `json:"canEdit"`
	CanDelete         bool `json:"canDelete"`
	CanUpdateProgress bool `json:"canUpdateProgress"`
	CanShare          bool `json:"canShare"`
}

// PermissionsFor derives a viewer's permissions from their role on the task.
// participation is nil when the viewer is the owner or has no row.
func PermissionsFor(isOwner bool, participation *Participant) Permissions {
	full := participation != nil && participation.AccessLevel == AccessFull
	return Permissions{
		CanEdit:           isOwner || full,
		CanDelete:         isOwner || full,
		CanUpdateProgress: isOwner || participation != nil,
		CanShare:          isOwner,
	}
}

// Progress is the completion summary over the owner and every participant.
type Progress struct {
	Total     int
	Completed int
	Percent   int
}

// ProgressOf counts the owner as one member and rounds half up.
func ProgressOf(ownerStatus TaskStatus, participants []Participant) Progress {
	total := len(participants) + 1
	completed := 0
	if ownerStatus == StatusCompleted {
		completed++
	}
	for _, p := range participants {
		if p.Status == StatusCompleted {
			completed++
		}
	}
	return Progress{Total: total, Completed: completed, Percent: Percentage(completed, total)}
}

// Percentage returns round(part/total*100) with halves rounded up, or 0 when
// total is not positive.
func Percentage(part, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*part + total) / (2 * total)
}

// OwnerView is the owner block of a task payload.
type OwnerView struct {
	ID       int64      `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Status   TaskStatus `json:"status"`
}

// ParticipantView is a participant as seen by a particular viewer.
type ParticipantView struct {
	ID            int64       `json:"id"`
	Username      string      `json:"username"`
	Email         string      `json:"email"`
	AccessLevel   AccessLevel `json:"accessLevel"`
	Status        TaskStatus  `json:"status"`
	IsCurrentUser bool        `json:"isCurrentUser"`
}

// TaskView is the per-viewer task payload. It is derived, never stored.
type TaskView struct {
	ID                    int64             `json:"id"`
	Title                 string            `json:"title"`
	Description           *string           `json:"description"`
	Status                TaskStatus        `json:"status"`
	ViewerStatus          TaskStatus        `json:"viewerStatus"`
	OwnerStatus           TaskStatus        `json:"ownerStatus"`
	DueDate               *time.Time        `json:"due_date"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
	Owner                 OwnerView         `json:"owner"`
	IsOwner               bool              `json:"isOwner"`
	Participants          []ParticipantView `json:"participants"`
	TotalParticipants     int               `json:"totalParticipants"`
	CompletedParticipants int               `json:"completedParticipants"`
	OverallProgress       int               `json:"overallProgress"`
	Permissions           Permissions       `json:"permissions"`
	ViewerAccessLevel     *AccessLevel      `json:"viewerAccessLevel"`
}

// CanView reports whether viewerID owns the task or holds a participation row.
func CanView(task *Task, participants []Participant, viewerID int64) bool {
	if task == nil {
		return false
	}
	return task.OwnerID == viewerID || findParticipant(participants, viewerID) != nil
}

// ComputeView builds the payload of task for viewerID. It has no side effects.
// A non-owner viewer without a participation row is a caller bug and yields
// ErrViewerNotParticipant.
func ComputeView(task *Task, participants []Participant, viewerID int64) (*TaskView, error) {
	if task == nil {
		return nil, ErrTaskNotFound
	}

	isOwner := task.OwnerID == viewerID
	var viewerRow *Participant
	if !isOwner {
		viewerRow = findParticipant(participants, viewerID)
		if viewerRow == nil {
			return nil, ErrViewerNotParticipant
		}
	}

	var (
		viewerStatus TaskStatus
		viewerAccess AccessLevel
	)
	if isOwner {
		viewerStatus = task.Status
		viewerAccess = AccessOwner
	} else {
		viewerStatus = viewerRow.Status
		viewerAccess = viewerRow.AccessLevel
	}

	views := make([]ParticipantView, 0, len(participants))
	for _, p := range participants {
		views = append(views, ParticipantView{
			ID:            p.UserID,
			Username:      p.Username,
			Email:         p.Email,
			AccessLevel:   p.AccessLevel,
			Status:        p.Status,
			IsCurrentUser: p.UserID == viewerID,
		})
	}

	progress := ProgressOf(task.Status, participants)

	return &TaskView{
		ID:           task.ID,
		Title:        task.Title,
		Description:  cloneString(task.Description),
		Status:       viewerStatus,
		ViewerStatus: viewerStatus,
		OwnerStatus:  task.Status,
		DueDate:      cloneTime(task.DueDate),
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
		Owner: OwnerView{
			ID:       task.OwnerID,
			Username: task.Owner.Username,
			Email:    task.Owner.Email,
			Status:   task.Status,
		},
		IsOwner:               isOwner,
		Participants:          views,
		TotalParticipants:     progress.Total,
		CompletedParticipants: progress.Completed,
		OverallProgress:       progress.Percent,
		Permissions:           PermissionsFor(isOwner, viewerRow),
		ViewerAccessLevel:     &viewerAccess,
	}, nil
}

func findParticipant(participants []Participant, userID int64) *Participant {
	for i := range participants {
		if participants[i].UserID == userID {
			p := participants[i]
			return &p
		}
	}
	return nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
