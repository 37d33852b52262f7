package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/logger"
)

// TaskStore is the durable task collection. It is authoritative for task
// existence.
type TaskStore interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	FindByTitleFold(ctx context.Context, title string) (*domain.Task, error)
	List(ctx context.Context) ([]*domain.Task, error)
	ListByIDs(ctx context.Context, ids []string) ([]*domain.Task, error)
	ListCompletedByOwner(ctx context.Context, owner int64) ([]*domain.Task, error)
	Insert(ctx context.Context, t *domain.Task) error
	Update(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, id string) error
}

// OwnerStore maintains the denormalized task-id set on user records.
type OwnerStore interface {
	AppendTaskID(ctx context.Context, userID int64, taskID string) error
	RemoveTaskID(ctx context.Context, userID int64, taskID string) error
	TaskIDs(ctx context.Context, userID int64) ([]string, error)
}

// Action names a task operation for authorization purposes.
type Action string

const (
	ActionRead           Action = "read"
	ActionUpdate         Action = "update"
	ActionDelete         Action = "delete"
	ActionToggleComplete Action = "toggleComplete"
)

// TaskService decides whether a principal may perform a task operation and
// carries out the coordinated writes across the task and user stores.
type TaskService struct {
	tasks  TaskStore
	owners OwnerStore
}

func NewTaskService(tasks TaskStore, owners OwnerStore) *TaskService {
	return &TaskService{tasks: tasks, owners: owners}
}

// authorize is the single ownership check behind every per-task operation.
// Admins get no exemption here; the unrestricted listing path is ListAll.
func (s *TaskService) authorize(p domain.Principal, t *domain.Task, _ Action) error {
	if t.CreatedBy != p.ID {
		return domain.ErrForbidden
	}
	return nil
}

// TaskDraft is the caller-supplied input for Create.
type TaskDraft struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
}

// Create persists a new task owned by the principal and registers its id on
// the owner's record. Titles are unique case-insensitively across all users.
// The uniqueness check and the insert are separate statements; two
// concurrent creates with the same title can both pass the check.
func (s *TaskService) Create(ctx context.Context, p domain.Principal, draft TaskDraft) (*domain.Task, error) {
	title := strings.TrimSpace(draft.Title)
	description := strings.TrimSpace(draft.Description)
	category := strings.TrimSpace(draft.Category)

	switch {
	case title == "":
		return nil, domain.Missing("title")
	case description == "":
		return nil, domain.Missing("description")
	case category == "":
		return nil, domain.Missing("category")
	}

	if _, err := s.tasks.FindByTitleFold(ctx, title); err == nil {
		return nil, domain.ErrDuplicateTitle
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	status := draft.Status
	if status == "" {
		status = domain.StatusPending
	} else if !domain.ValidStatus(status) {
		return nil, domain.Invalid("status")
	}

	t := &domain.Task{
		Title:       title,
		Description: description,
		Category:    category,
		Status:      status,
		Priority:    domain.PriorityMedium,
		DueDate:     draft.DueDate,
		CreatedBy:   p.ID,
	}
	if err := s.tasks.Insert(ctx, t); err != nil {
		return nil, err
	}

	// The task write is committed; a failure registering the id on the
	// owner is reported but never rolled back.
	if err := s.owners.AppendTaskID(ctx, p.ID, t.ID); err != nil {
		logger.Error("task created but owner registration failed",
			"task_id", t.ID, "user_id", p.ID, "error", err)
	}

	return t, nil
}

// ListAll returns every task regardless of owner. Admin only.
func (s *TaskService) ListAll(ctx context.Context, p domain.Principal) ([]*domain.Task, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.tasks.List(ctx)
}

// ListMine resolves the principal's tasks through the user record's id set.
// Ids that no longer resolve to a task are skipped, not reported.
func (s *TaskService) ListMine(ctx context.Context, p domain.Principal) ([]*domain.Task, error) {
	ids, err := s.owners.TaskIDs(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return s.tasks.ListByIDs(ctx, ids)
}

// GetOne returns a single task. Missing tasks surface before the ownership
// check, so a caller can distinguish "not found" from "not yours".
func (s *TaskService) GetOne(ctx context.Context, p domain.Principal, taskID string) (*domain.Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(p, t, ActionRead); err != nil {
		return nil, err
	}
	return t, nil
}

// TaskPatch carries partial-update values. Empty strings and nil dates mean
// "keep the previous value", for every field.
type TaskPatch struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
}

func (s *TaskService) Update(ctx context.Context, p domain.Principal, taskID string, patch TaskPatch) (*domain.Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(p, t, ActionUpdate); err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(patch.Title); v != "" {
		t.Title = v
	}
	if v := strings.TrimSpace(patch.Description); v != "" {
		t.Description = v
	}
	if v := strings.TrimSpace(patch.Category); v != "" {
		t.Category = v
	}
	if patch.Status != "" {
		if !domain.ValidStatus(patch.Status) {
			return nil, domain.Invalid("status")
		}
		t.Status = patch.Status
	}
	if patch.Priority != "" {
		if !domain.ValidPriority(patch.Priority) {
			return nil, domain.Invalid("priority")
		}
		t.Priority = patch.Priority
	}
	if patch.DueDate != nil {
		t.DueDate = patch.DueDate
	}

	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes the task, then pulls its id from the owner's set. The two
// writes are independent: if the pull fails the delete stands, and ListMine
// tolerates the leftover id.
func (s *TaskService) Delete(ctx context.Context, p domain.Principal, taskID string) error {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.authorize(p, t, ActionDelete); err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return err
	}

	if err := s.owners.RemoveTaskID(ctx, p.ID, taskID); err != nil {
		logger.Error("task deleted but owner set still references it",
			"task_id", taskID, "user_id", p.ID, "error", err)
	}
	return nil
}

// ToggleCompleted flips isCompleted and sets status to completed on every
// call, including the one that flips isCompleted back off. Downstream
// clients read both fields, so the combination is preserved as stored
// behavior rather than normalized.
func (s *TaskService) ToggleCompleted(ctx context.Context, p domain.Principal, taskID string) (*domain.Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(p, t, ActionToggleComplete); err != nil {
		return nil, err
	}

	t.IsCompleted = !t.IsCompleted
	t.Status = domain.StatusCompleted

	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListCompleted returns the principal's completed tasks. An empty result is
// an error, not an empty list.
func (s *TaskService) ListCompleted(ctx context.Context, p domain.Principal) ([]*domain.Task, error) {
	tasks, err := s.tasks.ListCompletedByOwner(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, domain.ErrNoCompletedTasks
	}
	return tasks, nil
}
