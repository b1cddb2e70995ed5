package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrTitleRequired        = errors.New("title is required")
	ErrTitleEmpty           = errors.New("title cannot be empty")
	ErrInvalidTaskStatus    = errors.New("invalid task status")
	ErrSelfAssignmentOnly   = errors.New("members can only assign tasks to themselves")
	ErrInvalidTaskAssignee  = errors.New("assignee must be a member of the project")
	ErrTaskPermissionDenied = errors.New("only project owners and admins can modify this task")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	policy      membershipPolicy
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		policy:      membershipPolicy{projectRepo: projectRepo},
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	ProjectID   uint64
	Title       string
	Description string
	Status      models.TaskStatus
	DueDate     *time.Time
	AssigneeID  *uint64
	CreatorID   uint64
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	AssigneeID  *uint64
	DueDate     *time.Time
}

// ListTasksInput represents filters for listing a project's tasks
type ListTasksInput struct {
	ProjectID uint64
	Status    *models.TaskStatus
	Page      int
	PageSize  int
}

// CreateTask creates a task in a project. Plain members may only assign the
// task to themselves; owners and admins may pick any project member. An
// omitted assignee defaults to the creator.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	if input.Title == "" {
		return nil, ErrTitleRequired
	}

	member, err := s.policy.requireMember(input.ProjectID, input.CreatorID)
	if err != nil {
		return nil, err
	}

	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidTaskStatus
	}

	assigneeID := input.CreatorID
	if input.AssigneeID != nil {
		assigneeID = *input.AssigneeID
	}

	if member.Role == models.RoleMember {
		if assigneeID != input.CreatorID {
			return nil, ErrSelfAssignmentOnly
		}
	} else if assigneeID != input.CreatorID {
		if _, err := s.projectRepo.FindMember(input.ProjectID, assigneeID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidTaskAssignee
			}
			return nil, fmt.Errorf("failed to verify assignee membership: %w", err)
		}
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		DueDate:     input.DueDate,
		ProjectID:   input.ProjectID,
		AssigneeID:  assigneeID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, "Assignee")
}

// ListProjectTasks lists the tasks of a project. Membership is checked by the
// project access middleware before this is reached.
func (s *TaskService) ListProjectTasks(input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		ProjectID: &input.ProjectID,
		Status:    input.Status,
		Page:      input.Page,
		PageSize:  input.PageSize,
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// UpdateTask applies a partial update to a task. The actor must be owner or
// admin of the owning project; being the assignee grants nothing here.
func (s *TaskService) UpdateTask(taskID, actorID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.requireTaskManager(task.ProjectID, actorID); err != nil {
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, ErrTitleEmpty
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidTaskStatus
		}
		task.Status = *input.Status
	}
	if input.AssigneeID != nil {
		if _, err := s.projectRepo.FindMember(task.ProjectID, *input.AssigneeID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidTaskAssignee
			}
			return nil, fmt.Errorf("failed to verify assignee membership: %w", err)
		}
		task.AssigneeID = *input.AssigneeID
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, "Assignee")
}

// DeleteTask deletes a task. The actor must be owner or admin of the owning
// project.
func (s *TaskService) DeleteTask(taskID, actorID uint64) error {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.requireTaskManager(task.ProjectID, actorID); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// requireTaskManager folds both "not a member" and "member without rank"
// into a single permission error for task mutation.
func (s *TaskService) requireTaskManager(projectID, actorID uint64) error {
	if _, err := s.policy.requireManager(projectID, actorID); err != nil {
		if errors.Is(err, ErrNotProjectMember) || errors.Is(err, ErrNotProjectManager) {
			return ErrTaskPermissionDenied
		}
		return err
	}
	return nil
}
