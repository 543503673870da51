package task

import (
	"time"
)

// TaskOption - функция частичного обновления задачи
type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(task *Task) {
		task.Description = description
	}
}

func WithStatus(status Status) TaskOption {
	return func(task *Task) {
		if status == "" {
			return
		}
		task.Status = status
	}
}

func WithPriority(priority Priority) TaskOption {
	return func(task *Task) {
		if priority == "" {
			return
		}
		task.Priority = priority
	}
}

// WithDeadline с nil снимает дедлайн
func WithDeadline(deadline *time.Time) TaskOption {
	return func(task *Task) {
		task.Deadline = deadline
	}
}
