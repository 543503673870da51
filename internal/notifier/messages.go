package notifier

import (
	"fmt"

	"taskShare/internal/models/task"
)

// Reason классифицирует точечное уведомление
type Reason string

const (
	ReasonCreated   Reason = "created"
	ReasonUpdated   Reason = "updated"
	ReasonShared    Reason = "shared"
	ReasonCompleted Reason = "completed"
)

// Тексты писем фиксированы, получатели привыкли к этому формату.
// Пустое описание оставляет в напоминании пустую строку.
const deadlineBodyTemplate = `Hello!

This is a reminder that your task is due soon:

Task: %s
Status: %s
Priority: %s
Deadline: %s UTC
Time Remaining: ~%d hours

%s

Please make sure to complete this task before the deadline.

Best regards,
Task Manager System`

func deadlineSubject(t *task.Task) string {
	return "Task Deadline Reminder: " + t.Title
}

func deadlineBody(t *task.Task, hoursRemaining int) string {
	descriptionLine := ""
	if t.Description != "" {
		descriptionLine = "Description: " + t.Description
	}

	return fmt.Sprintf(deadlineBodyTemplate,
		t.Title,
		t.Status.Display(),
		t.Priority.Display(),
		t.Deadline.UTC().Format("2006-01-02 15:04"),
		hoursRemaining,
		descriptionLine,
	)
}

// pointMessage подбирает тему и тело по причине уведомления,
// неизвестная причина даёт общий текст
func pointMessage(t *task.Task, reason Reason, ownerEmail string) (string, string) {
	switch reason {
	case ReasonCreated:
		return "New Task Created: " + t.Title,
			fmt.Sprintf("Task: %s\nPriority: %s", t.Title, t.Priority.Display())
	case ReasonUpdated:
		return "Task Updated: " + t.Title,
			fmt.Sprintf("Task: %s\nStatus: %s", t.Title, t.Status.Display())
	case ReasonShared:
		return "Task Shared: " + t.Title,
			fmt.Sprintf("Owner: %s\nTask: %s", ownerEmail, t.Title)
	case ReasonCompleted:
		return "Task Completed: " + t.Title,
			fmt.Sprintf("Task: %s has been completed", t.Title)
	default:
		return "Task Notification: " + t.Title,
			fmt.Sprintf("Task: %s", t.Title)
	}
}
