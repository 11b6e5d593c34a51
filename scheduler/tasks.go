// Package scheduler runs the engine's periodic scans and delivers delayed
// reminders through an asynq queue.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskReminderDue = "reminders.due"

type ReminderDuePayload struct {
	ReminderID string `json:"reminderId"`
}

func NewReminderDueTask(payload ReminderDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReminderDue, data), nil
}

func ParseReminderDuePayload(task *asynq.Task) (ReminderDuePayload, error) {
	var payload ReminderDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ReminderDuePayload{}, err
	}
	return payload, nil
}
