package scheduler

import "time"

// Outcome говорит триггеру, что делать с прошедшей попыткой
type Outcome string

const (
	// OutcomeSuccess: проход состоялся, итог в Summary
	OutcomeSuccess Outcome = "success"
	// OutcomeRetry: проход сорвался, повторить через Delay
	OutcomeRetry Outcome = "retry"
	// OutcomeExhausted: попытки кончились, запуск признан неудачным
	OutcomeExhausted Outcome = "exhausted"
)

const statusSuccess = "success"

// RunSummary подводит итог одного прохода планировщика
type RunSummary struct {
	Status         string    `json:"status"`
	TasksProcessed int       `json:"tasks_processed"`
	EmailsSent     int       `json:"emails_sent"`
	Timestamp      time.Time `json:"timestamp"`
}

// RunResult описывает исход попытки вместе с инструкцией для
// вызывающего. Управление повторами выражено данными, а не паникой
// или скрытым состоянием.
type RunResult struct {
	Outcome     Outcome
	Summary     *RunSummary
	Attempt     int
	MaxAttempts int
	Delay       time.Duration
	Err         error
}
