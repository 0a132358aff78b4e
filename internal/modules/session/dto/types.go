package dto

import "time"

type StartInput struct {
	Prompt string
}

type StartOutput struct {
	SessionID string
	StartedAt time.Time
}

type StopInput struct {
	Prompt string
}

type FinalizeInput struct {
	SessionID string
	Prompt    string
}

type ReportOutput struct {
	SessionID string
	Path      string
	StartedAt time.Time
	EndedAt   time.Time
	Duration  time.Duration
	Summary   string
	Analyses  int
}

type ActiveSessionOutput struct {
	SessionID string
	StartedAt time.Time
	Phase     string
}
