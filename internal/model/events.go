package model

import "time"

// RepertoireEntity is the entity id of events that replace the whole repertoire.
const RepertoireEntity ID = "repertoire"

type Event struct {
	ID       string    `json:"id" yaml:"id"`
	TS       time.Time `json:"ts" yaml:"ts"`
	Type     string    `json:"type" yaml:"type"`
	EntityID string    `json:"entityId" yaml:"entityId"`
	Payload  any       `json:"payload" yaml:"payload"`
}

// TrainingResult is one finished or abandoned run through a line.
type TrainingResult struct {
	ID         string    `json:"id" yaml:"id"`
	LineID     ID        `json:"lineId" yaml:"lineId"`
	StartedAt  time.Time `json:"startedAt" yaml:"startedAt"`
	FinishedAt time.Time `json:"finishedAt" yaml:"finishedAt"`
	Attempts   int       `json:"attempts" yaml:"attempts"`
	Mistakes   int       `json:"mistakes" yaml:"mistakes"`
	Completed  bool      `json:"completed" yaml:"completed"`
}
