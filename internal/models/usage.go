package models

import "time"

// UsageKind категория платной операции.
type UsageKind string

// Виды генерации.
const (
	KindContent UsageKind = "content"
	KindCode    UsageKind = "code"
)

// UsageRecord запись об одной выполненной платной операции.
type UsageRecord struct {
	ID             string    `json:"id"`
	AccountUID     string    `json:"account_uid"`
	Kind           UsageKind `json:"kind"`
	PayloadSummary string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}
