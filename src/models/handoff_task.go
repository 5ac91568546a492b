package models

import (
	"time"

	"gorm.io/datatypes"
)

// HandoffTask 转人工任务记录，按任务ID反查呼叫ID
type HandoffTask struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	TaskID        string         `gorm:"uniqueIndex;size:64;not null" json:"task_id"`
	CallSid       string         `gorm:"index;size:64;not null" json:"call_sid"`
	CallerAddress string         `gorm:"size:64" json:"caller_address"`
	Reason        string         `gorm:"type:text" json:"reason"`
	Attributes    datatypes.JSON `json:"attributes"` // 完整任务描述
	CreatedAt     time.Time      `json:"created_at"`
}

func (HandoffTask) TableName() string { return "handoff_tasks" }
