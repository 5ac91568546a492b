package handoff

import (
	"context"
	"encoding/json"
	"errors"

	"voice-relay-server/src/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DBSink 任务记录写入数据库
type DBSink struct {
	db *gorm.DB
}

func NewDBSink(db *gorm.DB) *DBSink {
	return &DBSink{db: db}
}

func (s *DBSink) Name() string { return "db" }

func (s *DBSink) Dispatch(ctx context.Context, task Task) error {
	attrs, err := json.Marshal(task.Descriptor)
	if err != nil {
		return err
	}
	row := models.HandoffTask{
		TaskID:        task.ID,
		CallSid:       task.Descriptor.CallSid,
		CallerAddress: task.Descriptor.From,
		Reason:        task.Descriptor.EscalationReason,
		Attributes:    datatypes.JSON(attrs),
		CreatedAt:     task.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *DBSink) lookup(ctx context.Context, taskID string) (string, error) {
	var row models.HandoffTask
	err := s.db.WithContext(ctx).Where("task_id = ?", taskID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrUnknownConversation
	}
	if err != nil {
		return "", err
	}
	return row.CallSid, nil
}
