// Package audit appends every trigger and enforcement outcome to a JSON
// lines file. Writes are asynchronous and lossy under sustained back
// pressure; the audit trail must never slow the event path.
package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/BecasLan/BecasScore-sub005/internal/logging"
	"github.com/BecasLan/BecasScore-sub005/internal/models"
)

type Entry struct {
	Timestamp     time.Time            `json:"timestamp"`
	Kind          string               `json:"kind"`
	WatchID       string               `json:"watch_id,omitempty"`
	ScopeID       string               `json:"scope_id,omitempty"`
	UserID        string               `json:"user_id,omitempty"`
	ConditionType models.ConditionType `json:"condition_type,omitempty"`
	Evidence      string               `json:"evidence,omitempty"`
	Confidence    float64              `json:"confidence,omitempty"`
	Action        models.ActionKind    `json:"action,omitempty"`
	Status        string               `json:"status,omitempty"`
	Detail        string               `json:"detail,omitempty"`
}

type Log struct {
	file   *os.File
	buffer chan []byte
	done   chan struct{}
}

func NewLog(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	l := &Log{
		file:   file,
		buffer: make(chan []byte, 4096),
		done:   make(chan struct{}),
	}
	go l.writeLoop()
	return l, nil
}

func (l *Log) Trigger(event models.TriggerEvent) {
	l.append(Entry{
		Timestamp:     event.Timestamp,
		Kind:          "trigger",
		WatchID:       event.WatchID,
		ScopeID:       event.ScopeID,
		UserID:        event.UserID,
		ConditionType: event.ConditionType,
		Evidence:      event.Evidence,
		Confidence:    event.Confidence,
	})
}

func (l *Log) Enforcement(watchID string, result models.ExecutionResult) {
	l.append(Entry{
		Timestamp: time.Now(),
		Kind:      "enforcement",
		WatchID:   watchID,
		UserID:    result.UserID,
		Action:    result.Kind,
		Status:    result.Status.String(),
		Detail:    result.Message,
	})
}

func (l *Log) append(entry Entry) {
	raw, err := json.Marshal(entry)
	if err != nil {
		logging.Error("audit marshal failed: %v", err)
		return
	}
	raw = append(raw, '\n')

	select {
	case l.buffer <- raw:
	default:
		// Full buffer drops the entry rather than blocking enforcement.
	}
}

func (l *Log) writeLoop() {
	for {
		select {
		case raw := <-l.buffer:
			_, _ = l.file.Write(raw)
		case <-l.done:
			for len(l.buffer) > 0 {
				raw := <-l.buffer
				_, _ = l.file.Write(raw)
			}
			return
		}
	}
}

func (l *Log) Close() error {
	close(l.done)
	return l.file.Close()
}
