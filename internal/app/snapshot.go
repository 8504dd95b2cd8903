package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/gantt"
)

// SnapshotVersion identifies the export format.
const SnapshotVersion = "gantt.snapshot.v1"

// Snapshot is a portable export of the bound data and the computed chart geometry.
type Snapshot struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Data       []domain.RowData `json:"data"`
	Chart      gantt.Snapshot   `json:"chart"`
}

// ExportSnapshot captures the bound data and the current geometry.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	if err := s.lock(ctx); err != nil {
		return Snapshot{}, err
	}
	defer s.mu.Unlock()
	data := s.chart.Data()
	if data == nil {
		data = []domain.RowData{}
	}
	return Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Data:       data,
		Chart:      s.chart.Snapshot(),
	}, nil
}

// ImportSnapshot binds the data of an exported snapshot. The geometry is recomputed.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	return s.ReplaceData(ctx, snap.Data)
}

// Validate checks the version and the id constraints of the exported data.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %q", s.Version)
	}
	rowIDs := map[string]struct{}{}
	taskIDs := map[string]struct{}{}
	for i, row := range s.Data {
		if strings.TrimSpace(row.ID) == "" {
			return fmt.Errorf("data[%d].id is required", i)
		}
		if _, exists := rowIDs[row.ID]; exists {
			return fmt.Errorf("duplicate row id: %q", row.ID)
		}
		rowIDs[row.ID] = struct{}{}
		for j, task := range row.Tasks {
			if strings.TrimSpace(task.ID) == "" {
				return fmt.Errorf("data[%d].tasks[%d].id is required", i, j)
			}
			if _, exists := taskIDs[task.ID]; exists {
				return fmt.Errorf("duplicate task id: %q", task.ID)
			}
			taskIDs[task.ID] = struct{}{}
		}
	}
	return nil
}
