package gantt

import (
	"github.com/hylla/gantt/internal/domain"
)

// Data returns a copy of the bound collection, or nil when none is bound.
func (g *Gantt) Data() []domain.RowData {
	if !g.hasData {
		return nil
	}
	out := domain.CloneRows(g.data)
	if out == nil {
		out = []domain.RowData{}
	}
	return out
}

// SetData binds rows as the new collection and diffs it against the previous one.
func (g *Gantt) SetData(rows []domain.RowData) error {
	normalized, err := domain.NormalizeRows(rows, g.newID)
	if err != nil {
		return err
	}
	g.applyData(normalized, true)
	return nil
}

// Load upserts rows by id into the bound collection, binding one when none is.
func (g *Gantt) Load(rows ...domain.RowData) error {
	incoming, err := domain.NormalizeRows(rows, g.newID)
	if err != nil {
		return err
	}
	merged := domain.CloneRows(g.data)
	for _, row := range incoming {
		if idx := domain.IndexOfRow(merged, row.ID); idx >= 0 {
			merged[idx] = row
			continue
		}
		merged = append(merged, row)
	}
	merged, err = domain.NormalizeRows(merged, g.newID)
	if err != nil {
		return err
	}
	g.applyData(merged, true)
	return nil
}

// Remove deletes rows by id. A row listing tasks only loses those tasks.
func (g *Gantt) Remove(rows ...domain.RowData) error {
	if !g.hasData {
		return nil
	}
	merged := domain.CloneRows(g.data)
	for _, target := range rows {
		idx := domain.IndexOfRow(merged, target.ID)
		if idx < 0 {
			continue
		}
		if len(target.Tasks) == 0 {
			merged = append(merged[:idx], merged[idx+1:]...)
			continue
		}
		row := &merged[idx]
		for _, task := range target.Tasks {
			if ti := domain.IndexOfTask(row.Tasks, task.ID); ti >= 0 {
				row.Tasks = append(row.Tasks[:ti], row.Tasks[ti+1:]...)
			}
		}
	}
	g.applyData(merged, true)
	return nil
}

// Clear unbinds the collection.
func (g *Gantt) Clear() {
	g.applyData(nil, false)
}

// applyData diffs next against the bound collection. Removing every previous
// row raises a single data.clear; a partial removal raises one data.remove.
func (g *Gantt) applyData(next []domain.RowData, present bool) {
	old := g.data
	hadOld := g.hasData
	if hadOld {
		removed := domain.RemovedRowIDs(next, old)
		switch {
		case len(old) > 0 && len(removed) == len(old):
			g.rows.RemoveAll()
			g.api.Data.Cleared.raise(struct{}{})
		case len(removed) > 0:
			removedRows := make([]domain.RowData, 0, len(removed))
			for _, id := range removed {
				g.rows.RemoveRow(id)
				removedRows = append(removedRows, old[domain.IndexOfRow(old, id)].Clone())
			}
			g.api.Data.Removed.raise(removedRows)
		}
	}

	g.data = next
	g.hasData = present
	if present {
		orderChanged := rowOrderChanged(next, old, hadOld)
		if orderChanged {
			g.rows.ResetNonModelLists()
		}
		for _, row := range next {
			g.rows.AddRow(row, orderChanged)
		}
		g.rows.refreshIndexes()
		g.logger.Debug("data applied", "rows", len(next), "previous", len(old), "order_changed", orderChanged)
		g.api.Data.Change.raise(DataChange{New: domain.CloneRows(next), Old: domain.CloneRows(old)})
		g.api.Data.Loaded.raise(domain.CloneRows(next))
	}
	g.invalidate()
	g.flush()
}

// rowOrderChanged reports whether the row ids differ in count or order.
func rowOrderChanged(next, old []domain.RowData, hadOld bool) bool {
	if !hadOld || len(next) != len(old) {
		return true
	}
	for i := range next {
		if next[i].ID != old[i].ID {
			return true
		}
	}
	return false
}
