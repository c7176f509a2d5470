// internal/models/result.go
package models

// Row is one record returned by a downstream handler.
type Row map[string]any

// Clone copies the row map. Values are JSON scalars and are shared.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// CloneRows copies the slice and every row in it.
func CloneRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

// HandlerResult is what a handler returns for a dispatched intent. The engine
// stores it verbatim as the context's last result.
type HandlerResult struct {
	Rows         []Row    `json:"rows"`
	Columns      []string `json:"columns"`
	Description  string   `json:"description"`
	ExtraColumns []string `json:"extraColumns,omitempty"`
}

// Clone copies the slices and the row maps so the stored snapshot does not alias
// caller memory.
func (r HandlerResult) Clone() HandlerResult {
	return HandlerResult{
		Rows:         CloneRows(r.Rows),
		Columns:      append([]string(nil), r.Columns...),
		Description:  r.Description,
		ExtraColumns: append([]string(nil), r.ExtraColumns...),
	}
}
