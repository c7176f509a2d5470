package conversation

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"intent-engine/internal/models"
)

// Roles recorded in the history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	summaryTurns    = 4
	summaryTextSize = 120
)

// Turn is one history entry.
type Turn struct {
	ID     string        `json:"id"`
	Role   string        `json:"role"`
	Text   string        `json:"text"`
	Tool   string        `json:"tool,omitempty"`
	Params models.Params `json:"params"`
	At     time.Time     `json:"at"`
}

// State is what gets persisted for a session.
type State struct {
	Context Context `json:"context"`
	History []Turn  `json:"history,omitempty"`
}

// Session is a Context plus a capped history. The mutex protects memory only;
// two requests for the same user may still interleave, and the last Update wins.
type Session struct {
	mu          sync.RWMutex
	ctx         Context
	history     []Turn
	maxHistory  int
	statusField string
	now         func() time.Time
}

func newSession(userID string, ttl time.Duration, maxHistory int, statusField string, now func() time.Time) *Session {
	t := now()
	return &Session{
		ctx: Context{
			UserID:     userID,
			CreatedAt:  t,
			LastActive: t,
			TTL:        ttl,
		},
		maxHistory:  maxHistory,
		statusField: statusField,
		now:         now,
	}
}

func restoreSession(st State, maxHistory int, statusField string, now func() time.Time) *Session {
	s := &Session{
		ctx:         st.Context,
		history:     append([]Turn(nil), st.History...),
		maxHistory:  maxHistory,
		statusField: statusField,
		now:         now,
	}
	s.trimHistory()
	return s
}

// Update replaces the intent, params and last result, merges extra columns and
// refreshes the activity timestamp. An empty viewMode keeps the current one.
func (s *Session) Update(intent models.Intent, params models.Params, result *models.HandlerResult, question, viewMode string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctx.Intent = intent
	s.ctx.Params = params.Clone()
	if result != nil {
		r := result.Clone()
		s.ctx.LastResult = &r
		s.ctx.ExtraColumns = mergeColumns(s.ctx.ExtraColumns, r.ExtraColumns)
	} else {
		s.ctx.LastResult = nil
	}
	s.ctx.LastQuestion = question
	if viewMode != "" {
		s.ctx.ViewMode = viewMode
	}
	s.ctx.Turns++
	s.ctx.LastActive = s.now()
}

// Touch refreshes the activity timestamp without changing state.
func (s *Session) Touch() {
	s.mu.Lock()
	s.ctx.LastActive = s.now()
	s.mu.Unlock()
}

// MergeExtraColumns adds columns requested for the next dispatch.
func (s *Session) MergeExtraColumns(cols []string) {
	s.mu.Lock()
	s.ctx.ExtraColumns = mergeColumns(s.ctx.ExtraColumns, cols)
	s.mu.Unlock()
}

// Context returns a copy of the current context.
func (s *Session) Context() Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.ctx
	c.Params = s.ctx.Params.Clone()
	c.ExtraColumns = append([]string(nil), s.ctx.ExtraColumns...)
	if s.ctx.LastResult != nil {
		r := s.ctx.LastResult.Clone()
		c.LastResult = &r
	}
	return c
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx.UserID
}

func (s *Session) Intent() models.Intent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx.Intent
}

func (s *Session) Params() models.Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx.Params.Clone()
}

func (s *Session) ViewMode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx.ViewMode
}

func (s *Session) ExtraColumns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.ctx.ExtraColumns...)
}

// MergeParams is Context.MergeParams against the current params.
func (s *Session) MergeParams(next models.Params) models.Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx.MergeParams(next)
}

func (s *Session) HasData() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx.HasData()
}

// Data returns a copy of the cached rows.
func (s *Session) Data() []models.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx.Data()
}

// LastResult returns a copy of the cached result, if any.
func (s *Session) LastResult() (models.HandlerResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ctx.LastResult == nil {
		return models.HandlerResult{}, false
	}
	return s.ctx.LastResult.Clone(), true
}

// IsExpired checks the TTL against the session clock.
func (s *Session) IsExpired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx.IsExpired(s.now())
}

// CategoryCounts counts cached rows per value of field.
func (s *Session) CategoryCounts(field string) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx.CategoryCounts(field)
}

// AddTurn appends a history entry, dropping the oldest beyond the cap.
func (s *Session) AddTurn(role, text, tool string, params models.Params) Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := Turn{
		ID:     uuid.NewString(),
		Role:   role,
		Text:   text,
		Tool:   tool,
		Params: params.Clone(),
		At:     s.now(),
	}
	s.history = append(s.history, t)
	s.trimHistory()
	return t
}

func (s *Session) trimHistory() {
	if s.maxHistory > 0 && len(s.history) > s.maxHistory {
		s.history = append([]Turn(nil), s.history[len(s.history)-s.maxHistory:]...)
	}
}

// History returns a copy of the history, oldest first.
func (s *Session) History() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Turn(nil), s.history...)
}

// State returns a persistable copy.
func (s *Session) State() State {
	ctx := s.Context()
	return State{Context: ctx, History: s.History()}
}

// Summarize renders a compact description of the session for classifier prompts:
// the last tool and params, cached row counts per status and a transcript excerpt.
func (s *Session) Summarize() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b strings.Builder
	if s.ctx.Intent != "" {
		fmt.Fprintf(&b, "last_tool: %s\n", s.ctx.Intent)
	}
	if p := s.ctx.Params.String(); p != "" {
		fmt.Fprintf(&b, "params: %s\n", p)
	}
	if s.ctx.LastResult != nil {
		fmt.Fprintf(&b, "cached_rows: %d", len(s.ctx.LastResult.Rows))
		counts := s.ctx.CategoryCounts(s.statusField)
		if len(counts) > 0 {
			parts := make([]string, 0, len(counts))
			for _, k := range SortedCategories(counts) {
				parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
			}
			fmt.Fprintf(&b, " (%s: %s)", s.statusField, strings.Join(parts, ", "))
		}
		b.WriteString("\n")
	}

	start := len(s.history) - summaryTurns
	if start < 0 {
		start = 0
	}
	if start < len(s.history) {
		b.WriteString("transcript:\n")
		for _, t := range s.history[start:] {
			text := t.Text
			if len([]rune(text)) > summaryTextSize {
				text = string([]rune(text)[:summaryTextSize]) + "..."
			}
			if t.Tool != "" {
				fmt.Fprintf(&b, "%s[%s]: %s\n", t.Role, t.Tool, text)
			} else {
				fmt.Fprintf(&b, "%s: %s\n", t.Role, text)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
