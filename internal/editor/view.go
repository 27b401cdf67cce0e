package editor

import "github.com/haierkeys/fast-note-web/internal/backend"

// View is the render model of the note page
// View 笔记页面的渲染模型
type View struct {
	ID            string        `json:"id"`
	Mode          Mode          `json:"mode"`
	Note          *backend.Note `json:"-"`
	Title         string        `json:"title"`
	Subtitle      string        `json:"subtitle"`
	Content       string        `json:"content"`
	HeaderTitle   string        `json:"headerTitle"`
	Dirty         bool          `json:"dirty"`
	CanSave       bool          `json:"canSave"`
	Loading       bool          `json:"loading"`
	Saving        bool          `json:"saving"`
	Deleting      bool          `json:"deleting"`
	Message       string        `json:"message,omitempty"`
	MessageIsInfo bool          `json:"messageIsInfo,omitempty"`
	ConfirmDelete bool          `json:"confirmDelete"`
	Redirect      string        `json:"redirect,omitempty"`
	Location      string        `json:"location"`
}

// View returns a consistent snapshot
// View 返回一致性快照
func (e *Editor) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	var note *backend.Note
	if e.note != nil {
		n := *e.note
		note = &n
	}
	dirty := e.dirtyLocked()
	return View{
		ID:            e.id,
		Mode:          e.mode,
		Note:          note,
		Title:         e.title,
		Subtitle:      e.subtitle,
		Content:       e.content,
		HeaderTitle:   HeaderTitle(e.note, e.title),
		Dirty:         dirty,
		CanSave:       dirty && !e.saving && !e.deleting,
		Loading:       e.loading,
		Saving:        e.saving,
		Deleting:      e.deleting,
		Message:       e.message,
		MessageIsInfo: e.message == SavedMessage,
		ConfirmDelete: e.confirmOpen,
		Redirect:      e.redirect,
		Location:      e.location.String(),
	}
}
