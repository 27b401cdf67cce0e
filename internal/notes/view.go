package notes

import (
	"fmt"
	"strings"
	"time"

	"github.com/haierkeys/fast-note-web/internal/backend"
	"github.com/haierkeys/fast-note-web/pkg/util"
)

// PreviewRunes is the length of the content preview shown when a note has no subtitle
// PreviewRunes 无副标题时展示的正文预览长度
const PreviewRunes = 140

// UntitledTitle is shown and stored for blank titles
// UntitledTitle 空标题时展示与保存的标题
const UntitledTitle = "Untitled"

// Card is one note in the list
// Card 列表中的一张笔记卡片
type Card struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	UpdatedAt time.Time `json:"updatedAt"`
	Deleting  bool      `json:"deleting"`
}

// View is the render model of the list
// View 列表的渲染模型
type View struct {
	Cards       []Card `json:"cards"`
	Count       int    `json:"count"`
	Search      string `json:"search"`
	Page        int    `json:"page"`
	PageSize    int    `json:"pageSize"`
	TotalPages  int    `json:"totalPages"`
	HasPrev     bool   `json:"hasPrev"`
	HasNext     bool   `json:"hasNext"`
	ShowingText string `json:"showingText"`
	Loading     bool   `json:"loading"`
	Error       string `json:"error,omitempty"`
	DeletingID  string `json:"deletingId,omitempty"`
	Empty       string `json:"empty,omitempty"`
}

// ShowingText renders the range line under the list
// ShowingText 渲染列表下方的范围文本
func ShowingText(page, pageSize, fetched, count int) string {
	if count == 0 {
		return "Showing 0 of 0 notes"
	}
	start := (page-1)*pageSize + 1
	end := min(start+fetched-1, count)
	return fmt.Sprintf("Showing %d–%d of %d notes", start, end, count)
}

// TotalPages is never below 1
// TotalPages 最小为 1
func TotalPages(count, pageSize int) int {
	return max(1, util.CeilDiv(count, pageSize))
}

// EmptyMessage is shown when the page has no cards
// EmptyMessage 当前页没有卡片时展示
func EmptyMessage(search string) string {
	q := strings.TrimSpace(search)
	if q == "" {
		return "No notes yet."
	}
	return `No notes match "` + q + `".`
}

// NewCard projects a row into a card
// NewCard 将一行数据投影为卡片
func NewCard(n backend.Note) Card {
	title := strings.TrimSpace(n.Title)
	if title == "" {
		title = UntitledTitle
	}
	subtitle := strings.TrimSpace(n.Subtitle)
	if subtitle == "" {
		subtitle = util.Preview(n.Content, PreviewRunes)
	}
	return Card{ID: n.ID, Title: title, Subtitle: subtitle, UpdatedAt: n.UpdatedAt}
}

// View returns a consistent snapshot of the list
// View 返回列表的一致性快照
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	cards := make([]Card, 0, len(c.notes))
	for _, n := range c.notes {
		card := NewCard(n)
		card.Deleting = n.ID == c.deletingID
		cards = append(cards, card)
	}
	total := TotalPages(c.count, c.pageSize)
	v := View{
		Cards:       cards,
		Count:       c.count,
		Search:      c.search,
		Page:        c.page,
		PageSize:    c.pageSize,
		TotalPages:  total,
		HasPrev:     c.page > 1,
		HasNext:     c.page < total,
		ShowingText: ShowingText(c.page, c.pageSize, len(c.notes), c.count),
		Loading:     c.loading,
		Error:       c.err,
		DeletingID:  c.deletingID,
	}
	if !c.loading && c.err == "" && len(cards) == 0 {
		v.Empty = EmptyMessage(c.search)
	}
	return v
}

// Notes returns a copy of the fetched rows
// Notes 返回已获取行的副本
func (c *Controller) Notes() []backend.Note {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]backend.Note{}, c.notes...)
}
