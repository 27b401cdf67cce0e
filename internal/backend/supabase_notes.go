package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	notesPath    = "/rest/v1/notes"
	noteColumns  = "id,user_id,title,subtitle,content,created_at,updated_at"
	objectAccept = "application/vnd.pgrst.object+json"
)

// searchColumns are matched by NoteFilter.Search
// searchColumns NoteFilter.Search 匹配的列
var searchColumns = []string{"title", "subtitle", "content"}

// Apply writes the filter into PostgREST query parameters
// Apply 将过滤条件写入 PostgREST 查询参数
func (f NoteFilter) Apply(q url.Values) {
	term := strings.TrimSpace(f.Search)
	if term == "" {
		return
	}
	pattern := quoteValue("*" + term + "*")
	parts := make([]string, 0, len(searchColumns))
	for _, col := range searchColumns {
		parts = append(parts, col+".ilike."+pattern)
	}
	q.Set("or", "("+strings.Join(parts, ",")+")")
}

// quoteValue double quotes a logic-tree value so reserved characters in user input stay literal
// quoteValue 为逻辑树中的值加双引号，用户输入中的保留字符保持原样
func quoteValue(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(v) + `"`
}

func (c *SupabaseClient) dataRequest(ctx context.Context, req request) (*response, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	req.token = token
	return c.do(ctx, req)
}

// CountNotes returns the exact number of rows matching f
// CountNotes 返回匹配 f 的精确行数
func (c *SupabaseClient) CountNotes(ctx context.Context, f NoteFilter) (int, error) {
	q := url.Values{"select": {"id"}}
	f.Apply(q)
	resp, err := c.dataRequest(ctx, request{
		op:      "notes.count",
		method:  http.MethodHead,
		path:    notesPath,
		query:   q,
		headers: map[string]string{"Prefer": "count=exact"},
	})
	if err != nil {
		return 0, err
	}
	return parseContentRange(resp.header.Get("Content-Range"))
}

// parseContentRange reads the total from "0-5/42" or "*/0"
// parseContentRange 从 "0-5/42" 或 "*/0" 中读取总数
func parseContentRange(v string) (int, error) {
	i := strings.LastIndex(v, "/")
	if i < 0 || i == len(v)-1 {
		return 0, errors.Errorf("notes.count: malformed Content-Range %q", v)
	}
	total := v[i+1:]
	if total == "*" {
		return 0, errors.Errorf("notes.count: count not returned in %q", v)
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, errors.Wrapf(err, "notes.count: parse Content-Range %q", v)
	}
	return n, nil
}

func (c *SupabaseClient) ListNotes(ctx context.Context, f NoteFilter, from, to int) ([]Note, error) {
	if from < 0 || to < from {
		return nil, errors.Errorf("notes.list: invalid range %d-%d", from, to)
	}
	q := url.Values{
		"select": {noteColumns},
		"order":  {"updated_at.desc"},
		"offset": {strconv.Itoa(from)},
		"limit":  {strconv.Itoa(to - from + 1)},
	}
	f.Apply(q)
	resp, err := c.dataRequest(ctx, request{
		op:     "notes.list",
		method: http.MethodGet,
		path:   notesPath,
		query:  q,
	})
	if err != nil {
		return nil, err
	}
	var notes []Note
	if err := decode("notes.list", resp.body, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *SupabaseClient) GetNote(ctx context.Context, id string) (*Note, error) {
	resp, err := c.dataRequest(ctx, request{
		op:      "notes.get",
		method:  http.MethodGet,
		path:    notesPath,
		query:   url.Values{"select": {noteColumns}, "id": {"eq." + id}},
		headers: map[string]string{"Accept": objectAccept},
	})
	if err != nil {
		return nil, err
	}
	var n Note
	if err := decode("notes.get", resp.body, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *SupabaseClient) InsertNote(ctx context.Context, in NoteInsert) (*Note, error) {
	resp, err := c.dataRequest(ctx, request{
		op:     "notes.insert",
		method: http.MethodPost,
		path:   notesPath,
		query:  url.Values{"select": {noteColumns}},
		body:   in,
		headers: map[string]string{
			"Prefer": "return=representation",
			"Accept": objectAccept,
		},
	})
	if err != nil {
		return nil, err
	}
	var n Note
	if err := decode("notes.insert", resp.body, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *SupabaseClient) UpdateNote(ctx context.Context, id string, p NotePatch) (*Note, error) {
	resp, err := c.dataRequest(ctx, request{
		op:     "notes.update",
		method: http.MethodPatch,
		path:   notesPath,
		query:  url.Values{"select": {noteColumns}, "id": {"eq." + id}},
		body:   p,
		headers: map[string]string{
			"Prefer": "return=representation",
			"Accept": objectAccept,
		},
	})
	if err != nil {
		return nil, err
	}
	var n Note
	if err := decode("notes.update", resp.body, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *SupabaseClient) DeleteNote(ctx context.Context, id string) error {
	_, err := c.dataRequest(ctx, request{
		op:     "notes.delete",
		method: http.MethodDelete,
		path:   notesPath,
		query:  url.Values{"id": {"eq." + id}},
	})
	return err
}
