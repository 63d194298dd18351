package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/task_manager/internal/domain"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type fakeES struct {
	requests []recordedRequest
	status   int
	body     string
}

func (f *fakeES) RoundTrip(req *http.Request) (*http.Response, error) {
	var body string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}
	f.requests = append(f.requests, recordedRequest{Method: req.Method, Path: req.URL.Path, Body: body})

	status, respBody := http.StatusOK, `{}`
	if req.URL.Path != "/" {
		status, respBody = f.status, f.body
	}
	h := http.Header{}
	h.Set("X-Elastic-Product", "Elasticsearch")
	h.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(respBody)),
		Request:    req,
	}, nil
}

func newTestIndex(t *testing.T, f *fakeES) *TaskIndex {
	t.Helper()
	client, err := NewClient(context.Background(), "http://es.test:9200", "", "", f)
	require.NoError(t, err)
	return NewTaskIndex(client, "")
}

func TestTaskIndex_Index(t *testing.T) {
	f := &fakeES{status: http.StatusCreated, body: `{"result":"created"}`}
	x := newTestIndex(t, f)

	desc := "quarterly numbers"
	require.NoError(t, x.Index(context.Background(), domain.Task{ID: 5, Name: "report", Description: &desc, OwnerID: 2, CategoryID: 1}))

	last := f.requests[len(f.requests)-1]
	assert.Equal(t, http.MethodPut, last.Method)
	assert.Equal(t, "/tasks/_doc/5", last.Path)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(last.Body), &doc))
	assert.Equal(t, "report", doc["name"])
	assert.Equal(t, "quarterly numbers", doc["description"])
	assert.EqualValues(t, 2, doc["owner_id"])
}

func TestTaskIndex_DeleteIgnoresMissing(t *testing.T) {
	f := &fakeES{status: http.StatusNotFound, body: `{"result":"not_found"}`}
	x := newTestIndex(t, f)
	require.NoError(t, x.Delete(context.Background(), 9))

	last := f.requests[len(f.requests)-1]
	assert.Equal(t, http.MethodDelete, last.Method)
	assert.Equal(t, "/tasks/_doc/9", last.Path)

	f.status = http.StatusInternalServerError
	assert.Error(t, x.Delete(context.Background(), 9))
}

func TestTaskIndex_Search(t *testing.T) {
	f := &fakeES{
		status: http.StatusOK,
		body:   `{"hits":{"total":{"value":3},"hits":[{"_id":"4"},{"_id":"junk"},{"_id":"1"}]}}`,
	}
	x := newTestIndex(t, f)

	total, ids, err := x.Search(context.Background(), "repor", 2, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []uint{4, 1}, ids)

	last := f.requests[len(f.requests)-1]
	assert.Equal(t, "/tasks/_search", last.Path)
	assert.Contains(t, last.Body, `"owner_id":2`)
	assert.Contains(t, last.Body, `"repor"`)

	_, _, err = x.Search(context.Background(), "repor", 0, 0, 10)
	require.NoError(t, err)
	assert.NotContains(t, f.requests[len(f.requests)-1].Body, "owner_id")
}

func TestTaskIndex_SearchError(t *testing.T) {
	f := &fakeES{status: http.StatusBadRequest, body: `{"error":"bad"}`}
	x := newTestIndex(t, f)

	_, _, err := x.Search(context.Background(), "x", 0, 0, 10)
	assert.Error(t, err)
}
