package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/task_manager/internal/domain"
)

const DefaultIndex = "tasks"

func NewClient(ctx context.Context, addr, user, password string, transport http.RoundTripper) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{addr},
		Username:  user,
		Password:  password,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}
	return client, nil
}

// TaskIndex keeps a searchable copy of tasks. The database stays the source
// of truth; Search only returns ids.
type TaskIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewTaskIndex(es *elasticsearch.Client, index string) *TaskIndex {
	if index == "" {
		index = DefaultIndex
	}
	return &TaskIndex{es: es, index: index}
}

type hit struct {
	ID string `json:"_id"`
}

type document struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     uint   `json:"owner_id"`
	CategoryID  uint   `json:"category_id"`
}

func (x *TaskIndex) Index(ctx context.Context, t domain.Task) error {
	doc := document{Name: t.Name, OwnerID: t.OwnerID, CategoryID: t.CategoryID}
	if t.Description != nil {
		doc.Description = *t.Description
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("index task %d: %w", t.ID, err)
	}

	res, err := x.es.Index(x.index, &buf,
		x.es.Index.WithContext(ctx),
		x.es.Index.WithDocumentID(strconv.FormatUint(uint64(t.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index task %d: %w", t.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index task %d: %s", t.ID, res.Status())
	}
	return nil
}

func (x *TaskIndex) Delete(ctx context.Context, id uint) error {
	res, err := x.es.Delete(x.index, strconv.FormatUint(uint64(id), 10), x.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete task %d: %s", id, res.Status())
	}
	return nil
}

// Search matches name and description; owner 0 searches every owner.
func (x *TaskIndex) Search(ctx context.Context, query string, owner uint, from, size int) (int64, []uint, error) {
	boolQuery := map[string]any{
		"must": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
	if owner != 0 {
		boolQuery["filter"] = map[string]any{
			"term": map[string]any{"owner_id": owner},
		}
	}
	body := map[string]any{
		"query":   map[string]any{"bool": boolQuery},
		"from":    from,
		"size":    size,
		"_source": false,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search tasks: %w", err)
	}

	res, err := x.es.Search(
		x.es.Search.WithContext(ctx),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search tasks: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search tasks: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []hit                 `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search tasks: decode: %w", err)
	}

	ids := make([]uint, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		id, err := strconv.ParseUint(h.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return r.Hits.Total.Value, ids, nil
}
