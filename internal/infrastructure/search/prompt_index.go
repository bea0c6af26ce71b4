// Package search keeps an Elasticsearch copy of prompts for full-text search.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/codex/internal/domain/entity"
	"github.com/oksasatya/codex/pkg/helpers"
)

const promptMapping = `{
  "mappings": {
    "properties": {
      "user_id":    {"type": "keyword"},
      "title":      {"type": "text"},
      "prompt":     {"type": "text"},
      "response":   {"type": "text"},
      "model":      {"type": "keyword"},
      "tags":       {"type": "keyword"},
      "created_at": {"type": "date"},
      "updated_at": {"type": "date"}
    }
  }
}`

const requestTimeout = 3 * time.Second

type PromptIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewPromptIndex(es *elasticsearch.Client, index string) *PromptIndex {
	return &PromptIndex{es: es, index: index}
}

// EnsureIndex creates the prompts index with its mapping if missing.
func (x *PromptIndex) EnsureIndex(ctx context.Context) error {
	return helpers.EnsureIndex(ctx, x.es, x.index, promptMapping)
}

type promptDoc struct {
	UserID    string   `json:"user_id"`
	Title     string   `json:"title"`
	Prompt    string   `json:"prompt"`
	Response  string   `json:"response"`
	Model     string   `json:"model"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

func (x *PromptIndex) Index(ctx context.Context, p *entity.Prompt) error {
	b, err := json.Marshal(promptDoc{
		UserID:    p.UserID,
		Title:     p.Title,
		Prompt:    p.Prompt,
		Response:  p.Response,
		Model:     p.Model,
		Tags:      p.Tags,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.index, DocumentID: p.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return fmt.Errorf("index prompt %s: %w", p.ID, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index prompt %s: %s", p.ID, res.Status())
	}
	return nil
}

// Delete removes one document; a missing document is not an error.
func (x *PromptIndex) Delete(ctx context.Context, id string) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := x.es.Delete(x.index, id, x.es.Delete.WithContext(c))
	if err != nil {
		return fmt.Errorf("delete prompt %s: %w", id, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete prompt %s: %s", id, res.Status())
	}
	return nil
}

// DeleteByUser removes every document owned by userID.
func (x *PromptIndex) DeleteByUser(ctx context.Context, userID string) error {
	body, _ := json.Marshal(map[string]any{
		"query": map[string]any{"term": map[string]any{"user_id": userID}},
	})
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := x.es.DeleteByQuery([]string{x.index}, bytes.NewReader(body),
		x.es.DeleteByQuery.WithContext(c),
		x.es.DeleteByQuery.WithConflicts("proceed"),
	)
	if err != nil {
		return fmt.Errorf("delete prompts of %s: %w", userID, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete prompts of %s: %s", userID, res.Status())
	}
	return nil
}

// Search returns the ids of userID's prompts matching q, best match first.
func (x *PromptIndex) Search(ctx context.Context, userID, q string, limit int) ([]string, error) {
	query := map[string]any{
		"size": limit,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{map[string]any{"term": map[string]any{"user_id": userID}}},
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  q,
						"fields": []string{"title^3", "tags^2", "prompt", "response"},
					},
				},
			},
		},
		"_source": false,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := x.es.Search(
		x.es.Search.WithContext(c),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, fmt.Errorf("search prompts: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search prompts: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}
