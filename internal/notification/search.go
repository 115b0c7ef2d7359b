package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	apperrors "letting-compliance/internal/common/errors"
	"letting-compliance/internal/models"
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":        {"type": "keyword"},
      "userId":    {"type": "keyword"},
      "type":      {"type": "keyword"},
      "priority":  {"type": "keyword"},
      "read":      {"type": "boolean"},
      "title":     {"type": "text"},
      "message":   {"type": "text"},
      "link":      {"type": "keyword", "index": false},
      "metadata":  {"type": "object", "enabled": false},
      "createdAt": {"type": "date"}
    }
  }
}`

// Indexer receives every persisted notification.
type Indexer interface {
	Index(ctx context.Context, n models.Notification) error
}

// SearchIndex stores notifications in Elasticsearch for full text search.
type SearchIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewSearchIndex(client *elasticsearch.Client, index string) *SearchIndex {
	if index == "" {
		index = "notifications"
	}
	return &SearchIndex{client: client, index: index}
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (s *SearchIndex) EnsureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return apperrors.NewSearchIndexFailedError(err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = s.client.Indices.Create(s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return apperrors.NewSearchIndexFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apperrors.NewSearchIndexFailedError(responseError(res.Status(), res.Body))
	}
	return nil
}

func (s *SearchIndex) Index(ctx context.Context, n models.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return apperrors.NewSearchIndexFailedError(err)
	}

	res, err := s.client.Index(s.index, bytes.NewReader(body),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(n.ID),
	)
	if err != nil {
		return apperrors.NewSearchIndexFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apperrors.NewSearchIndexFailedError(responseError(res.Status(), res.Body))
	}
	return nil
}

// MarkRead flips the read flag on one indexed notification. A document
// that was never indexed is not an error.
func (s *SearchIndex) MarkRead(ctx context.Context, id string) error {
	res, err := s.client.Update(s.index, id, strings.NewReader(`{"doc":{"read":true}}`),
		s.client.Update.WithContext(ctx),
	)
	if err != nil {
		return apperrors.NewSearchIndexFailedError(err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return apperrors.NewSearchIndexFailedError(responseError(res.Status(), res.Body))
	}
	return nil
}

// MarkAllRead flips the read flag on every unread document of userID.
func (s *SearchIndex) MarkAllRead(ctx context.Context, userID string) error {
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"userId": userID}},
					map[string]interface{}{"term": map[string]interface{}{"read": false}},
				},
			},
		},
		"script": map[string]interface{}{
			"source": "ctx._source.read = true",
			"lang":   "painless",
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return apperrors.NewSearchIndexFailedError(err)
	}

	res, err := s.client.UpdateByQuery([]string{s.index},
		s.client.UpdateByQuery.WithContext(ctx),
		s.client.UpdateByQuery.WithBody(&buf),
		s.client.UpdateByQuery.WithConflicts("proceed"),
	)
	if err != nil {
		return apperrors.NewSearchIndexFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return apperrors.NewSearchIndexFailedError(responseError(res.Status(), res.Body))
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Notification `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search matches query against title and message, scoped to userID.
func (s *SearchIndex) Search(ctx context.Context, userID, query string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	q := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"userId": userID}},
				},
				"must": []interface{}{
					map[string]interface{}{"multi_match": map[string]interface{}{
						"query":  query,
						"fields": []string{"title^2", "message"},
					}},
				},
			},
		},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"createdAt": map[string]interface{}{"order": "desc"}},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, apperrors.NewSearchIndexFailedError(err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, apperrors.NewSearchIndexFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, apperrors.NewSearchIndexFailedError(responseError(res.Status(), res.Body))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewSearchIndexFailedError(err)
	}

	out := make([]models.Notification, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func responseError(status string, body io.Reader) error {
	snippet, _ := io.ReadAll(io.LimitReader(body, 512))
	return fmt.Errorf("elasticsearch %s: %s", status, strings.TrimSpace(string(snippet)))
}
