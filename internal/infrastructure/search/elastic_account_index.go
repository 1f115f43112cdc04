package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/joshuaoni/user-management-dashboard/internal/application"
	"github.com/joshuaoni/user-management-dashboard/internal/domain/entity"
	"github.com/joshuaoni/user-management-dashboard/internal/domain/repository"
)

const requestTimeout = 3 * time.Second

// accountMappings keeps name and email as keywords so wildcard queries match
// whole values like the store's substring search.
const accountMappings = `{
  "mappings": {
    "properties": {
      "id":           {"type": "keyword"},
      "name":         {"type": "keyword"},
      "email":        {"type": "keyword"},
      "role":         {"type": "keyword"},
      "status":       {"type": "keyword"},
      "profilePhoto": {"type": "keyword", "index": false, "doc_values": false},
      "createdAt":    {"type": "date"},
      "updatedAt":    {"type": "date"},
      "syncedAt":     {"type": "date"}
    }
  }
}`

type accountDocument struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	ProfilePhoto string    `json:"profilePhoto"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	SyncedAt     time.Time `json:"syncedAt"`
}

func toDocument(a *entity.Account, syncedAt time.Time) accountDocument {
	return accountDocument{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		Role:         string(a.Role),
		Status:       string(a.Status),
		ProfilePhoto: a.ProfilePhoto,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		SyncedAt:     syncedAt,
	}
}

func (d accountDocument) toEntity() *entity.Account {
	return &entity.Account{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		Role:         entity.Role(d.Role),
		Status:       entity.Status(d.Status),
		ProfilePhoto: d.ProfilePhoto,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// AccountIndex mirrors account records into Elasticsearch for listing.
type AccountIndex struct {
	es    *elasticsearch.Client
	index string
	now   func() time.Time
}

func NewAccountIndex(es *elasticsearch.Client, index string) *AccountIndex {
	return &AccountIndex{es: es, index: index, now: time.Now}
}

func responseError(res *esapi.Response, op string) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return fmt.Errorf("%s: %s: %s", op, res.Status(), strings.TrimSpace(string(body)))
}

// EnsureIndex creates the index with its mappings when it does not exist.
func (ix *AccountIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := ix.es.Indices.Exists([]string{ix.index}, ix.es.Indices.Exists.WithContext(c))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	_ = res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("check index: %s", res.Status())
	}

	res, err = ix.es.Indices.Create(ix.index,
		ix.es.Indices.Create.WithContext(c),
		ix.es.Indices.Create.WithBody(strings.NewReader(accountMappings)))
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return responseError(res, "create index")
	}
	return nil
}

func (ix *AccountIndex) Index(ctx context.Context, a *entity.Account) error {
	b, err := json.Marshal(toDocument(a, ix.now().UTC()))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: ix.index, DocumentID: a.ID, Body: bytes.NewReader(b), Refresh: "wait_for"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, ix.es)
	if err != nil {
		return fmt.Errorf("index account: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return responseError(res, "index account")
	}
	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
	} `json:"items"`
}

// IndexAll upserts accounts in one bulk request, stamping each with syncedAt.
func (ix *AccountIndex) IndexAll(ctx context.Context, accounts []*entity.Account, syncedAt time.Time) error {
	if len(accounts) == 0 {
		return nil
	}
	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, a := range accounts {
		meta := map[string]any{"index": map[string]any{"_id": a.ID}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(toDocument(a, syncedAt)); err != nil {
			return err
		}
	}

	req := esapi.BulkRequest{Index: ix.index, Body: &body, Refresh: "wait_for"}
	res, err := req.Do(ctx, ix.es)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return responseError(res, "bulk index")
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if !parsed.Errors {
		return nil
	}
	failed := 0
	for _, item := range parsed.Items {
		for _, r := range item {
			if r.Status >= 300 {
				failed++
			}
		}
	}
	return fmt.Errorf("bulk index: %d of %d documents rejected", failed, len(accounts))
}

// Prune deletes documents last synced before the given time, including ones
// written before documents carried a sync stamp.
func (ix *AccountIndex) Prune(ctx context.Context, before time.Time) error {
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"should": []any{
					map[string]any{"range": map[string]any{"syncedAt": map[string]any{"lt": before.UTC().Format(time.RFC3339Nano)}}},
					map[string]any{"bool": map[string]any{"must_not": map[string]any{"exists": map[string]any{"field": "syncedAt"}}}},
				},
				"minimum_should_match": 1,
			},
		},
	}
	b, err := json.Marshal(query)
	if err != nil {
		return err
	}
	refresh := true
	req := esapi.DeleteByQueryRequest{
		Index:     []string{ix.index},
		Body:      bytes.NewReader(b),
		Conflicts: "proceed",
		Refresh:   &refresh,
	}
	res, err := req.Do(ctx, ix.es)
	if err != nil {
		return fmt.Errorf("prune index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return responseError(res, "prune index")
	}
	return nil
}

func (ix *AccountIndex) Remove(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: ix.index, DocumentID: id, Refresh: "wait_for"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, ix.es)
	if err != nil {
		return fmt.Errorf("remove account: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError(res, "remove account")
	}
	return nil
}

// escapeWildcard makes s match literally inside a wildcard pattern.
func escapeWildcard(s string) string {
	return strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`).Replace(s)
}

func wildcard(field, term string) map[string]any {
	return map[string]any{
		"wildcard": map[string]any{
			field: map[string]any{
				"value":            "*" + escapeWildcard(term) + "*",
				"case_insensitive": true,
			},
		},
	}
}

func buildQuery(q repository.ListQuery) map[string]any {
	filter := []any{}
	if q.Role != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"role": string(q.Role)}})
	}
	if q.Search != "" {
		filter = append(filter, map[string]any{
			"bool": map[string]any{
				"should":               []any{wildcard("name", q.Search), wildcard("email", q.Search)},
				"minimum_should_match": 1,
			},
		})
	}
	return map[string]any{
		"from":             q.Skip,
		"size":             q.Limit,
		"track_total_hits": true,
		"sort":             []any{map[string]any{"createdAt": "asc"}, map[string]any{"id": "asc"}},
		"query":            map[string]any{"bool": map[string]any{"filter": filter}},
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source accountDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (ix *AccountIndex) Search(ctx context.Context, q repository.ListQuery) ([]*entity.Account, int64, error) {
	b, err := json.Marshal(buildQuery(q))
	if err != nil {
		return nil, 0, err
	}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := ix.es.Search(
		ix.es.Search.WithContext(c),
		ix.es.Search.WithIndex(ix.index),
		ix.es.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("search accounts: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, 0, responseError(res, "search accounts")
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}
	out := make([]*entity.Account, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source.toEntity())
	}
	return out, parsed.Hits.Total.Value, nil
}

var _ application.AccountIndex = (*AccountIndex)(nil)
