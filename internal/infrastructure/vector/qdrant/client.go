package qdrant

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
)

// payload keys
const (
	keyRecordID       = "record_id"
	keyChunkType      = "chunk_type"
	keyPriorityWeight = "priority_weight"
	keyCode           = "code"
	keyTags           = "tags"
	keyLanguage       = "language"
	keyOrdinal        = "ordinal"
	keyText           = "text"
)

// Client maps every namespace onto its own Qdrant collection named
// "<prefix>_<namespace>".
type Client struct {
	baseURL    string
	prefix     string
	httpClient *http.Client

	ensureMu sync.Mutex
	ensured  map[string]int
}

func New(baseURL, prefix string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		prefix:     strings.TrimSpace(prefix),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		ensured:    make(map[string]int),
	}
}

func (c *Client) collectionName(namespace string) string {
	if c.prefix == "" {
		return namespace
	}
	return c.prefix + "_" + namespace
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

func (c *Client) Upsert(ctx context.Context, namespace string, points []domain.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}
	size := len(points[0].Vector)
	for _, p := range points {
		if len(p.Vector) != size || size == 0 {
			return domain.WrapError(domain.ErrInvalidInput, "qdrant upsert", fmt.Errorf("chunk %s has vector size %d, want %d", p.Chunk.ID, len(p.Vector), size))
		}
	}

	collection := c.collectionName(namespace)
	if err := c.ensureCollection(ctx, collection, size); err != nil {
		return err
	}

	body := make([]point, 0, len(points))
	for _, p := range points {
		tags := p.Chunk.Tags
		if tags == nil {
			tags = []string{}
		}
		body = append(body, point{
			ID:     p.Chunk.ID,
			Vector: p.Vector,
			Payload: map[string]any{
				keyRecordID:       p.Chunk.SourceRecordID,
				keyChunkType:      string(p.Chunk.ChunkType),
				keyPriorityWeight: p.Chunk.PriorityWeight,
				keyCode:           p.Chunk.Code,
				keyTags:           tags,
				keyLanguage:       p.Chunk.Language,
				keyOrdinal:        p.Chunk.Ordinal,
				keyText:           p.Chunk.Text,
			},
		})
	}

	path := fmt.Sprintf("/collections/%s/points?wait=true", collection)
	return c.do(ctx, http.MethodPut, path, map[string]any{"points": body}, nil, "upsert")
}

// DeleteByRecord removes every point of the record. A namespace that was
// never created has nothing to delete.
func (c *Client) DeleteByRecord(ctx context.Context, namespace, recordID string) error {
	if strings.TrimSpace(recordID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "qdrant delete", fmt.Errorf("empty record id"))
	}
	reqBody := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{matchValue(keyRecordID, recordID)},
		},
	}
	path := fmt.Sprintf("/collections/%s/points/delete?wait=true", c.collectionName(namespace))
	err := c.do(ctx, http.MethodPost, path, reqBody, nil, "delete")
	if isMissingCollection(err) {
		return nil
	}
	return err
}

func (c *Client) Query(
	ctx context.Context,
	namespace string,
	vector []float32,
	topK int,
	filter *domain.MetadataFilter,
) ([]domain.VectorMatch, error) {
	if len(vector) == 0 || topK <= 0 {
		return []domain.VectorMatch{}, nil
	}
	reqBody := map[string]any{
		"query":        vector,
		"limit":        topK,
		"with_payload": true,
	}
	if filter != nil && !filter.IsEmpty() {
		reqBody["filter"] = buildMetadataFilter(*filter)
	}

	var resp queryResponse
	path := fmt.Sprintf("/collections/%s/points/query", c.collectionName(namespace))
	if err := c.do(ctx, http.MethodPost, path, reqBody, &resp, "query"); err != nil {
		if isMissingCollection(err) {
			return []domain.VectorMatch{}, nil
		}
		return nil, err
	}
	return toMatches(resp.Result.Points), nil
}

// Filter scrolls one page of points matching any code or any tag.
func (c *Client) Filter(ctx context.Context, namespace string, filter domain.MetadataFilter, limit int) ([]domain.VectorMatch, error) {
	if filter.IsEmpty() || limit <= 0 {
		return []domain.VectorMatch{}, nil
	}
	reqBody := map[string]any{
		"filter":       buildMetadataFilter(filter),
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}

	var resp scrollResponse
	path := fmt.Sprintf("/collections/%s/points/scroll", c.collectionName(namespace))
	if err := c.do(ctx, http.MethodPost, path, reqBody, &resp, "scroll"); err != nil {
		if isMissingCollection(err) {
			return []domain.VectorMatch{}, nil
		}
		return nil, err
	}
	matches := toMatches(resp.Result.Points)
	for i := range matches {
		matches[i].Score = 0
	}
	return matches, nil
}

func (c *Client) ensureCollection(ctx context.Context, collection string, vectorSize int) error {
	c.ensureMu.Lock()
	if size, ok := c.ensured[collection]; ok && size == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	err := c.do(ctx, http.MethodPut, "/collections/"+collection, reqBody, nil, "ensure collection")
	// 409 when the collection already exists.
	if err != nil && !isStatus(err, http.StatusConflict) {
		return err
	}

	for _, field := range []string{keyRecordID, keyCode, keyTags} {
		indexBody := map[string]any{"field_name": field, "field_schema": "keyword"}
		path := fmt.Sprintf("/collections/%s/index?wait=true", collection)
		if err := c.do(ctx, http.MethodPut, path, indexBody, nil, "ensure payload index"); err != nil && !isStatus(err, http.StatusConflict) {
			return err
		}
	}

	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensured[collection] = vectorSize
	return nil
}

func buildMetadataFilter(filter domain.MetadataFilter) map[string]any {
	should := make([]map[string]any, 0, 2)
	if len(filter.Codes) > 0 {
		should = append(should, matchAny(keyCode, filter.Codes))
	}
	if len(filter.Tags) > 0 {
		should = append(should, matchAny(keyTags, filter.Tags))
	}
	return map[string]any{"should": should}
}

func matchValue(key, value string) map[string]any {
	return map[string]any{
		"key":   key,
		"match": map[string]any{"value": value},
	}
}

func matchAny(key string, values []string) map[string]any {
	return map[string]any{
		"key":   key,
		"match": map[string]any{"any": values},
	}
}
