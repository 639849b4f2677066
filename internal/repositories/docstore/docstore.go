// Package docstore is a redis-backed document store with declared secondary
// indexes. Every write keeps a document and its index entries consistent in one
// Lua script; lookups go through the indexes only.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/elearning-service/internal/models"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrDuplicate       = errors.New("duplicate document")
	ErrFieldNotIndexed = errors.New("field is not indexed")
	ErrMissingID       = errors.New("document id is required")
)

// Collection names
const (
	Users                    = "users"
	Courses                  = "courses"
	Languages                = "languages"
	Camps                    = "camps"
	Jobs                     = "jobs"
	Applications             = "applications"
	Assessments              = "assessments"
	Certificates             = "certificates"
	Discussions              = "discussions"
	Replies                  = "replies"
	PeerLearningSessions     = "peer_learning_sessions"
	PeerLearningParticipants = "peer_learning_participants"
)

// roleField values are normalised to the canonical role spelling on write
const roleField = "role"

// Indexes declares the indexed fields of every known collection
var Indexes = map[string][]string{
	Users:                    {"role", "email"},
	Courses:                  {"owner_id", "language_id"},
	Languages:                {"code"},
	Camps:                    {"name"},
	Jobs:                     {"owner_id", "job_type"},
	Applications:             {"user_id", "job_id"},
	Assessments:              {"course_id"},
	Certificates:             {"user_id", "course_id"},
	Discussions:              {"course_id", "author_id"},
	Replies:                  {"discussion_id", "author_id"},
	PeerLearningSessions:     {"host_id", "role", "course_id", "status"},
	PeerLearningParticipants: {"session_id", "user_id", "role"},
}

// Store hands out collection handles over one redis client
type Store struct {
	client *redis.Client
	prefix string

	mu          sync.Mutex
	collections map[string]*Collection
}

func NewStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "docstore"
	}
	return &Store{
		client:      client,
		prefix:      prefix,
		collections: make(map[string]*Collection),
	}
}

// Collection returns the handle of name, creating it on first use. Unknown
// collections have no indexes.
func (s *Store) Collection(name string) *Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		return c
	}
	indexed := make(map[string]bool, len(Indexes[name]))
	for _, field := range Indexes[name] {
		indexed[field] = true
	}
	c := &Collection{
		client:  s.client,
		name:    name,
		base:    s.prefix + ":{" + name + "}",
		indexed: indexed,
	}
	s.collections[name] = c
	return c
}

// Ping checks the backing redis connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Collection is one named set of JSON documents
type Collection struct {
	client  *redis.Client
	name    string
	base    string
	indexed map[string]bool
}

func (c *Collection) Name() string {
	return c.name
}

// IsIndexed reports whether field can be queried with FindBy
func (c *Collection) IsIndexed(field string) bool {
	return c.indexed[field]
}

func (c *Collection) docKey(id string) string {
	return c.base + ":doc:" + id
}

func (c *Collection) metaKey(id string) string {
	return c.base + ":meta:" + id
}

func (c *Collection) allKey() string {
	return c.base + ":all"
}

func (c *Collection) uniqKey(name string) string {
	return c.base + ":uniq:" + name
}

func (c *Collection) indexKey(field, value string) string {
	return c.base + ":idx:" + field + ":" + value
}

// normalizeFilter maps role filters to the spelling stored on write
func normalizeFilter(field, value string) string {
	if field == roleField {
		if role, ok := models.ParseRole(value); ok {
			return string(role)
		}
	}
	return value
}

// encode marshals doc with its role normalised and returns the index values
func (c *Collection) encode(doc interface{}) ([]byte, map[string]interface{}, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal %s document: %w", c.name, err)
	}

	fields := make(map[string]interface{})
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&fields); err != nil {
		return nil, nil, fmt.Errorf("%s document must be a JSON object: %w", c.name, err)
	}

	if value, ok := fields[roleField].(string); ok {
		if role, valid := models.ParseRole(value); valid && string(role) != value {
			fields[roleField] = string(role)
			if raw, err = json.Marshal(fields); err != nil {
				return nil, nil, fmt.Errorf("failed to marshal %s document: %w", c.name, err)
			}
		}
	}
	return raw, fields, nil
}

func fieldValue(v interface{}) (string, bool) {
	switch value := v.(type) {
	case string:
		return value, true
	case json.Number:
		return value.String(), true
	case bool:
		if value {
			return "true", true
		}
		return "false", true
	}
	return "", false
}

func (c *Collection) write(ctx context.Context, mode, id string, doc interface{}, uniqueFields []string) (int64, error) {
	if id == "" {
		return 0, ErrMissingID
	}

	raw, fields, err := c.encode(doc)
	if err != nil {
		return 0, err
	}

	keys := []string{c.docKey(id), c.metaKey(id), c.allKey()}
	args := []interface{}{c.base, id, string(raw), float64(time.Now().UnixMicro()), mode}

	if len(uniqueFields) > 0 {
		parts := make([]string, 0, len(uniqueFields))
		names := append([]string(nil), uniqueFields...)
		sort.Strings(names)
		for _, field := range names {
			value, _ := fieldValue(fields[field])
			parts = append(parts, field+"="+value)
		}
		unique := strings.Join(parts, "|")
		keys = append(keys, c.uniqKey(unique))
		args = append(args, 1, unique)
	} else {
		args = append(args, 0)
	}

	indexed := make([]string, 0, len(c.indexed))
	for field := range c.indexed {
		indexed = append(indexed, field)
	}
	sort.Strings(indexed)
	for _, field := range indexed {
		if value, ok := fieldValue(fields[field]); ok {
			keys = append(keys, c.indexKey(field, value))
			args = append(args, field, value)
		}
	}

	result, err := writeScript.Run(ctx, c.client, keys, args...).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to write %s document: %w", c.name, err)
	}
	return result, nil
}

// Put creates or replaces the document id, re-indexing it
func (c *Collection) Put(ctx context.Context, id string, doc interface{}) error {
	_, err := c.write(ctx, "put", id, doc, nil)
	return err
}

// InsertUnique stores doc only if id is new and no other document holds the
// same values for uniqueFields. Either condition failing yields ErrDuplicate.
func (c *Collection) InsertUnique(ctx context.Context, id string, doc interface{}, uniqueFields ...string) error {
	result, err := c.write(ctx, "insert", id, doc, uniqueFields)
	if err != nil {
		return err
	}
	if result != 1 {
		return fmt.Errorf("%s %s: %w", c.name, id, ErrDuplicate)
	}
	return nil
}

// Get decodes the document id into dest
func (c *Collection) Get(ctx context.Context, id string, dest interface{}) error {
	raw, err := c.client.Get(ctx, c.docKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%s %s: %w", c.name, id, ErrNotFound)
		}
		return fmt.Errorf("failed to get %s document: %w", c.name, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to decode %s document: %w", c.name, err)
	}
	return nil
}

// Delete removes the document and its index entries
func (c *Collection) Delete(ctx context.Context, id string) error {
	keys := []string{c.docKey(id), c.metaKey(id), c.allKey()}
	removed, err := deleteScript.Run(ctx, c.client, keys, c.base, id).Int64()
	if err != nil {
		return fmt.Errorf("failed to delete %s document: %w", c.name, err)
	}
	if removed == 0 {
		return fmt.Errorf("%s %s: %w", c.name, id, ErrNotFound)
	}
	return nil
}

// Page is one slice of documents in creation order
type Page struct {
	Docs  []json.RawMessage
	Total int64
}

// Decode unmarshals every document of p into a slice of T
func Decode[T any](p *Page) ([]T, error) {
	out := make([]T, 0, len(p.Docs))
	for _, raw := range p.Docs {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		out = append(out, item)
	}
	return out, nil
}

// List pages every document in creation order. limit <= 0 returns all.
func (c *Collection) List(ctx context.Context, offset, limit int) (*Page, error) {
	return c.page(ctx, c.allKey(), offset, limit)
}

// FindBy pages the documents whose field equals value. Only indexed fields
// can be queried.
func (c *Collection) FindBy(ctx context.Context, field, value string, offset, limit int) (*Page, error) {
	if !c.indexed[field] {
		return nil, fmt.Errorf("%s.%s: %w", c.name, field, ErrFieldNotIndexed)
	}
	return c.page(ctx, c.indexKey(field, normalizeFilter(field, value)), offset, limit)
}

// Count returns the number of documents in the collection
func (c *Collection) Count(ctx context.Context) (int64, error) {
	n, err := c.client.ZCard(ctx, c.allKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count %s documents: %w", c.name, err)
	}
	return n, nil
}

// CountBy returns the number of documents whose indexed field equals value,
// matching FindBy
func (c *Collection) CountBy(ctx context.Context, field, value string) (int64, error) {
	if !c.indexed[field] {
		return 0, fmt.Errorf("%s.%s: %w", c.name, field, ErrFieldNotIndexed)
	}
	n, err := c.client.ZCard(ctx, c.indexKey(field, normalizeFilter(field, value))).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count %s documents: %w", c.name, err)
	}
	return n, nil
}

func (c *Collection) page(ctx context.Context, key string, offset, limit int) (*Page, error) {
	if offset < 0 {
		offset = 0
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(offset + limit - 1)
	}

	pipe := c.client.Pipeline()
	totalCmd := pipe.ZCard(ctx, key)
	idsCmd := pipe.ZRange(ctx, key, int64(offset), stop)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to page %s documents: %w", c.name, err)
	}

	page := &Page{Docs: make([]json.RawMessage, 0), Total: totalCmd.Val()}
	ids := idsCmd.Val()
	if len(ids) == 0 {
		return page, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.docKey(id)
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s documents: %w", c.name, err)
	}
	for _, v := range values {
		if s, ok := v.(string); ok {
			page.Docs = append(page.Docs, json.RawMessage(s))
		}
	}
	return page, nil
}
