package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bookmesh/bookledger/internal/domain/catalog"
	"github.com/redis/go-redis/v9"
)

const (
	nextIDKey     = "catalog:next_id"
	bookKeyPrefix = "catalog:book:"
)

const (
	scriptNotFound     = -1
	scriptInsufficient = -2
)

// createScript allocates the next identifier and writes the record in one
// atomic step, so a failed add never leaves the counter ahead of the stored
// records.
var createScript = redis.NewScript(`
local id = redis.call('INCR', KEYS[1]) - 1
redis.call('HSET', ARGV[1] .. id,
	'title', ARGV[2],
	'description', ARGV[3],
	'author', ARGV[4],
	'price', ARGV[5],
	'quantity', ARGV[6],
	'removed', '0',
	'created_at', ARGV[7],
	'updated_at', ARGV[8])
return id
`)

// deductScript performs the stock check and the decrement in one atomic step,
// standing in for the single-writer guarantee the in-memory store gets from
// its mutex.
var deductScript = redis.NewScript(`
local key = KEYS[1]
local qty = tonumber(ARGV[1])

if redis.call('EXISTS', key) == 0 then
	return -1
end

local current = tonumber(redis.call('HGET', key, 'quantity'))
if current < qty then
	return -2
end

redis.call('HSET', key, 'quantity', current - qty, 'updated_at', ARGV[2])
return current - qty
`)

var repriceScript = redis.NewScript(`
local key = KEYS[1]

if redis.call('EXISTS', key) == 0 then
	return -1
end

redis.call('HSET', key, 'price', ARGV[1], 'quantity', ARGV[2], 'removed', '0', 'updated_at', ARGV[3])
return 1
`)

var removeScript = redis.NewScript(`
local key = KEYS[1]

if redis.call('EXISTS', key) == 0 then
	return -1
end

redis.call('HSET', key, 'price', '0', 'quantity', '0', 'removed', '1', 'updated_at', ARGV[1])
return 1
`)

// CatalogRepository persists catalog records in Redis hashes. Identifier
// allocation rides on INCR, so ids stay monotonic across restarts and are
// never reused.
type CatalogRepository struct {
	client *redis.Client
}

func NewCatalogRepository(client *redis.Client) *CatalogRepository {
	return &CatalogRepository{client: client}
}

func (r *CatalogRepository) Create(ctx context.Context, book *catalog.Book) (uint64, error) {
	allocated, err := createScript.Run(ctx, r.client, []string{nextIDKey},
		bookKeyPrefix,
		book.Title,
		book.Description,
		book.Author,
		strconv.FormatUint(book.Price, 10),
		strconv.FormatUint(uint64(book.Quantity), 10),
		book.CreatedAt.UTC().Format(time.RFC3339Nano),
		book.UpdatedAt.UTC().Format(time.RFC3339Nano),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("redisstore: create book: %w", err)
	}
	return uint64(allocated), nil
}

func (r *CatalogRepository) Get(ctx context.Context, id uint64) (*catalog.Book, error) {
	fields, err := r.client.HGetAll(ctx, bookKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: get book %d: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, catalog.ErrNotFound
	}
	return parseBook(id, fields)
}

func (r *CatalogRepository) List(ctx context.Context) ([]*catalog.Book, error) {
	count, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*catalog.Book, 0, count)
	for id := uint64(0); id < count; id++ {
		book, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, book)
	}
	return out, nil
}

func (r *CatalogRepository) Count(ctx context.Context) (uint64, error) {
	raw, err := r.client.Get(ctx, nextIDKey).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redisstore: count: %w", err)
	}
	count, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redisstore: parse count: %w", err)
	}
	return count, nil
}

func (r *CatalogRepository) Reprice(ctx context.Context, id uint64, price uint64, quantity uint32) (*catalog.Book, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	status, err := repriceScript.Run(ctx, r.client, []string{bookKey(id)},
		strconv.FormatUint(price, 10),
		strconv.FormatUint(uint64(quantity), 10),
		now,
	).Int()
	if err != nil {
		return nil, fmt.Errorf("redisstore: reprice book %d: %w", id, err)
	}
	if status == scriptNotFound {
		return nil, catalog.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *CatalogRepository) Remove(ctx context.Context, id uint64) (*catalog.Book, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	status, err := removeScript.Run(ctx, r.client, []string{bookKey(id)}, now).Int()
	if err != nil {
		return nil, fmt.Errorf("redisstore: remove book %d: %w", id, err)
	}
	if status == scriptNotFound {
		return nil, catalog.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *CatalogRepository) Deduct(ctx context.Context, id uint64, quantity uint32) (*catalog.Book, error) {
	if quantity == 0 {
		return nil, catalog.ErrInvalidQuantity
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	remaining, err := deductScript.Run(ctx, r.client, []string{bookKey(id)},
		strconv.FormatUint(uint64(quantity), 10),
		now,
	).Int()
	if err != nil {
		return nil, fmt.Errorf("redisstore: deduct book %d: %w", id, err)
	}
	switch remaining {
	case scriptNotFound:
		return nil, catalog.ErrNotFound
	case scriptInsufficient:
		return nil, catalog.ErrInsufficientStock
	}
	return r.Get(ctx, id)
}

func bookKey(id uint64) string {
	return bookKeyPrefix + strconv.FormatUint(id, 10)
}

func parseBook(id uint64, fields map[string]string) (*catalog.Book, error) {
	price, err := strconv.ParseUint(fields["price"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redisstore: book %d price: %w", id, err)
	}
	quantity, err := strconv.ParseUint(fields["quantity"], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("redisstore: book %d quantity: %w", id, err)
	}

	book := &catalog.Book{
		ID:          id,
		Title:       fields["title"],
		Description: fields["description"],
		Author:      fields["author"],
		Price:       price,
		Quantity:    uint32(quantity),
		Removed:     fields["removed"] == "1",
	}
	if ts, err := time.Parse(time.RFC3339Nano, fields["created_at"]); err == nil {
		book.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, fields["updated_at"]); err == nil {
		book.UpdatedAt = ts
	}
	return book, nil
}
