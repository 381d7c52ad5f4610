package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shelfmark/shelfmark/internal/model"
)

// Cache key prefixes and TTLs.
const (
	bookKeyPrefix     = "book:"
	titleIdxKeyPrefix = "book:title:"
	negCacheKeySuffix = ":neg"

	// DefaultBookTTL is the TTL for cached book data.
	DefaultBookTTL = 1 * time.Hour

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = 5 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetBook retrieves a book from cache by ID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetBook(ctx context.Context, id string) (*model.CachedBook, error) {
	key := bookKeyPrefix + id

	result, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	cached := &model.CachedBook{
		ISBN:            result["isbn"],
		Title:           result["title"],
		Author:          result["author"],
		Publisher:       result["publisher"],
		PublishYear:     result["publish_year"],
		TotalCopies:     result["total_copies"],
		AvailableCopies: result["available_copies"],
		UpdatedAt:       result["updated_at"],
	}

	return cached, nil
}

// SetBook stores a book in cache.
func (c *Cache) SetBook(ctx context.Context, book *model.Book) error {
	key := bookKeyPrefix + book.ID
	cached := book.ToCachedBook()

	fields := map[string]any{
		"isbn":             cached.ISBN,
		"title":            cached.Title,
		"author":           cached.Author,
		"publish_year":     cached.PublishYear,
		"total_copies":     cached.TotalCopies,
		"available_copies": cached.AvailableCopies,
		"updated_at":       cached.UpdatedAt,
	}

	// Only set optional fields if they have values
	if cached.Publisher != "" {
		fields["publisher"] = cached.Publisher
	}

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, DefaultBookTTL)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to cache book: %w", err)
	}

	// Remove negative cache if exists
	c.client.Del(ctx, key+negCacheKeySuffix)

	return nil
}

// DeleteBook removes a book from cache.
// Called whenever copy counts change so readers never see stale availability.
func (c *Cache) DeleteBook(ctx context.Context, id string) error {
	key := bookKeyPrefix + id

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, key+negCacheKeySuffix)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete book from cache: %w", err)
	}

	return nil
}

// GetTitleIndex resolves a cached title to its book ID.
// Returns ErrCacheMiss if the title is not indexed.
func (c *Cache) GetTitleIndex(ctx context.Context, title string) (string, error) {
	id, err := c.client.Get(ctx, titleIdxKeyPrefix+title).Result()
	if err != nil {
		return "", ErrCacheMiss
	}
	return id, nil
}

// SetTitleIndex stores a title to book ID mapping.
// The index entry shares the book TTL; a stale entry only costs a miss.
func (c *Cache) SetTitleIndex(ctx context.Context, title, id string) error {
	return c.client.Set(ctx, titleIdxKeyPrefix+title, id, DefaultBookTTL).Err()
}

// IsNegativelyCached checks if a book ID is in negative cache.
func (c *Cache) IsNegativelyCached(ctx context.Context, id string) (bool, error) {
	key := bookKeyPrefix + id + negCacheKeySuffix

	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetNegativeCache marks a book ID as not found.
func (c *Cache) SetNegativeCache(ctx context.Context, id string) error {
	key := bookKeyPrefix + id + negCacheKeySuffix

	err := c.client.SetEx(ctx, key, "", NegativeCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}
