package services

import (
	"context"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"

	localCache "git.solsynth.dev/hypernet/janitor/pkg/internal/cache"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/database"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/models"
)

func GetOrganizationCacheKey(slug string) any {
	return fmt.Sprintf("organization#%s", slug)
}

func GetOrganizationBySlug(slug string) (models.Organization, error) {
	cacheManager := cache.New[any](localCache.S)
	marshal := marshaler.New(cacheManager)
	contx := context.Background()

	if val, err := marshal.Get(
		contx,
		GetOrganizationCacheKey(slug),
		new(models.Organization),
	); err == nil {
		return *val.(*models.Organization), nil
	}

	var org models.Organization
	if err := database.C.Where(models.Organization{
		Slug: slug,
	}).First(&org).Error; err != nil {
		return org, err
	} else {
		CacheOrganization(org)
	}

	return org, nil
}

// FlushOrganizationCache drops the cached row so the next lookup hits the
// database. Targeted cleanup runs call this first: a retention decision must
// never be made on a stale plan tag.
func FlushOrganizationCache(slug string) {
	cacheManager := cache.New[any](localCache.S)
	marshal := marshaler.New(cacheManager)

	_ = marshal.Delete(context.Background(), GetOrganizationCacheKey(slug))
}

func CacheOrganization(item models.Organization) {
	cacheManager := cache.New[any](localCache.S)
	marshal := marshaler.New(cacheManager)
	contx := context.Background()

	_ = marshal.Set(
		contx,
		GetOrganizationCacheKey(item.Slug),
		item,
		store.WithExpiration(60*time.Minute),
		store.WithTags([]string{"organization"}),
	)
}
