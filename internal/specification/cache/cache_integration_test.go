//go:build integration

package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	platformredis "specregistry/internal/platform/redis"
	"specregistry/internal/specification/models"
	"specregistry/pkg/pagination"
	"specregistry/pkg/testutil/containers"
)

type ListingCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *Listing
	ctx   context.Context
}

func TestListingCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ListingCacheSuite))
}

func (s *ListingCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.cache = NewListing(&platformredis.Client{Client: s.redis.Client}, nil)
	s.ctx = context.Background()
}

func (s *ListingCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *ListingCacheSuite) page(names ...string) pagination.PagedResult[models.Specification] {
	items := make([]models.Specification, 0, len(names))
	for _, name := range names {
		items = append(items, models.Specification{Name: name})
	}
	return pagination.NewPagedResult(items, len(items), 1, 10)
}

func (s *ListingCacheSuite) TestRoundTrip() {
	filter := models.ListFilter{SearchTerm: "invoice"}

	_, ok := s.cache.Get(s.ctx, filter)
	s.False(ok)

	s.cache.Set(s.ctx, filter, s.page("Alpha", "Beta"))

	cached, ok := s.cache.Get(s.ctx, filter)
	s.Require().True(ok)
	s.Equal(2, cached.TotalCount)
	s.Equal("Alpha", cached.Items[0].Name)
}

func (s *ListingCacheSuite) TestDistinctFiltersGetDistinctEntries() {
	s.cache.Set(s.ctx, models.ListFilter{SearchTerm: "alpha"}, s.page("Alpha"))
	s.cache.Set(s.ctx, models.ListFilter{SearchTerm: "beta"}, s.page("Beta"))

	cached, ok := s.cache.Get(s.ctx, models.ListFilter{SearchTerm: "beta"})
	s.Require().True(ok)
	s.Equal("Beta", cached.Items[0].Name)
}

func (s *ListingCacheSuite) TestInvalidateOrphansAllEntries() {
	first := models.ListFilter{SearchTerm: "first"}
	second := models.ListFilter{SearchTerm: "second"}
	s.cache.Set(s.ctx, first, s.page("First"))
	s.cache.Set(s.ctx, second, s.page("Second"))

	s.cache.Invalidate(s.ctx)

	_, ok := s.cache.Get(s.ctx, first)
	s.False(ok)
	_, ok = s.cache.Get(s.ctx, second)
	s.False(ok)

	// The new version serves fresh entries as usual.
	s.cache.Set(s.ctx, first, s.page("Fresh"))
	cached, ok := s.cache.Get(s.ctx, first)
	s.Require().True(ok)
	s.Equal("Fresh", cached.Items[0].Name)
}

func (s *ListingCacheSuite) TestNilClientIsNoOp() {
	disabled := NewListing(nil, nil)
	disabled.Set(s.ctx, models.ListFilter{}, s.page("Ignored"))
	_, ok := disabled.Get(s.ctx, models.ListFilter{})
	s.False(ok)
	disabled.Invalidate(s.ctx)
}
