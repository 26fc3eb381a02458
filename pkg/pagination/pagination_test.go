package pagination

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type PaginationSuite struct {
	suite.Suite
}

func TestPaginationSuite(t *testing.T) {
	suite.Run(t, new(PaginationSuite))
}

func (s *PaginationSuite) TestNormalizeClampsPageSize() {
	s.Run("oversized page size clamps to maximum", func() {
		p := Params{PageNumber: 1, PageSize: MaxPageSize + 25}.Normalize()
		s.Equal(MaxPageSize, p.PageSize)
	})

	s.Run("zero page size defaults", func() {
		p := Params{PageNumber: 1}.Normalize()
		s.Equal(DefaultPageSize, p.PageSize)
	})

	s.Run("negative page size floors to one", func() {
		p := Params{PageNumber: 1, PageSize: -3}.Normalize()
		s.Equal(1, p.PageSize)
	})

	s.Run("page number floors to one", func() {
		p := Params{PageNumber: -9, PageSize: 10}.Normalize()
		s.Equal(1, p.PageNumber)
	})
}

func (s *PaginationSuite) TestTotalPagesAndFlags() {
	cases := []struct {
		name        string
		total       int
		page        int
		size        int
		wantPages   int
		wantNext    bool
		wantPrev    bool
	}{
		{"exact multiple", 20, 1, 10, 2, true, false},
		{"remainder rounds up", 21, 2, 10, 3, true, true},
		{"last page", 21, 3, 10, 3, false, true},
		{"empty", 0, 1, 10, 0, false, false},
		{"single row", 1, 1, 1, 1, false, false},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			r := NewPagedResult(make([]int, 0), tc.total, tc.page, tc.size)
			s.Equal(tc.wantPages, r.TotalPages)
			s.Equal(tc.wantNext, r.HasNext)
			s.Equal(tc.wantPrev, r.HasPrevious)
		})
	}
}

func (s *PaginationSuite) TestPaginateSlices() {
	all := []int{1, 2, 3, 4, 5, 6, 7}

	s.Run("middle page", func() {
		r := Paginate(all, Params{PageNumber: 2, PageSize: 3})
		s.Equal([]int{4, 5, 6}, r.Items)
		s.Equal(7, r.TotalCount)
		s.True(r.HasNext)
		s.True(r.HasPrevious)
	})

	s.Run("page beyond end is empty but keeps count", func() {
		r := Paginate(all, Params{PageNumber: 9, PageSize: 3})
		s.Empty(r.Items)
		s.Equal(7, r.TotalCount)
		s.False(r.HasNext)
	})

	s.Run("oversized request returns at most max page size", func() {
		big := make([]int, MaxPageSize+10)
		r := Paginate(big, Params{PageNumber: 1, PageSize: MaxPageSize + 10})
		s.Len(r.Items, MaxPageSize)
	})
}
