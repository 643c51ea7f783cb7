package query

import (
	"context"
	"strings"

	"github.com/visitlog/visitlog/internal/iputil"
	"github.com/visitlog/visitlog/internal/model"
)

// recentVisitors pages through the recent-visitor log, scoped to a
// country log when a country filter is set.
//
// Without a search term the log itself is the source of truth for
// pagination: one list range per page, then a metadata join for just
// that page. With a search term the whole log is joined and filtered in
// memory, since metadata lives outside the log and the store cannot
// filter a list by hash fields.
func (e *Engine) recentVisitors(ctx context.Context, country, search string, page, limit int) ([]model.RecentVisitor, model.Pagination, error) {
	if search != "" {
		return e.searchRecentVisitors(ctx, country, search, page, limit)
	}

	total, err := e.directory.Len(ctx, country)
	if err != nil {
		return nil, model.Pagination{}, err
	}

	start := int64(page-1) * int64(limit)
	ids, err := e.directory.List(ctx, country, start, start+int64(limit)-1)
	if err != nil {
		return nil, model.Pagination{}, err
	}

	visitors, err := e.loadRecent(ctx, ids)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	return visitors, paginate(page, limit, total), nil
}

func (e *Engine) searchRecentVisitors(ctx context.Context, country, search string, page, limit int) ([]model.RecentVisitor, model.Pagination, error) {
	ids, err := e.directory.List(ctx, country, 0, -1)
	if err != nil {
		return nil, model.Pagination{}, err
	}

	all, err := e.loadRecent(ctx, ids)
	if err != nil {
		return nil, model.Pagination{}, err
	}

	needle := strings.ToLower(search)
	matched := all[:0]
	for _, v := range all {
		if matchesSearch(v, needle) {
			matched = append(matched, v)
		}
	}

	total := int64(len(matched))
	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], paginate(page, limit, total), nil
}

// loadRecent joins metadata and identity for the given log slice,
// dropping entries that resolve to loopback or private addresses.
func (e *Engine) loadRecent(ctx context.Context, ids []string) ([]model.RecentVisitor, error) {
	if len(ids) == 0 {
		return []model.RecentVisitor{}, nil
	}

	metas, labels, err := e.joinVisitors(ctx, ids)
	if err != nil {
		return nil, err
	}

	visitors := make([]model.RecentVisitor, 0, len(ids))
	for i, id := range ids {
		meta := metas[i]
		if iputil.IsLoopbackOrPrivate(meta.IP) {
			continue
		}
		visitors = append(visitors, model.RecentVisitor{
			ID:        id,
			Email:     labels[i],
			IP:        meta.IP,
			Country:   meta.Country,
			City:      meta.City,
			Referrer:  meta.Referrer,
			UserAgent: meta.UserAgent,
			Org:       meta.Org,
			LastSeen:  meta.LastSeen,
		})
	}
	return visitors, nil
}

// matchesSearch reports whether any displayable field of v contains the
// lowercased needle.
func matchesSearch(v model.RecentVisitor, needle string) bool {
	for _, field := range []string{v.IP, v.Email, v.City, v.Country, v.Org, v.Referrer} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func paginate(page, limit int, total int64) model.Pagination {
	totalPages := (total + int64(limit) - 1) / int64(limit)
	return model.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
