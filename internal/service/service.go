package service

import (
	"context"
	"errors"
	"log"
	"slices"
	"strings"
	"time"

	"rhive/backoffice/internal/cache"
	"rhive/backoffice/internal/domain"
	"rhive/backoffice/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// ErrAdminRequired is returned when an operation needs an admin actor.
var ErrAdminRequired = errors.New("admin role required")

const reportCacheKey = "report:frequently-sold"

// unknownUserName is the placeholder used in joined output when a sale
// references a user id that has no matching employee record.
const unknownUserName = "Unknown"

type Service struct {
	repo           store.Repository
	reportCache    cache.ReportCache
	reportCacheTTL time.Duration
}

func New(repo store.Repository, reportCache cache.ReportCache, reportCacheTTL time.Duration) *Service {
	if reportCache == nil {
		reportCache = cache.NoopReportCache{}
	}
	if reportCacheTTL <= 0 {
		reportCacheTTL = 30 * time.Second
	}

	return &Service{
		repo:           repo,
		reportCache:    reportCache,
		reportCacheTTL: reportCacheTTL,
	}
}

func (s *Service) ListItems(ctx context.Context) ([]domain.Item, error) {
	return s.repo.ListItems(ctx)
}

func (s *Service) CreateSale(ctx context.Context, req domain.SaleCreateRequest) (domain.Sale, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return domain.Sale{}, store.ErrInvalidPayload
	}

	sale := domain.Sale{
		UserID: req.UserID,
		Date:   time.Now().UTC(),
		Items:  req.Items,
	}
	if req.Date != nil {
		sale.Date = req.Date.UTC()
	}
	if sale.Items == nil {
		sale.Items = []domain.SaleLine{}
	}

	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		return domain.Sale{}, err
	}

	// Lines are persisted as given; item ids and quantities are not
	// validated, and the per-line deltas can drive stock negative (or
	// increment it, for a non-positive quantity). Stock is reconciled after
	// the sale lands, in payload order. Unknown item ids are skipped.
	for _, line := range created.Items {
		if err := s.repo.AdjustItemStock(ctx, line.ItemID, -line.Quantity); err != nil {
			log.Printf("[service] stock decrement failed sale=%s item=%s: %v", created.ID, line.ItemID, err)
			return domain.Sale{}, err
		}
	}

	s.invalidateReportCache(ctx)
	return *created, nil
}

func (s *Service) ListSales(ctx context.Context) ([]domain.SaleListEntry, error) {
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return nil, err
	}

	itemIDs := make([]string, 0, 64)
	userIDs := make([]string, 0, len(sales))
	seenItems := make(map[string]struct{}, 64)
	seenUsers := make(map[string]struct{}, len(sales))
	for _, sale := range sales {
		if _, ok := seenUsers[sale.UserID]; !ok {
			seenUsers[sale.UserID] = struct{}{}
			userIDs = append(userIDs, sale.UserID)
		}
		for _, line := range sale.Items {
			if _, ok := seenItems[line.ItemID]; !ok {
				seenItems[line.ItemID] = struct{}{}
				itemIDs = append(itemIDs, line.ItemID)
			}
		}
	}

	items, err := s.repo.GetItemsByIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	users, err := s.repo.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.SaleListEntry, 0, len(sales))
	for _, sale := range sales {
		entry := domain.SaleListEntry{
			ID:       sale.ID,
			UserID:   sale.UserID,
			UserName: unknownUserName,
			Date:     sale.Date,
			Items:    expandLines(sale.Items, items),
		}
		if user, ok := users[sale.UserID]; ok {
			entry.UserName = user.Name
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.SaleDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.SaleDetail{}, store.ErrInvalidPayload
	}

	sale, err := s.repo.GetSaleByID(ctx, id)
	if err != nil {
		return domain.SaleDetail{}, err
	}

	itemIDs := make([]string, 0, len(sale.Items))
	for _, line := range sale.Items {
		itemIDs = append(itemIDs, line.ItemID)
	}
	items, err := s.repo.GetItemsByIDs(ctx, itemIDs)
	if err != nil {
		return domain.SaleDetail{}, err
	}

	return domain.SaleDetail{
		ID:     sale.ID,
		UserID: sale.UserID,
		Date:   sale.Date,
		Items:  expandLines(sale.Items, items),
	}, nil
}

// UpdateSale overwrites the provided fields only. Stock is never
// re-reconciled on update, even when the item lines change.
func (s *Service) UpdateSale(ctx context.Context, id string, req domain.SaleUpdateRequest) (domain.Sale, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Sale{}, store.ErrInvalidPayload
	}

	existing, err := s.repo.GetSaleByID(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}

	updated := *existing
	if req.UserID != nil {
		userID := strings.TrimSpace(*req.UserID)
		if userID == "" {
			return domain.Sale{}, store.ErrInvalidPayload
		}
		updated.UserID = userID
	}
	if req.Date != nil {
		updated.Date = req.Date.UTC()
	}
	if req.Items != nil {
		updated.Items = *req.Items
	}

	saved, err := s.repo.UpdateSale(ctx, updated)
	if err != nil {
		return domain.Sale{}, err
	}

	s.invalidateReportCache(ctx)
	return *saved, nil
}

// DeleteSale removes the sale and returns each line's quantity to stock.
func (s *Service) DeleteSale(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidPayload
	}

	deleted, err := s.repo.DeleteSale(ctx, id)
	if err != nil {
		return err
	}

	for _, line := range deleted.Items {
		if err := s.repo.AdjustItemStock(ctx, line.ItemID, line.Quantity); err != nil {
			log.Printf("[service] stock increment failed sale=%s item=%s: %v", deleted.ID, line.ItemID, err)
			return err
		}
	}

	s.invalidateReportCache(ctx)
	return nil
}

type reportPairKey struct {
	ItemID string
	UserID string
}

// FrequentlySold aggregates sold quantities over three rolling windows,
// grouped per (item, user) pair so the same item sold by two employees
// produces two entries.
func (s *Service) FrequentlySold(ctx context.Context) (domain.FrequentlySoldReport, error) {
	if cached, ok, err := s.reportCache.Get(ctx, reportCacheKey); err == nil && ok {
		return *cached, nil
	} else if err != nil {
		log.Printf("[service] WARN: report cache read failed: %v", err)
	}

	now := time.Now().UTC()
	weeklyFrom := now.AddDate(0, 0, -7)
	monthlyFrom := now.AddDate(0, -1, 0)
	yearlyFrom := now.AddDate(-1, 0, 0)

	tuples, err := s.repo.ListSaleTuples(ctx, yearlyFrom)
	if err != nil {
		return domain.FrequentlySoldReport{}, err
	}

	weekly := make(map[reportPairKey]int)
	monthly := make(map[reportPairKey]int)
	yearly := make(map[reportPairKey]int)
	for _, tuple := range tuples {
		key := reportPairKey{ItemID: tuple.ItemID, UserID: tuple.UserID}
		yearly[key] += tuple.Quantity
		if !tuple.Date.Before(monthlyFrom) {
			monthly[key] += tuple.Quantity
		}
		if !tuple.Date.Before(weeklyFrom) {
			weekly[key] += tuple.Quantity
		}
	}

	itemIDs := make([]string, 0, len(yearly))
	userIDs := make([]string, 0, len(yearly))
	seenItems := make(map[string]struct{}, len(yearly))
	seenUsers := make(map[string]struct{}, len(yearly))
	for key := range yearly {
		if _, ok := seenItems[key.ItemID]; !ok {
			seenItems[key.ItemID] = struct{}{}
			itemIDs = append(itemIDs, key.ItemID)
		}
		if _, ok := seenUsers[key.UserID]; !ok {
			seenUsers[key.UserID] = struct{}{}
			userIDs = append(userIDs, key.UserID)
		}
	}

	items, err := s.repo.GetItemsByIDs(ctx, itemIDs)
	if err != nil {
		return domain.FrequentlySoldReport{}, err
	}
	users, err := s.repo.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return domain.FrequentlySoldReport{}, err
	}

	report := domain.FrequentlySoldReport{
		Weekly:  buildReportEntries(weekly, items, users),
		Monthly: buildReportEntries(monthly, items, users),
		Yearly:  buildReportEntries(yearly, items, users),
	}

	if err := s.reportCache.Set(ctx, reportCacheKey, &report, s.reportCacheTTL); err != nil {
		log.Printf("[service] WARN: report cache write failed: %v", err)
	}

	return report, nil
}

func buildReportEntries(totals map[reportPairKey]int, items map[string]domain.Item, users map[string]domain.Employee) []domain.FrequentItemEntry {
	entries := make([]domain.FrequentItemEntry, 0, len(totals))
	for key, total := range totals {
		entry := domain.FrequentItemEntry{
			ID:                key.ItemID,
			TotalQuantitySold: total,
			UserName:          unknownUserName,
		}
		if item, ok := items[key.ItemID]; ok {
			entry.ItemName = item.ItemName
			entry.Stock = item.Stock
			entry.Supplier = item.Supplier
			entry.ReorderLevel = item.ReorderLevel
		}
		if user, ok := users[key.UserID]; ok {
			entry.UserName = user.Name
		}
		entries = append(entries, entry)
	}

	slices.SortFunc(entries, func(a, b domain.FrequentItemEntry) int {
		if a.TotalQuantitySold != b.TotalQuantitySold {
			return b.TotalQuantitySold - a.TotalQuantitySold
		}
		if c := strings.Compare(a.ID, b.ID); c != 0 {
			return c
		}
		return strings.Compare(a.UserName, b.UserName)
	})

	return entries
}

func expandLines(lines []domain.SaleLine, items map[string]domain.Item) []domain.ExpandedSaleLine {
	expanded := make([]domain.ExpandedSaleLine, 0, len(lines))
	for _, line := range lines {
		out := domain.ExpandedSaleLine{Quantity: line.Quantity}
		if item, ok := items[line.ItemID]; ok {
			copied := item
			out.Item = &copied
		}
		expanded = append(expanded, out)
	}
	return expanded
}

func (s *Service) invalidateReportCache(ctx context.Context) {
	if err := s.reportCache.Invalidate(ctx, reportCacheKey); err != nil {
		log.Printf("[service] WARN: report cache invalidation failed: %v", err)
	}
}
