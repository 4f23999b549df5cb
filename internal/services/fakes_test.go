package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/repositories"
)

// fixedNow is the instant all service tests pin their clocks to.
var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time {
	return fixedNow
}

// sequentialIDs returns deterministic ids id-1, id-2, ...
func sequentialIDs() func() string {
	counter := 0
	return func() string {
		counter++
		return fmt.Sprintf("id-%d", counter)
	}
}

func notFoundErr(op string) error {
	return repositories.NewError(op, repositories.ErrorNotFound, "", nil)
}

func insufficientStockErr(op string) error {
	return repositories.NewError(op, repositories.ErrorInsufficientStock, "", nil)
}

func conflictErr(op string) error {
	return repositories.NewError(op, repositories.ErrorConflict, "", nil)
}

// fakeUnitOfWork runs the closure inline; the fakes mutate shared maps so
// rollback is not simulated.
type fakeUnitOfWork struct {
	calls int
}

func (u *fakeUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	u.calls++
	return fn(ctx)
}

// inlineDispatcher runs jobs synchronously and records their names.
type inlineDispatcher struct {
	names []string
	errs  []error
}

func (d *inlineDispatcher) Dispatch(_ context.Context, name string, job func(ctx context.Context) error) {
	d.names = append(d.names, name)
	d.errs = append(d.errs, job(context.Background()))
}

type fakeUsers struct {
	byID     map[string]domain.User
	inserted []domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[string]domain.User)}
}

func (f *fakeUsers) Insert(_ context.Context, user domain.User) error {
	f.byID[user.ID] = user
	f.inserted = append(f.inserted, user)
	return nil
}

func (f *fakeUsers) Update(_ context.Context, user domain.User) error {
	if _, ok := f.byID[user.ID]; !ok {
		return notFoundErr("users.update")
	}
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, userID string) (domain.User, error) {
	user, ok := f.byID[userID]
	if !ok {
		return domain.User{}, notFoundErr("users.find")
	}
	return user, nil
}

func (f *fakeUsers) FindRegisteredByEmail(_ context.Context, email string) (domain.User, error) {
	for _, user := range f.byID {
		if user.Email == email && !user.IsGuest {
			return user, nil
		}
	}
	return domain.User{}, notFoundErr("users.find_by_email")
}

type fakeAddresses struct {
	byID     map[string]domain.Address
	inserted []domain.Address
}

func newFakeAddresses() *fakeAddresses {
	return &fakeAddresses{byID: make(map[string]domain.Address)}
}

func (f *fakeAddresses) Insert(_ context.Context, address domain.Address) error {
	f.byID[address.ID] = address
	f.inserted = append(f.inserted, address)
	return nil
}

func (f *fakeAddresses) FindByID(_ context.Context, addressID string) (domain.Address, error) {
	address, ok := f.byID[addressID]
	if !ok {
		return domain.Address{}, notFoundErr("addresses.find")
	}
	return address, nil
}

func (f *fakeAddresses) ListByUser(_ context.Context, userID string) ([]domain.Address, error) {
	var result []domain.Address
	for _, address := range f.byID {
		if address.UserID != nil && *address.UserID == userID && !address.IsGuest {
			result = append(result, address)
		}
	}
	return result, nil
}

type fakeProducts struct {
	byID map[string]domain.Product
	// decrements records combinationID -> total quantity taken.
	decrements map[string]int
	// failCombinations makes the conditional decrement report no stock.
	failCombinations map[string]bool
	lastFilter       repositories.ProductFilter
}

func newFakeProducts(products ...domain.Product) *fakeProducts {
	f := &fakeProducts{
		byID:             make(map[string]domain.Product),
		decrements:       make(map[string]int),
		failCombinations: make(map[string]bool),
	}
	for _, product := range products {
		f.byID[product.ID] = product
	}
	return f
}

func (f *fakeProducts) FindByID(_ context.Context, productID string) (domain.Product, error) {
	product, ok := f.byID[productID]
	if !ok {
		return domain.Product{}, notFoundErr("products.find")
	}
	return product, nil
}

func (f *fakeProducts) FindBatch(_ context.Context, productIDs []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(productIDs))
	for _, id := range productIDs {
		if product, ok := f.byID[id]; ok {
			result[id] = product
		}
	}
	return result, nil
}

func (f *fakeProducts) List(_ context.Context, filter repositories.ProductFilter, page domain.Pagination) (domain.Page[domain.Product], error) {
	f.lastFilter = filter
	items := make([]domain.Product, 0, len(f.byID))
	for _, product := range f.byID {
		items = append(items, product)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return domain.Page[domain.Product]{Items: items, Total: int64(len(items)), Page: page.Page, PageSize: page.PageSize}, nil
}

func (f *fakeProducts) DecrementCombinationStock(_ context.Context, combinationID string, quantity int) error {
	if f.failCombinations[combinationID] {
		return insufficientStockErr("products.decrement")
	}
	f.decrements[combinationID] += quantity
	return nil
}

func (f *fakeProducts) DecrementBaseStock(_ context.Context, productID string, quantity int) error {
	f.decrements[productID] += quantity
	return nil
}

type fakeShippingMethods struct {
	byID map[string]domain.ShippingMethod
}

func newFakeShippingMethods(methods ...domain.ShippingMethod) *fakeShippingMethods {
	f := &fakeShippingMethods{byID: make(map[string]domain.ShippingMethod)}
	for _, method := range methods {
		f.byID[method.ID] = method
	}
	return f
}

func (f *fakeShippingMethods) FindByID(_ context.Context, methodID string) (domain.ShippingMethod, error) {
	method, ok := f.byID[methodID]
	if !ok {
		return domain.ShippingMethod{}, notFoundErr("shipping.find")
	}
	return method, nil
}

func (f *fakeShippingMethods) ListActive(_ context.Context) ([]domain.ShippingMethod, error) {
	var result []domain.ShippingMethod
	for _, method := range f.byID {
		if method.Active {
			result = append(result, method)
		}
	}
	return result, nil
}

type statusUpdate struct {
	orderID string
	status  domain.OrderStatus
}

type fakeOrders struct {
	byID          map[string]domain.Order
	inserted      []domain.Order
	statusUpdates []statusUpdate
	lockedReads   []string
}

func newFakeOrders(orders ...domain.Order) *fakeOrders {
	f := &fakeOrders{byID: make(map[string]domain.Order)}
	for _, order := range orders {
		f.byID[order.ID] = order
	}
	return f
}

func (f *fakeOrders) Insert(_ context.Context, order domain.Order) error {
	f.byID[order.ID] = order
	f.inserted = append(f.inserted, order)
	return nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) error {
	order, ok := f.byID[orderID]
	if !ok {
		return notFoundErr("orders.update_status")
	}
	order.Status = status
	order.UpdatedAt = updatedAt
	f.byID[orderID] = order
	f.statusUpdates = append(f.statusUpdates, statusUpdate{orderID: orderID, status: status})
	return nil
}

func (f *fakeOrders) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	order, ok := f.byID[orderID]
	if !ok {
		return domain.Order{}, notFoundErr("orders.find")
	}
	return order, nil
}

func (f *fakeOrders) FindByIDForUpdate(ctx context.Context, orderID string) (domain.Order, error) {
	f.lockedReads = append(f.lockedReads, orderID)
	return f.FindByID(ctx, orderID)
}

func (f *fakeOrders) FindByNumber(_ context.Context, orderNumber string) (domain.Order, error) {
	for _, order := range f.byID {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return domain.Order{}, notFoundErr("orders.find_by_number")
}

func (f *fakeOrders) List(_ context.Context, filter repositories.OrderFilter, page domain.Pagination) (domain.Page[domain.Order], error) {
	var items []domain.Order
	for _, order := range f.byID {
		if filter.UserID != "" && order.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		items = append(items, order)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return domain.Page[domain.Order]{Items: items, Total: int64(len(items)), Page: page.Page, PageSize: page.PageSize}, nil
}

type fakePayments struct {
	byOrder map[string][]domain.Payment
}

func newFakePayments() *fakePayments {
	return &fakePayments{byOrder: make(map[string][]domain.Payment)}
}

func (f *fakePayments) Insert(_ context.Context, payment domain.Payment) error {
	f.byOrder[payment.OrderID] = append(f.byOrder[payment.OrderID], payment)
	return nil
}

func (f *fakePayments) ListByOrder(_ context.Context, orderID string) ([]domain.Payment, error) {
	return f.byOrder[orderID], nil
}

func (f *fakePayments) SumByOrder(_ context.Context, orderID string) (int64, error) {
	var sum int64
	for _, payment := range f.byOrder[orderID] {
		sum += payment.PaymentAmount
	}
	return sum, nil
}

type fakeRewardLedger struct {
	entries []domain.RewardPointEntry
}

func (f *fakeRewardLedger) Insert(_ context.Context, entry domain.RewardPointEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeRewardLedger) ActiveBalance(_ context.Context, userID string, now time.Time) (int64, error) {
	var balance int64
	for _, entry := range f.entries {
		if entry.UserID != userID {
			continue
		}
		if entry.Points < 0 {
			balance += int64(entry.Points)
			continue
		}
		if !entry.IsUsed && entry.ExpiryDate.After(now) {
			balance += int64(entry.Points)
		}
	}
	return balance, nil
}

func (f *fakeRewardLedger) ListRedeemable(_ context.Context, userID string, now time.Time) ([]domain.RewardPointEntry, error) {
	var result []domain.RewardPointEntry
	for _, entry := range f.entries {
		if entry.UserID == userID && entry.Points > 0 && !entry.IsUsed && entry.ExpiryDate.After(now) {
			result = append(result, entry)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ExpiryDate.Before(result[j].ExpiryDate) })
	return result, nil
}

func (f *fakeRewardLedger) MarkUsed(_ context.Context, entryIDs []string, usedOrderID string) error {
	marked := 0
	for i := range f.entries {
		for _, id := range entryIDs {
			if f.entries[i].ID == id {
				orderID := usedOrderID
				f.entries[i].IsUsed = true
				f.entries[i].UsedOrderID = &orderID
				marked++
			}
		}
	}
	if marked != len(entryIDs) {
		return conflictErr("rewards.mark_used")
	}
	return nil
}

func (f *fakeRewardLedger) ListByUser(_ context.Context, userID string, page domain.Pagination) (domain.Page[domain.RewardPointEntry], error) {
	var items []domain.RewardPointEntry
	for _, entry := range f.entries {
		if entry.UserID == userID {
			items = append(items, entry)
		}
	}
	return domain.Page[domain.RewardPointEntry]{Items: items, Total: int64(len(items)), Page: page.Page, PageSize: page.PageSize}, nil
}

func (f *fakeRewardLedger) entryByID(id string) (domain.RewardPointEntry, bool) {
	for _, entry := range f.entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return domain.RewardPointEntry{}, false
}

type fakeRewardRules struct {
	byProduct map[string]domain.RewardRule
}

func newFakeRewardRules(rules map[string]domain.RewardRule) *fakeRewardRules {
	if rules == nil {
		rules = make(map[string]domain.RewardRule)
	}
	return &fakeRewardRules{byProduct: rules}
}

func (f *fakeRewardRules) FindActiveForProducts(_ context.Context, productIDs []string, _ time.Time) (map[string]domain.RewardRule, error) {
	result := make(map[string]domain.RewardRule)
	for _, id := range productIDs {
		if rule, ok := f.byProduct[id]; ok {
			result[id] = rule
		}
	}
	return result, nil
}

type fakeCategories struct {
	byID          map[string]domain.Category
	productCounts map[string]int64
	deleted       []string
}

func newFakeCategories(categories ...domain.Category) *fakeCategories {
	f := &fakeCategories{
		byID:          make(map[string]domain.Category),
		productCounts: make(map[string]int64),
	}
	for _, category := range categories {
		f.byID[category.ID] = category
	}
	return f
}

func (f *fakeCategories) Insert(_ context.Context, category domain.Category) error {
	for _, existing := range f.byID {
		if existing.Slug == category.Slug {
			return conflictErr("categories.insert")
		}
	}
	f.byID[category.ID] = category
	return nil
}

func (f *fakeCategories) Update(_ context.Context, category domain.Category) error {
	if _, ok := f.byID[category.ID]; !ok {
		return notFoundErr("categories.update")
	}
	f.byID[category.ID] = category
	return nil
}

func (f *fakeCategories) Delete(_ context.Context, categoryID string) error {
	if _, ok := f.byID[categoryID]; !ok {
		return notFoundErr("categories.delete")
	}
	delete(f.byID, categoryID)
	f.deleted = append(f.deleted, categoryID)
	return nil
}

func (f *fakeCategories) FindByID(_ context.Context, categoryID string) (domain.Category, error) {
	category, ok := f.byID[categoryID]
	if !ok {
		return domain.Category{}, notFoundErr("categories.find")
	}
	return category, nil
}

func (f *fakeCategories) FindBySlug(_ context.Context, slug string) (domain.Category, error) {
	for _, category := range f.byID {
		if category.Slug == slug {
			return category, nil
		}
	}
	return domain.Category{}, notFoundErr("categories.find_by_slug")
}

func (f *fakeCategories) List(_ context.Context) ([]domain.Category, error) {
	items := make([]domain.Category, 0, len(f.byID))
	for _, category := range f.byID {
		items = append(items, category)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (f *fakeCategories) CountProducts(_ context.Context, categoryID string) (int64, error) {
	return f.productCounts[categoryID], nil
}

type markReadCall struct {
	userID string
	reader domain.SupportSender
}

type fakeSupport struct {
	messages  []domain.SupportMessage
	markReads []markReadCall
}

func (f *fakeSupport) Insert(_ context.Context, message domain.SupportMessage) error {
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeSupport) ListThread(_ context.Context, userID string, page domain.Pagination) (domain.Page[domain.SupportMessage], error) {
	var items []domain.SupportMessage
	for _, message := range f.messages {
		if message.UserID == userID {
			items = append(items, message)
		}
	}
	return domain.Page[domain.SupportMessage]{Items: items, Total: int64(len(items)), Page: page.Page, PageSize: page.PageSize}, nil
}

func (f *fakeSupport) ListThreads(_ context.Context, filter repositories.SupportThreadFilter, page domain.Pagination) (domain.Page[domain.SupportThread], error) {
	latest := make(map[string]domain.SupportMessage)
	unread := make(map[string]int64)
	for _, message := range f.messages {
		if filter.UserID != "" && message.UserID != filter.UserID {
			continue
		}
		if current, ok := latest[message.UserID]; !ok || message.CreatedAt.After(current.CreatedAt) {
			latest[message.UserID] = message
		}
		if message.Sender == domain.SupportSenderCustomer && !message.IsRead {
			unread[message.UserID]++
		}
	}
	var items []domain.SupportThread
	for userID, message := range latest {
		if filter.UnreadOnly && unread[userID] == 0 {
			continue
		}
		items = append(items, domain.SupportThread{
			UserID:        userID,
			LastMessage:   message.Body,
			LastSender:    message.Sender,
			LastMessageAt: message.CreatedAt,
			UnreadCount:   unread[userID],
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].LastMessageAt.After(items[j].LastMessageAt) })
	return domain.Page[domain.SupportThread]{Items: items, Total: int64(len(items)), Page: page.Page, PageSize: page.PageSize}, nil
}

func (f *fakeSupport) MarkRead(_ context.Context, userID string, reader domain.SupportSender) error {
	f.markReads = append(f.markReads, markReadCall{userID: userID, reader: reader})
	for i := range f.messages {
		if f.messages[i].UserID == userID && f.messages[i].Sender != reader {
			f.messages[i].IsRead = true
		}
	}
	return nil
}
