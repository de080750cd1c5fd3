package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"offerhive/internal/models"
	"offerhive/internal/repositories/interfaces"
	"offerhive/internal/repositories/mongodb"
	"offerhive/internal/utils"
	"offerhive/pkg/logger"
	"offerhive/pkg/sms"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. They enforce the same unique constraints the
// Mongo indexes do, so the services' idempotence paths are exercised for
// real.

func testLogger() *logger.Logger {
	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: "stderr"})
	if err != nil {
		panic(err)
	}
	return log
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	return fn(ctx)
}

// --- ledger ---

type fakeLedgerRepo struct {
	mu       sync.Mutex
	accounts map[primitive.ObjectID]*models.LedgerAccount
	entries  []*models.LedgerEntry
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{accounts: make(map[primitive.ObjectID]*models.LedgerAccount)}
}

func (f *fakeLedgerRepo) GetAccountByUserID(ctx context.Context, userID primitive.ObjectID) (*models.LedgerAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.UserID == userID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, mongodb.ErrNotFound
}

func (f *fakeLedgerRepo) CreateAccount(ctx context.Context, account *models.LedgerAccount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.UserID == account.UserID {
			return mongodb.ErrDuplicateKey
		}
	}
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}
	copied := *account
	f.accounts[account.ID] = &copied
	return nil
}

func (f *fakeLedgerRepo) availableOf(accountID primitive.ObjectID) decimal.Decimal {
	a, ok := f.accounts[accountID]
	if !ok {
		return decimal.Zero
	}
	d, _ := utils.FromDecimal128(a.BalanceAvailable)
	return d
}

func (f *fakeLedgerRepo) AdjustAvailable(ctx context.Context, accountID primitive.ObjectID, delta decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[accountID]
	if !ok {
		return mongodb.ErrNotFound
	}
	a.BalanceAvailable = utils.MustDecimal128(f.availableOf(accountID).Add(delta))
	return nil
}

func (f *fakeLedgerRepo) AdjustAvailableIfSufficient(ctx context.Context, accountID primitive.ObjectID, delta decimal.Decimal) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[accountID]
	if !ok {
		return false, nil
	}
	current := f.availableOf(accountID)
	if current.LessThan(delta.Neg()) {
		return false, nil
	}
	a.BalanceAvailable = utils.MustDecimal128(current.Add(delta))
	return true, nil
}

func (f *fakeLedgerRepo) SetBalances(ctx context.Context, accountID primitive.ObjectID, available, pending, frozen decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[accountID]
	if !ok {
		return mongodb.ErrNotFound
	}
	a.BalanceAvailable = utils.MustDecimal128(available)
	a.BalancePending = utils.MustDecimal128(pending)
	a.BalanceFrozen = utils.MustDecimal128(frozen)
	return nil
}

func (f *fakeLedgerRepo) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry.IdempotencyKey != "" {
		for _, e := range f.entries {
			if e.IdempotencyKey == entry.IdempotencyKey {
				return mongodb.ErrDuplicateKey
			}
		}
	}
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	entry.CreatedAt = time.Now()
	copied := *entry
	f.entries = append(f.entries, &copied)
	return nil
}

func (f *fakeLedgerRepo) GetEntryByID(ctx context.Context, id primitive.ObjectID) (*models.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.ID == id {
			copied := *e
			return &copied, nil
		}
	}
	return nil, mongodb.ErrNotFound
}

func (f *fakeLedgerRepo) GetEntryByIdempotencyKey(ctx context.Context, key string) (*models.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.IdempotencyKey == key {
			copied := *e
			return &copied, nil
		}
	}
	return nil, mongodb.ErrNotFound
}

func (f *fakeLedgerRepo) ListEntriesByUser(ctx context.Context, userID primitive.ObjectID, filter *interfaces.LedgerEntryFilter, params *utils.PaginationParams) ([]*models.LedgerEntry, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.LedgerEntry
	for _, e := range f.entries {
		if e.UserID != userID {
			continue
		}
		if filter != nil {
			if filter.Category != "" && e.Category != filter.Category {
				continue
			}
			if filter.Type != "" && e.Type != filter.Type {
				continue
			}
		}
		copied := *e
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (f *fakeLedgerRepo) SumEntriesByAccount(ctx context.Context, accountID primitive.ObjectID) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := decimal.Zero
	for _, e := range f.entries {
		if e.AccountID != accountID || e.Status != models.LedgerEntryStatusCompleted {
			continue
		}
		amount, err := utils.FromDecimal128(e.Amount)
		if err != nil {
			return decimal.Zero, err
		}
		if e.Type == models.LedgerEntryTypeDebit {
			amount = amount.Neg()
		}
		sum = sum.Add(amount)
	}
	return sum, nil
}

// --- users ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.TenantID != user.TenantID {
			continue
		}
		if user.Email != "" && u.Email == user.Email {
			return mongodb.ErrDuplicateKey
		}
		if user.Phone != "" && u.Phone == user.Phone {
			return mongodb.ErrDuplicateKey
		}
		if u.ReferralCode == user.ReferralCode {
			return mongodb.ErrDuplicateKey
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, mongodb.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return mongodb.ErrNotFound
	}
	for key, value := range updates {
		switch key {
		case "referred_by":
			id := value.(primitive.ObjectID)
			u.ReferredBy = &id
		case "status":
			u.Status = value.(models.UserStatus)
		case "last_login_at":
			t := value.(time.Time)
			u.LastLoginAt = &t
		case "is_email_verified":
			u.IsEmailVerified = value.(bool)
		case "is_phone_verified":
			u.IsPhoneVerified = value.(bool)
		}
	}
	u.UpdatedAt = time.Now()
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, tenantID primitive.ObjectID, email string) (*models.User, error) {
	return f.findBy(func(u *models.User) bool { return u.TenantID == tenantID && u.Email == email })
}

func (f *fakeUserRepo) GetByPhone(ctx context.Context, tenantID primitive.ObjectID, phone string) (*models.User, error) {
	return f.findBy(func(u *models.User) bool { return u.TenantID == tenantID && u.Phone == phone })
}

func (f *fakeUserRepo) GetByReferralCode(ctx context.Context, tenantID primitive.ObjectID, code string) (*models.User, error) {
	return f.findBy(func(u *models.User) bool { return u.TenantID == tenantID && u.ReferralCode == code })
}

func (f *fakeUserRepo) findBy(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, mongodb.ErrNotFound
}

func (f *fakeUserRepo) UpdateEmailVerification(ctx context.Context, id primitive.ObjectID, verified bool) error {
	return f.Update(ctx, id, map[string]interface{}{"is_email_verified": verified})
}

func (f *fakeUserRepo) UpdatePhoneVerification(ctx context.Context, id primitive.ObjectID, verified bool) error {
	return f.Update(ctx, id, map[string]interface{}{"is_phone_verified": verified})
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id primitive.ObjectID) error {
	return f.Update(ctx, id, map[string]interface{}{"last_login_at": time.Now()})
}

func (f *fakeUserRepo) List(ctx context.Context, tenantID primitive.ObjectID, params *utils.PaginationParams) ([]*models.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.users {
		if u.TenantID == tenantID {
			copied := *u
			out = append(out, &copied)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) GetByStatus(ctx context.Context, tenantID primitive.ObjectID, status models.UserStatus, params *utils.PaginationParams) ([]*models.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.users {
		if u.TenantID == tenantID && u.Status == status {
			copied := *u
			out = append(out, &copied)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) GetTotalCount(ctx context.Context, tenantID primitive.ObjectID) (int64, error) {
	_, n, err := f.List(ctx, tenantID, nil)
	return n, err
}

// --- referrals ---

type fakeReferralRepo struct {
	mu    sync.Mutex
	edges []*models.Referral
}

func newFakeReferralRepo() *fakeReferralRepo { return &fakeReferralRepo{} }

func (f *fakeReferralRepo) CreateMany(ctx context.Context, referrals []*models.Referral) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inserted := 0
	for _, ref := range referrals {
		dup := false
		for _, e := range f.edges {
			if e.InviterID == ref.InviterID && e.InviteeID == ref.InviteeID {
				dup = true
				break
			}
			if e.InviteeID == ref.InviteeID && e.Level == ref.Level {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		if ref.ID.IsZero() {
			ref.ID = primitive.NewObjectID()
		}
		ref.CreatedAt = time.Now()
		copied := *ref
		f.edges = append(f.edges, &copied)
		inserted++
	}
	return inserted, nil
}

func (f *fakeReferralRepo) GetUpline(ctx context.Context, inviteeID primitive.ObjectID) ([]*models.Referral, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Referral
	for _, e := range f.edges {
		if e.InviteeID == inviteeID {
			copied := *e
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	if len(out) > models.MaxReferralLevels {
		out = out[:models.MaxReferralLevels]
	}
	return out, nil
}

func (f *fakeReferralRepo) GetDirectUplineEdge(ctx context.Context, inviteeID primitive.ObjectID) (*models.Referral, error) {
	upline, err := f.GetUpline(ctx, inviteeID)
	if err != nil {
		return nil, err
	}
	if len(upline) == 0 || upline[0].Level != 1 {
		return nil, mongodb.ErrNotFound
	}
	return upline[0], nil
}

func (f *fakeReferralRepo) ListDownline(ctx context.Context, inviterID primitive.ObjectID, level int, params *utils.PaginationParams) ([]*models.Referral, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Referral
	for _, e := range f.edges {
		if e.InviterID != inviterID {
			continue
		}
		if level > 0 && e.Level != level {
			continue
		}
		copied := *e
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (f *fakeReferralRepo) GetStats(ctx context.Context, inviterID primitive.ObjectID) (*models.ReferralStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &models.ReferralStats{ByLevel: make(map[int]int)}
	for _, e := range f.edges {
		if e.InviterID == inviterID {
			stats.ByLevel[e.Level]++
			stats.Total++
		}
	}
	return stats, nil
}

// --- offers ---

type fakeOfferRepo struct {
	mu     sync.Mutex
	offers map[primitive.ObjectID]*models.Offer
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{offers: make(map[primitive.ObjectID]*models.Offer)}
}

func (f *fakeOfferRepo) Create(ctx context.Context, offer *models.Offer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if offer.ID.IsZero() {
		offer.ID = primitive.NewObjectID()
	}
	for i := range offer.Steps {
		if offer.Steps[i].ID.IsZero() {
			offer.Steps[i].ID = primitive.NewObjectID()
		}
	}
	copied := *offer
	f.offers[offer.ID] = &copied
	return nil
}

func (f *fakeOfferRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.offers[id]
	if !ok {
		return nil, mongodb.ErrNotFound
	}
	copied := *o
	return &copied, nil
}

func (f *fakeOfferRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.offers[id]
	if !ok {
		return mongodb.ErrNotFound
	}
	if v, ok := updates["is_active"]; ok {
		o.IsActive = v.(bool)
	}
	return nil
}

func (f *fakeOfferRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.offers, id)
	return nil
}

func (f *fakeOfferRepo) List(ctx context.Context, tenantID primitive.ObjectID, filter *interfaces.OfferFilter, params *utils.PaginationParams) ([]*models.Offer, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Offer
	for _, o := range f.offers {
		if o.TenantID != tenantID {
			continue
		}
		if filter != nil && filter.ActiveOnly && !o.IsActive {
			continue
		}
		copied := *o
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

// --- tasks ---

type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[primitive.ObjectID]*models.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[primitive.ObjectID]*models.Task)}
}

func (f *fakeTaskRepo) Create(ctx context.Context, task *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	task.CreatedAt = time.Now()
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, mongodb.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTaskRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return mongodb.ErrNotFound
	}
	applyTaskUpdates(t, updates)
	return nil
}

func (f *fakeTaskRepo) UpdateStatusIf(ctx context.Context, id primitive.ObjectID, expected models.TaskStatus, updates map[string]interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok || t.Status != expected {
		return false, nil
	}
	applyTaskUpdates(t, updates)
	return true, nil
}

func applyTaskUpdates(t *models.Task, updates map[string]interface{}) {
	for key, value := range updates {
		switch key {
		case "status":
			t.Status = value.(models.TaskStatus)
		case "step_data":
			t.StepData = value.([]models.TaskStepData)
		case "current_step":
			t.CurrentStep = value.(int)
		case "submitted_at":
			ts := value.(time.Time)
			t.SubmittedAt = &ts
		case "reviewed_at":
			ts := value.(time.Time)
			t.ReviewedAt = &ts
		case "reviewed_by":
			id := value.(primitive.ObjectID)
			t.ReviewedBy = &id
		case "approval_notes":
			t.ApprovalNotes = value.(string)
		case "rejection_reason":
			t.RejectionReason = value.(string)
		}
	}
	t.UpdatedAt = time.Now()
}

func (f *fakeTaskRepo) GetActiveByUserAndOffer(ctx context.Context, userID, offerID primitive.ObjectID) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.UserID == userID && t.OfferID == offerID && !t.Status.IsTerminal() {
			copied := *t
			return &copied, nil
		}
	}
	return nil, mongodb.ErrNotFound
}

func (f *fakeTaskRepo) ListByUser(ctx context.Context, userID primitive.ObjectID, filter *interfaces.TaskFilter, params *utils.PaginationParams) ([]*models.Task, int64, error) {
	return f.list(func(t *models.Task) bool { return t.UserID == userID }, filter)
}

func (f *fakeTaskRepo) ListByTenant(ctx context.Context, tenantID primitive.ObjectID, filter *interfaces.TaskFilter, params *utils.PaginationParams) ([]*models.Task, int64, error) {
	return f.list(func(t *models.Task) bool { return t.TenantID == tenantID }, filter)
}

func (f *fakeTaskRepo) list(match func(*models.Task) bool, filter *interfaces.TaskFilter) ([]*models.Task, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Task
	for _, t := range f.tasks {
		if !match(t) {
			continue
		}
		if filter != nil && filter.Status != "" && t.Status != filter.Status {
			continue
		}
		copied := *t
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (f *fakeTaskRepo) CountByStatus(ctx context.Context, tenantID primitive.ObjectID, status models.TaskStatus) (int64, error) {
	_, n, err := f.ListByTenant(ctx, tenantID, &interfaces.TaskFilter{Status: status}, nil)
	return n, err
}

// --- tenants ---

type fakeTenantRepo struct {
	mu      sync.Mutex
	tenants map[primitive.ObjectID]*models.Tenant
	// byHostname counts lookups so cache tests can assert on hits
	HostnameLookups int
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{tenants: make(map[primitive.ObjectID]*models.Tenant)}
}

func (f *fakeTenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tenant.ID.IsZero() {
		tenant.ID = primitive.NewObjectID()
	}
	copied := *tenant
	f.tenants[tenant.ID] = &copied
	return nil
}

func (f *fakeTenantRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[id]
	if !ok {
		return nil, mongodb.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTenantRepo) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tenants {
		if t.Slug == slug {
			copied := *t
			return &copied, nil
		}
	}
	return nil, mongodb.ErrNotFound
}

func (f *fakeTenantRepo) GetByHostname(ctx context.Context, hostname string) (*models.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.HostnameLookups++
	for _, t := range f.tenants {
		for _, h := range t.Hostnames {
			if h == hostname {
				copied := *t
				return &copied, nil
			}
		}
	}
	return nil, mongodb.ErrNotFound
}

func (f *fakeTenantRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[id]
	if !ok {
		return mongodb.ErrNotFound
	}
	if v, ok := updates["is_active"]; ok {
		t.IsActive = v.(bool)
	}
	return nil
}

func (f *fakeTenantRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Tenant, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Tenant
	for _, t := range f.tenants {
		copied := *t
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

// --- auth ---

type fakeOTPRepo struct {
	mu    sync.Mutex
	codes []*models.OTPCode
}

func newFakeOTPRepo() *fakeOTPRepo { return &fakeOTPRepo{} }

func (f *fakeOTPRepo) Create(ctx context.Context, otp *models.OTPCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	otp.ID = primitive.NewObjectID()
	otp.CreatedAt = time.Now()
	copied := *otp
	f.codes = append(f.codes, &copied)
	return nil
}

func (f *fakeOTPRepo) GetActive(ctx context.Context, tenantID primitive.ObjectID, identifier string) (*models.OTPCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.codes) - 1; i >= 0; i-- {
		c := f.codes[i]
		if c.TenantID == tenantID && c.Identifier == identifier && c.UsedAt == nil && c.ExpiresAt.After(time.Now()) {
			copied := *c
			return &copied, nil
		}
	}
	return nil, mongodb.ErrNotFound
}

func (f *fakeOTPRepo) MarkUsed(ctx context.Context, id primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.codes {
		if c.ID == id && c.UsedAt == nil {
			now := time.Now()
			c.UsedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOTPRepo) InvalidateForIdentifier(ctx context.Context, tenantID primitive.ObjectID, identifier string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, c := range f.codes {
		if c.TenantID == tenantID && c.Identifier == identifier && c.UsedAt == nil {
			c.UsedAt = &now
		}
	}
	return nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[primitive.ObjectID]*models.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[primitive.ObjectID]*models.Session)}
}

func (f *fakeSessionRepo) Create(ctx context.Context, session *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session.ID = primitive.NewObjectID()
	session.CreatedAt = time.Now()
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeSessionRepo) GetByRefreshToken(ctx context.Context, token string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.RefreshToken == token && s.ExpiresAt.After(time.Now()) {
			copied := *s
			return &copied, nil
		}
	}
	return nil, mongodb.ErrNotFound
}

func (f *fakeSessionRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionRepo) DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, id)
		}
	}
	return nil
}

// fakeSMS records sent messages so tests can read the delivered code.
type fakeSMS struct {
	mu   sync.Mutex
	sent []*sms.Request
}

func (f *fakeSMS) SendSMS(ctx context.Context, request *sms.Request) (*sms.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, request)
	return &sms.Response{MessageID: "fake", Status: "sent"}, nil
}

// fakeMailer records sent mail.
type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeMailer) Send(to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, body)
	return nil
}
