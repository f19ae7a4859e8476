package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"leadgate_backend/internal/ledger/ledgererr"
	ledgerrepo "leadgate_backend/internal/ledger/repository"
	prospectsvc "leadgate_backend/internal/prospects/service"
	"leadgate_backend/platform/apperr"
	"leadgate_backend/platform/events"
	"leadgate_backend/platform/logger"
)

type fakeLedger struct {
	mu      sync.Mutex
	balance int64
	txns    map[string]ledgerrepo.MutationResult
	history []string
}

func newFakeLedger(balance int64) *fakeLedger {
	return &fakeLedger{balance: balance, txns: make(map[string]ledgerrepo.MutationResult)}
}

func (f *fakeLedger) GetAccount(_ context.Context, requesterID uuid.UUID) (ledgerrepo.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ledgerrepo.Account{ID: requesterID, Balance: f.balance}, nil
}

func (f *fakeLedger) Debit(_ context.Context, _ uuid.UUID, amount int64, key, _ string) (ledgerrepo.MutationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.debitLocked(amount, key)
}

func (f *fakeLedger) debitLocked(amount int64, key string) (ledgerrepo.MutationResult, error) {
	if prior, ok := f.txns[key]; ok {
		prior.Replayed = true
		return prior, nil
	}
	if f.balance < amount {
		return ledgerrepo.MutationResult{}, &ledgererr.InsufficientCreditsError{Balance: f.balance, Required: amount}
	}
	f.balance -= amount
	result := ledgerrepo.MutationResult{TransactionID: uuid.New(), BalanceAfter: f.balance}
	f.txns[key] = result
	f.history = append(f.history, key)
	return result, nil
}

func (f *fakeLedger) Credit(_ context.Context, _ uuid.UUID, amount int64, key, _ string) (ledgerrepo.MutationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if prior, ok := f.txns[key]; ok {
		prior.Replayed = true
		return prior, nil
	}
	f.balance += amount
	result := ledgerrepo.MutationResult{TransactionID: uuid.New(), BalanceAfter: f.balance}
	f.txns[key] = result
	f.history = append(f.history, key)
	return result, nil
}

func (f *fakeLedger) FindTransaction(_ context.Context, key string) (ledgerrepo.Transaction, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result, ok := f.txns[key]
	if !ok {
		return ledgerrepo.Transaction{}, false, nil
	}
	return ledgerrepo.Transaction{
		ID:             result.TransactionID,
		IdempotencyKey: key,
		BalanceAfter:   result.BalanceAfter,
	}, true, nil
}

func (f *fakeLedger) transactionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.history)
}

func (f *fakeLedger) currentBalance() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance
}

type pair struct{ requester, prospect uuid.UUID }

type fakeEntitlements struct {
	mu        sync.Mutex
	pairs     map[pair]bool
	ledger    *fakeLedger
	createErr error
}

func newFakeEntitlements(l *fakeLedger) *fakeEntitlements {
	return &fakeEntitlements{pairs: make(map[pair]bool), ledger: l}
}

func (f *fakeEntitlements) Exists(_ context.Context, requesterID, prospectID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pairs[pair{requesterID, prospectID}], nil
}

func (f *fakeEntitlements) EntitledSet(_ context.Context, requesterID uuid.UUID, prospectIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]bool)
	for _, id := range prospectIDs {
		if f.pairs[pair{requesterID, id}] {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeEntitlements) Create(_ context.Context, requesterID, prospectID uuid.UUID, _ int64, _ string) (bool, error) {
	if f.createErr != nil {
		return false, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pair{requesterID, prospectID}
	if f.pairs[key] {
		return false, nil
	}
	f.pairs[key] = true
	return true, nil
}

// BulkUnlock mirrors the transactional store: validate everything first,
// then apply, so a failure leaves no partial state.
func (f *fakeEntitlements) BulkUnlock(_ context.Context, requesterID uuid.UUID, prospectIDs []uuid.UUID, costEach int64, keyFor func(uuid.UUID) string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ledger.mu.Lock()
	defer f.ledger.mu.Unlock()

	total := int64(0)
	for _, id := range prospectIDs {
		if f.pairs[pair{requesterID, id}] {
			return ledgererr.ErrConflict
		}
		if _, known := f.ledger.txns[keyFor(id)]; !known {
			total += costEach
		}
	}
	if f.ledger.balance < total {
		return &ledgererr.InsufficientCreditsError{Balance: f.ledger.balance, Required: total}
	}

	for _, id := range prospectIDs {
		if _, err := f.ledger.debitLocked(costEach, keyFor(id)); err != nil {
			return err
		}
		f.pairs[pair{requesterID, id}] = true
	}
	return nil
}

func (f *fakeEntitlements) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pairs)
}

type fakeViews struct {
	entitlements *fakeEntitlements
}

func (f *fakeViews) Reveal(ctx context.Context, requesterID, prospectID uuid.UUID) (prospectsvc.View, error) {
	revealed, _ := f.entitlements.Exists(ctx, requesterID, prospectID)
	view := prospectsvc.View{ID: prospectID, Revealed: revealed}
	if revealed {
		view.Email = "k.jansen@jansenbouw.nl"
	} else {
		view.Email = "k••••••@j••••••"
	}
	return view, nil
}

func newCoordinator(balance, cost int64) (*Service, *fakeLedger, *fakeEntitlements) {
	log := logger.New("test")
	ledgerFake := newFakeLedger(balance)
	entitlements := newFakeEntitlements(ledgerFake)
	svc := New(ledgerFake, entitlements, &fakeViews{entitlements: entitlements}, events.NewInMemoryBus(log), cost, log)
	return svc, ledgerFake, entitlements
}

func TestUnlockDebitsExactlyOnce(t *testing.T) {
	svc, ledgerFake, _ := newCoordinator(10, 5)
	requester, prospect := uuid.New(), uuid.New()
	ctx := context.Background()

	first, err := svc.Unlock(ctx, requester, prospect)
	if err != nil {
		t.Fatalf("first unlock: %v", err)
	}
	if first.Status != StatusUnlocked {
		t.Fatalf("first status = %q, want %q", first.Status, StatusUnlocked)
	}

	second, err := svc.Unlock(ctx, requester, prospect)
	if err != nil {
		t.Fatalf("second unlock: %v", err)
	}
	if second.Status != StatusAlreadyUnlocked {
		t.Fatalf("second status = %q, want %q", second.Status, StatusAlreadyUnlocked)
	}

	if got := ledgerFake.currentBalance(); got != 5 {
		t.Errorf("balance = %d, want 5 after a single debit", got)
	}
	if got := ledgerFake.transactionCount(); got != 1 {
		t.Errorf("transactions = %d, want 1", got)
	}
	if first.View != second.View {
		t.Errorf("views differ between calls: %+v vs %+v", first.View, second.View)
	}
}

func TestUnlockInsufficientCredits(t *testing.T) {
	svc, ledgerFake, entitlements := newCoordinator(3, 5)

	_, err := svc.Unlock(context.Background(), uuid.New(), uuid.New())

	if !apperr.Is(err, apperr.KindPaymentRequired) {
		t.Fatalf("err = %v, want payment-required", err)
	}
	if got := ledgerFake.currentBalance(); got != 3 {
		t.Errorf("balance = %d, want unchanged 3", got)
	}
	if entitlements.count() != 0 {
		t.Errorf("entitlements created despite rejection")
	}
}

func TestUnlockConcurrentSamePair(t *testing.T) {
	svc, ledgerFake, entitlements := newCoordinator(100, 5)
	requester, prospect := uuid.New(), uuid.New()

	const callers = 10
	outcomes := make([]Outcome, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = svc.Unlock(context.Background(), requester, prospect)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d failed: %v", i, err)
		}
	}
	if got := ledgerFake.transactionCount(); got != 1 {
		t.Errorf("transactions = %d, want exactly 1", got)
	}
	if got := entitlements.count(); got != 1 {
		t.Errorf("entitlements = %d, want exactly 1", got)
	}
	if got := ledgerFake.currentBalance(); got != 95 {
		t.Errorf("balance = %d, want 95 after one debit of 5", got)
	}
	for i, o := range outcomes {
		if o.View != outcomes[0].View {
			t.Errorf("caller %d saw view %+v, want identical view for all callers", i, o.View)
		}
		if !o.View.Revealed {
			t.Errorf("caller %d got an unrevealed view", i)
		}
	}
}

func TestUnlockConcurrentNeverNegative(t *testing.T) {
	const balance, cost = 12, 5
	svc, ledgerFake, _ := newCoordinator(balance, cost)
	requester := uuid.New()

	const callers = 6
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Unlock(context.Background(), requester, uuid.New())
		}(i)
	}
	wg.Wait()

	succeeded, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperr.Is(err, apperr.KindPaymentRequired):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if succeeded != balance/cost {
		t.Errorf("succeeded = %d, want %d", succeeded, balance/cost)
	}
	if rejected != callers-balance/cost {
		t.Errorf("rejected = %d, want %d", rejected, callers-balance/cost)
	}
	if got := ledgerFake.currentBalance(); got < 0 {
		t.Errorf("balance = %d, must never be negative", got)
	}
}

func TestBulkUnlockRejectsWholeBatchOnShortfall(t *testing.T) {
	svc, ledgerFake, entitlements := newCoordinator(12, 5)
	requester := uuid.New()
	prospects := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	_, err := svc.BulkUnlock(context.Background(), requester, prospects)

	var domainErr *apperr.Error
	if !errors.As(err, &domainErr) || domainErr.Kind != apperr.KindPaymentRequired {
		t.Fatalf("err = %v, want payment-required", err)
	}
	details, ok := domainErr.Details.(map[string]int64)
	if !ok {
		t.Fatalf("details = %#v, want balance/required/shortfall map", domainErr.Details)
	}
	if details["shortfall"] != 3 {
		t.Errorf("shortfall = %d, want 3 for the whole batch", details["shortfall"])
	}

	if got := ledgerFake.currentBalance(); got != 12 {
		t.Errorf("balance = %d, want unchanged 12", got)
	}
	if entitlements.count() != 0 {
		t.Errorf("entitlements = %d, want 0 after rejected batch", entitlements.count())
	}
}

func TestBulkUnlockSucceeds(t *testing.T) {
	svc, ledgerFake, entitlements := newCoordinator(12, 5)
	requester := uuid.New()
	prospects := []uuid.UUID{uuid.New(), uuid.New()}

	outcomes, err := svc.BulkUnlock(context.Background(), requester, prospects)
	if err != nil {
		t.Fatalf("BulkUnlock: %v", err)
	}

	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outcomes))
	}
	for _, o := range outcomes {
		if o.Status != StatusUnlocked {
			t.Errorf("prospect %s status = %q, want %q", o.ProspectID, o.Status, StatusUnlocked)
		}
		if !o.View.Revealed {
			t.Errorf("prospect %s view not revealed", o.ProspectID)
		}
	}
	if got := ledgerFake.currentBalance(); got != 2 {
		t.Errorf("balance = %d, want 2", got)
	}
	if got := ledgerFake.transactionCount(); got != 2 {
		t.Errorf("transactions = %d, want 2", got)
	}
	if got := entitlements.count(); got != 2 {
		t.Errorf("entitlements = %d, want 2", got)
	}
}

func TestBulkUnlockReturnsEntitledFree(t *testing.T) {
	svc, ledgerFake, entitlements := newCoordinator(5, 5)
	requester := uuid.New()
	owned, fresh := uuid.New(), uuid.New()
	entitlements.pairs[pair{requester, owned}] = true

	outcomes, err := svc.BulkUnlock(context.Background(), requester, []uuid.UUID{owned, fresh})
	if err != nil {
		t.Fatalf("BulkUnlock: %v", err)
	}

	byID := make(map[uuid.UUID]Status)
	for _, o := range outcomes {
		byID[o.ProspectID] = o.Status
	}
	if byID[owned] != StatusAlreadyUnlocked {
		t.Errorf("owned prospect status = %q, want %q", byID[owned], StatusAlreadyUnlocked)
	}
	if byID[fresh] != StatusUnlocked {
		t.Errorf("fresh prospect status = %q, want %q", byID[fresh], StatusUnlocked)
	}
	if got := ledgerFake.currentBalance(); got != 0 {
		t.Errorf("balance = %d, want 0: only the fresh prospect is charged", got)
	}
}

func TestEntitlementWriteFailureTriggersCompensation(t *testing.T) {
	svc, ledgerFake, entitlements := newCoordinator(10, 5)
	entitlements.createErr = errors.New("storage gone")
	requester, prospect := uuid.New(), uuid.New()

	_, err := svc.Unlock(context.Background(), requester, prospect)

	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("err = %v, want storage-unavailable", err)
	}
	if got := ledgerFake.currentBalance(); got != 10 {
		t.Errorf("balance = %d, want 10 restored by compensating credit", got)
	}
	if got := ledgerFake.transactionCount(); got != 2 {
		t.Fatalf("transactions = %d, want debit plus compensation", got)
	}

	compensation := ledgerFake.history[1]
	if !strings.HasSuffix(compensation, ":compensate") {
		t.Errorf("compensation key = %q, want :compensate suffix", compensation)
	}
}

func TestRetryAfterCompensationPaysAgain(t *testing.T) {
	svc, ledgerFake, entitlements := newCoordinator(10, 5)
	entitlements.createErr = errors.New("storage gone")
	requester, prospect := uuid.New(), uuid.New()

	if _, err := svc.Unlock(context.Background(), requester, prospect); err == nil {
		t.Fatal("first unlock succeeded despite entitlement write failure")
	}
	if got := ledgerFake.currentBalance(); got != 10 {
		t.Fatalf("balance = %d, want 10 after compensation", got)
	}

	// The original debit was refunded; the retry must not replay it and
	// walk away with a free unlock.
	entitlements.createErr = nil
	outcome, err := svc.Unlock(context.Background(), requester, prospect)
	if err != nil {
		t.Fatalf("retry unlock: %v", err)
	}

	if outcome.Status != StatusUnlocked {
		t.Errorf("status = %q, want %q", outcome.Status, StatusUnlocked)
	}
	if got := ledgerFake.currentBalance(); got != 5 {
		t.Errorf("balance = %d, want 5: the retried unlock must be charged", got)
	}
	if got := ledgerFake.transactionCount(); got != 3 {
		t.Errorf("transactions = %d, want debit, compensation and fresh debit", got)
	}
	if entitlements.count() != 1 {
		t.Errorf("entitlements = %d, want 1", entitlements.count())
	}

	retryKey := ledgerFake.history[2]
	if retryKey == ledgerFake.history[0] {
		t.Errorf("retry reused key %q of the reversed debit", retryKey)
	}
	if strings.HasSuffix(retryKey, ":compensate") {
		t.Errorf("retry key = %q, want a fresh debit key", retryKey)
	}
}
