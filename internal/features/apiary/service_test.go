package apiary

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beesmart.ct.ws/colony-bot/internal/common"
	"beesmart.ct.ws/colony-bot/internal/features/payments"
	"beesmart.ct.ws/colony-bot/internal/game"
)

// fakeStore — in-memory реализация Store с той же транзакционной
// семантикой, что у Postgres-репозитория: мьютекс играет роль
// блокировки FOR UPDATE, карта claims — роль уникального индекса,
// правила перепроверяются под мьютексом.
type fakeStore struct {
	mu       sync.Mutex
	settings *game.Settings

	players  map[int64]bool
	colonies map[int64]*Colony
	bees     map[int64][]game.BeeKind // colonyID → пчёлы
	claims   map[string]*payments.Claim
	nextID   int64
}

func newFakeStore(settings *game.Settings) *fakeStore {
	return &fakeStore{
		settings: settings,
		players:  make(map[int64]bool),
		colonies: make(map[int64]*Colony),
		bees:     make(map[int64][]game.BeeKind),
		claims:   make(map[string]*payments.Claim),
		nextID:   1,
	}
}

func (f *fakeStore) addPlayer(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.players[id] = true
}

func (f *fakeStore) addColony(playerID int64, kind game.ColonyKind) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.colonies[id] = &Colony{
		ID:       id,
		PlayerID: playerID,
		Name:     fmt.Sprintf("Colmena %s", kind),
		Kind:     kind,
	}
	return id
}

func (f *fakeStore) beeCount(colonyID int64, kind game.BeeKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range f.bees[colonyID] {
		if k == kind {
			n++
		}
	}
	return n
}

func (f *fakeStore) GetColony(_ context.Context, colonyID, playerID int64) (*Colony, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.colonies[colonyID]
	if !ok || c.PlayerID != playerID {
		return nil, common.ErrColonyNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) CountColonies(_ context.Context, playerID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.colonies {
		if c.PlayerID == playerID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountBees(_ context.Context, colonyID int64, kind game.BeeKind) (int, error) {
	return f.beeCount(colonyID, kind), nil
}

func (f *fakeStore) insertClaim(c *payments.Claim) error {
	if _, exists := f.claims[c.TxID]; exists {
		return common.ErrReplayDetected
	}
	f.claims[c.TxID] = c
	return nil
}

func (f *fakeStore) GrantColony(_ context.Context, p GrantColonyParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.players[p.PlayerID] {
		return common.ErrPlayerNotFound
	}
	if err := f.insertClaim(p.Claim); err != nil {
		return err
	}
	count := 0
	for _, c := range f.colonies {
		if c.PlayerID == p.PlayerID {
			count++
		}
	}
	if err := game.CheckColonyPurchase(f.settings, p.Kind, count); err != nil {
		delete(f.claims, p.Claim.TxID) // откат
		return err
	}
	id := f.nextID
	f.nextID++
	f.colonies[id] = &Colony{ID: id, PlayerID: p.PlayerID, Name: p.Name, Kind: p.Kind}
	return nil
}

func (f *fakeStore) GrantBees(_ context.Context, p GrantBeesParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.colonies[p.ColonyID]
	if !ok || c.PlayerID != p.PlayerID {
		return common.ErrColonyNotFound
	}
	if err := f.insertClaim(p.Claim); err != nil {
		return err
	}
	current := 0
	for _, k := range f.bees[p.ColonyID] {
		if k == p.Kind {
			current++
		}
	}
	if err := game.CheckBeePurchase(c.Kind, p.Kind, current, p.Quantity); err != nil {
		delete(f.claims, p.Claim.TxID) // откат
		return err
	}
	for i := 0; i < p.Quantity; i++ {
		f.bees[p.ColonyID] = append(f.bees[p.ColonyID], p.Kind)
	}
	return nil
}

func (f *fakeStore) ListSummaries(_ context.Context, playerID int64) ([]*ColonySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*ColonySummary
	for _, c := range f.colonies {
		if c.PlayerID != playerID {
			continue
		}
		s := &ColonySummary{ID: c.ID, Name: c.Name, Kind: string(c.Kind), Bees: make(map[string]int)}
		for _, k := range f.bees[c.ID] {
			s.Bees[string(k)]++
			s.TotalBees++
		}
		out = append(out, s)
	}
	return out, nil
}

// fakeVerifier — заглушка оракула: txid → ожидаемая сумма платежа.
type fakeVerifier struct {
	payments    map[string]int64
	unavailable bool
}

func (f *fakeVerifier) Verify(_ context.Context, txid string, expectedNano int64) error {
	if f.unavailable {
		return common.ErrPaymentUnavailable
	}
	paid, ok := f.payments[txid]
	if !ok || paid != expectedNano {
		return common.ErrPaymentNotMatched
	}
	return nil
}

func testSettings() *game.Settings {
	return &game.Settings{
		MaxColonies:        6,
		CollectionCooldown: 24 * time.Hour,
		GotasPerLitro:      100,
		MinWithdrawLitros:  1,
	}
}

func newTestService(verifier *fakeVerifier) (*Service, *fakeStore) {
	store := newFakeStore(testSettings())
	return NewService(store, verifier, testSettings()), store
}

// TestBuyColonyAndBees_EndToEnd — полный сценарий: покупка колонии basica
// за 0.38 TON, потом трёх standard-пчёл одной транзакцией на 1.14 TON,
// потом повтор того же txid.
func TestBuyColonyAndBees_EndToEnd(t *testing.T) {
	verifier := &fakeVerifier{payments: map[string]int64{
		"tx-colony": 380_000_000,
		"tx-bees":   1_140_000_000, // 3 × 0.38 TON, точное целое
	}}
	svc, store := newTestService(verifier)
	store.addPlayer(1)

	ctx := context.Background()

	require.NoError(t, svc.BuyColony(ctx, 1, game.ColonyBasica, "tx-colony"))

	summaries, err := svc.ListSummaries(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	colonyID := summaries[0].ID

	require.NoError(t, svc.BuyBees(ctx, 1, colonyID, game.BeeStandard, 3, "tx-bees"))
	assert.Equal(t, 3, store.beeCount(colonyID, game.BeeStandard))

	// Повтор того же txid: отказ, ни одной новой пчелы
	err = svc.BuyBees(ctx, 1, colonyID, game.BeeStandard, 3, "tx-bees")
	assert.ErrorIs(t, err, common.ErrReplayDetected)
	assert.Equal(t, 3, store.beeCount(colonyID, game.BeeStandard))
}

func TestBuyBees_AmountMismatchRejected(t *testing.T) {
	// Оплачено на 1 наноТОН меньше, чем стоят 3 пчелы
	verifier := &fakeVerifier{payments: map[string]int64{
		"tx-short": 1_139_999_999,
	}}
	svc, store := newTestService(verifier)
	store.addPlayer(1)
	colonyID := store.addColony(1, game.ColonyBasica)

	err := svc.BuyBees(context.Background(), 1, colonyID, game.BeeStandard, 3, "tx-short")
	assert.ErrorIs(t, err, common.ErrPaymentNotMatched)
	assert.Equal(t, 0, store.beeCount(colonyID, game.BeeStandard))
}

func TestBuyBees_OracleUnavailableDoesNotBurnTxID(t *testing.T) {
	verifier := &fakeVerifier{
		payments:    map[string]int64{"tx-1": 380_000_000},
		unavailable: true,
	}
	svc, store := newTestService(verifier)
	store.addPlayer(1)
	colonyID := store.addColony(1, game.ColonyBasica)

	ctx := context.Background()
	err := svc.BuyBees(ctx, 1, colonyID, game.BeeStandard, 1, "tx-1")
	require.ErrorIs(t, err, common.ErrPaymentUnavailable)
	assert.Equal(t, 0, store.beeCount(colonyID, game.BeeStandard))

	// Оракул ожил — тот же txid проходит: отказ Unavailable ничего не погасил
	verifier.unavailable = false
	require.NoError(t, svc.BuyBees(ctx, 1, colonyID, game.BeeStandard, 1, "tx-1"))
	assert.Equal(t, 1, store.beeCount(colonyID, game.BeeStandard))
}

func TestBuyBees_RuleDenials(t *testing.T) {
	verifier := &fakeVerifier{payments: map[string]int64{}}
	svc, store := newTestService(verifier)
	store.addPlayer(1)
	starterID := store.addColony(1, game.ColonyFree)
	basicaID := store.addColony(1, game.ColonyBasica)

	ctx := context.Background()

	err := svc.BuyBees(ctx, 1, starterID, game.BeeStandard, 1, "tx-a")
	assert.ErrorIs(t, err, common.ErrStarterColony)

	err = svc.BuyBees(ctx, 1, basicaID, game.BeeGold, 1, "tx-b")
	assert.ErrorIs(t, err, common.ErrBeeNotAllowed)

	err = svc.BuyBees(ctx, 1, basicaID, game.BeeKind("queen"), 1, "tx-c")
	assert.ErrorIs(t, err, common.ErrUnknownBeeKind)

	err = svc.BuyBees(ctx, 1, basicaID, game.BeeStandard, 11, "tx-d")
	assert.ErrorIs(t, err, common.ErrColonyFull)

	err = svc.BuyBees(ctx, 1, basicaID, game.BeeStandard, 0, "tx-e")
	assert.ErrorIs(t, err, common.ErrInvalidAmount)

	err = svc.BuyBees(ctx, 1, basicaID, game.BeeStandard, 1, "")
	assert.ErrorIs(t, err, common.ErrInvalidRequest)

	err = svc.BuyBees(ctx, 2, basicaID, game.BeeStandard, 1, "tx-f")
	assert.ErrorIs(t, err, common.ErrColonyNotFound)

	// Ни одна отклонённая попытка не дошла до выдачи
	assert.Equal(t, 0, store.beeCount(basicaID, game.BeeStandard))
}

func TestBuyColony_Denials(t *testing.T) {
	verifier := &fakeVerifier{payments: map[string]int64{"tx-n": 380_000_000}}
	svc, store := newTestService(verifier)
	store.addPlayer(1)

	ctx := context.Background()

	err := svc.BuyColony(ctx, 1, game.ColonyKind("palacio"), "tx-n")
	assert.ErrorIs(t, err, common.ErrUnknownColonyKind)

	// Free не продаётся: её нет в каталоге цен
	err = svc.BuyColony(ctx, 1, game.ColonyFree, "tx-n")
	assert.ErrorIs(t, err, common.ErrUnknownColonyKind)

	for i := 0; i < 6; i++ {
		store.addColony(1, game.ColonyBasica)
	}
	err = svc.BuyColony(ctx, 1, game.ColonyBasica, "tx-n")
	assert.ErrorIs(t, err, common.ErrColonyLimit)
}

// TestBuyBees_ConcurrentReplay — N конкурентных запросов с одним txid:
// ровно один успех, остальные ErrReplayDetected, пчёл ровно qty.
func TestBuyBees_ConcurrentReplay(t *testing.T) {
	verifier := &fakeVerifier{payments: map[string]int64{
		"tx-race": 380_000_000,
	}}
	svc, store := newTestService(verifier)
	store.addPlayer(1)
	colonyID := store.addColony(1, game.ColonyBasica)

	const workers = 16
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.BuyBees(context.Background(), 1, colonyID, game.BeeStandard, 1, "tx-race")
		}()
	}
	wg.Wait()
	close(errs)

	success, replays := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			success++
		default:
			assert.ErrorIs(t, err, common.ErrReplayDetected)
			replays++
		}
	}
	assert.Equal(t, 1, success)
	assert.Equal(t, workers-1, replays)
	assert.Equal(t, 1, store.beeCount(colonyID, game.BeeStandard))
}

// TestBuyBees_ConcurrentCapacity — конкурентные покупки с разными txid:
// вместимость колонии не превышается никогда.
func TestBuyBees_ConcurrentCapacity(t *testing.T) {
	verifier := &fakeVerifier{payments: map[string]int64{}}
	const workers = 30 // заведомо больше вместимости basica (10)
	for i := 0; i < workers; i++ {
		verifier.payments[fmt.Sprintf("tx-%d", i)] = 380_000_000
	}
	svc, store := newTestService(verifier)
	store.addPlayer(1)
	colonyID := store.addColony(1, game.ColonyBasica)

	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- svc.BuyBees(context.Background(), 1, colonyID, game.BeeStandard, 1, fmt.Sprintf("tx-%d", i))
		}(i)
	}
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
		} else {
			assert.ErrorIs(t, err, common.ErrColonyFull)
		}
	}
	capacity := game.ColonyCapacity[game.ColonyBasica][game.BeeStandard]
	assert.Equal(t, capacity, success)
	assert.Equal(t, capacity, store.beeCount(colonyID, game.BeeStandard))
}
