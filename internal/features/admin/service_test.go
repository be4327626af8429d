package admin

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"

	"beesmart.ct.ws/colony-bot/internal/common"
	"beesmart.ct.ws/colony-bot/internal/features/payments"
	"beesmart.ct.ws/colony-bot/internal/features/treasury"
)

// encodeArgon2id собирает хеш в том же формате, что scripts/generate_hash.go.
func encodeArgon2id(password string) string {
	salt := []byte("0123456789abcdef")
	hash := argon2.IDKey([]byte(password), salt, 3, 64*1024, 2, 32)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		64*1024, 3, 2,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
}

type fakeWithdrawals struct {
	pending []*treasury.WithdrawRequest
	paid    []int64
}

func (f *fakeWithdrawals) PendingWithdrawals(_ context.Context) ([]*treasury.WithdrawRequest, error) {
	return f.pending, nil
}

func (f *fakeWithdrawals) MarkPaid(_ context.Context, requestID int64) error {
	for _, req := range f.pending {
		if req.ID == requestID {
			f.paid = append(f.paid, requestID)
			return nil
		}
	}
	return common.ErrWithdrawalNotFound
}

type fakeClaims struct {
	claims []*payments.Claim
}

func (f *fakeClaims) GetByTxID(_ context.Context, txid string) (*payments.Claim, error) {
	for _, c := range f.claims {
		if c.TxID == txid {
			return c, nil
		}
	}
	return nil, common.ErrClaimNotFound
}

func (f *fakeClaims) GetByPlayer(_ context.Context, playerID int64, limit int) ([]*payments.Claim, error) {
	var out []*payments.Claim
	for _, c := range f.claims {
		if c.PlayerID == playerID && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func newTestService(withdrawals *fakeWithdrawals, claims *fakeClaims, password string) *Service {
	if withdrawals == nil {
		withdrawals = &fakeWithdrawals{}
	}
	if claims == nil {
		claims = &fakeClaims{}
	}
	return NewService(withdrawals, claims, encodeArgon2id(password))
}

func TestLogin_CorrectPassword(t *testing.T) {
	svc := newTestService(nil, nil, "miel-secreta")

	require.NoError(t, svc.Login(1, "miel-secreta"))
	assert.True(t, svc.IsAuthenticated(1))
	assert.False(t, svc.IsAuthenticated(2))

	svc.Logout(1)
	assert.False(t, svc.IsAuthenticated(1))
}

func TestLogin_WrongPasswordAndLockout(t *testing.T) {
	svc := newTestService(nil, nil, "miel-secreta")

	for i := 0; i < 3; i++ {
		err := svc.Login(1, "incorrecta")
		assert.ErrorIs(t, err, common.ErrWrongPassword)
	}

	// Четвёртая попытка блокируется даже с верным паролем
	err := svc.Login(1, "miel-secreta")
	assert.ErrorIs(t, err, common.ErrTooManyAttempts)
	assert.False(t, svc.IsAuthenticated(1))

	// Лимит на пользователя, не глобальный
	require.NoError(t, svc.Login(2, "miel-secreta"))
}

func TestLogin_MalformedHashNeverMatches(t *testing.T) {
	svc := NewService(&fakeWithdrawals{}, &fakeClaims{}, "не-хеш")
	err := svc.Login(1, "cualquiera")
	assert.ErrorIs(t, err, common.ErrWrongPassword)
}

func TestWithdrawalOperationsRequireAuth(t *testing.T) {
	store := &fakeWithdrawals{pending: []*treasury.WithdrawRequest{{ID: 7, PlayerID: 1}}}
	svc := newTestService(store, nil, "miel-secreta")

	ctx := context.Background()

	_, err := svc.PendingWithdrawals(ctx, 1)
	assert.ErrorIs(t, err, common.ErrNotAdmin)
	err = svc.MarkPaid(ctx, 1, 7)
	assert.ErrorIs(t, err, common.ErrNotAdmin)
	assert.Empty(t, store.paid)

	require.NoError(t, svc.Login(1, "miel-secreta"))

	reqs, err := svc.PendingWithdrawals(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, reqs, 1)

	require.NoError(t, svc.MarkPaid(ctx, 1, 7))
	assert.Equal(t, []int64{7}, store.paid)

	err = svc.MarkPaid(ctx, 1, 999)
	assert.ErrorIs(t, err, common.ErrWithdrawalNotFound)
}

func TestClaimAuditRequiresAuth(t *testing.T) {
	claims := &fakeClaims{claims: []*payments.Claim{
		{TxID: "tx-abc", PlayerID: 1, AmountNano: 380_000_000, Category: payments.CategoryBee},
		{TxID: "tx-def", PlayerID: 1, AmountNano: 380_000_000, Category: payments.CategoryColony},
		{TxID: "tx-xyz", PlayerID: 2, AmountNano: 5_000_000_000, Category: payments.CategoryBee},
	}}
	svc := newTestService(nil, claims, "miel-secreta")

	ctx := context.Background()

	_, err := svc.ClaimByTxID(ctx, 1, "tx-abc")
	assert.ErrorIs(t, err, common.ErrNotAdmin)
	_, err = svc.PlayerClaims(ctx, 1, 1)
	assert.ErrorIs(t, err, common.ErrNotAdmin)

	require.NoError(t, svc.Login(1, "miel-secreta"))

	claim, err := svc.ClaimByTxID(ctx, 1, "tx-abc")
	require.NoError(t, err)
	assert.Equal(t, int64(380_000_000), claim.AmountNano)

	_, err = svc.ClaimByTxID(ctx, 1, "tx-desconocido")
	assert.ErrorIs(t, err, common.ErrClaimNotFound)

	list, err := svc.PlayerClaims(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestFormatClaim(t *testing.T) {
	s := formatClaim(&payments.Claim{
		TxID:       "tx-abc",
		PlayerID:   7,
		AmountNano: 1_140_000_000,
		Category:   payments.CategoryBee,
	})
	assert.Contains(t, s, "tx-abc")
	assert.Contains(t, s, "1.14 TON")
	assert.Contains(t, s, "bee")
}
