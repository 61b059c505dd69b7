package contact

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"talentpass/ledger"
	"talentpass/native/escrow"
	"talentpass/native/profile"
	"talentpass/state"
	"talentpass/storage"
)

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

type testEnv struct {
	book     *ledger.Book
	profiles *profile.Registry
	engine   *Engine
	now      *int64
}

func withEnv(t *testing.T, fn func(*testEnv)) {
	t.Helper()
	mgr := state.NewManager(storage.NewMemDB())
	if err := mgr.Update(func(txn *state.Txn) error {
		now := int64(1_000_000)
		book := ledger.NewBook(txn)
		escrows := escrow.NewRegistry(txn, book)
		profiles := profile.NewRegistry(txn)
		engine := NewEngine(txn, profiles, escrows)
		engine.SetNowFunc(func() int64 { return now })
		env := &testEnv{book: book, profiles: profiles, engine: engine, now: &now}
		fn(env)
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
}

func (env *testEnv) createTarget(t *testing.T, owner [20]byte) *profile.Profile {
	t.Helper()
	p, err := env.profiles.Create(owner, &profile.Profile{
		Handle:            "grace",
		ContactTiers:      []profile.ContactTier{{Price: big.NewInt(50), Description: "intro"}},
		ResponseTimeHours: 24,
	})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	return p
}

func (env *testEnv) fund(t *testing.T, addr [20]byte, amount int64) {
	t.Helper()
	if err := env.book.Mint(DefaultToken, addr, big.NewInt(amount)); err != nil {
		t.Fatalf("mint: %v", err)
	}
}

func (env *testEnv) balance(t *testing.T, addr [20]byte) int64 {
	t.Helper()
	balance, err := env.book.BalanceOf(DefaultToken, addr)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return balance.Int64()
}

func TestSendEscrowsTierPrice(t *testing.T) {
	requester, owner := testAddr(0x01), testAddr(0x02)
	withEnv(t, func(env *testEnv) {
		target := env.createTarget(t, owner)
		env.fund(t, requester, 80)

		req, err := env.engine.Send(requester, target.ID, 0, "hello")
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		if req.Status != StatusPending || req.Amount.Int64() != 50 {
			t.Fatalf("request = %+v", req)
		}
		if req.ExpiresAt != req.CreatedAt+24*3600 {
			t.Fatalf("expiry window: created=%d expires=%d", req.CreatedAt, req.ExpiresAt)
		}
		if got := env.balance(t, requester); got != 30 {
			t.Fatalf("requester balance after send = %d", got)
		}
	})
}

func TestSendValidation(t *testing.T) {
	requester, owner := testAddr(0x01), testAddr(0x02)
	withEnv(t, func(env *testEnv) {
		target := env.createTarget(t, owner)
		env.fund(t, requester, 100)

		if _, err := env.engine.Send(requester, target.ID, 5, "hi"); !errors.Is(err, ErrInvalidTier) {
			t.Fatalf("bad tier: %v", err)
		}
		if _, err := env.engine.Send(requester, target.ID, 0, strings.Repeat("x", MaxMessage+1)); !errors.Is(err, ErrMessageTooLong) {
			t.Fatalf("long message: %v", err)
		}

		// A profile with no priced tiers does not accept contact.
		bare, err := env.profiles.Create(testAddr(0x03), &profile.Profile{Handle: "quiet"})
		if err != nil {
			t.Fatalf("create bare profile: %v", err)
		}
		if _, err := env.engine.Send(requester, bare.ID, 0, "hi"); !errors.Is(err, ErrNotContactable) {
			t.Fatalf("bare profile: %v", err)
		}
	})
}

func TestSendInsufficientFunds(t *testing.T) {
	requester, owner := testAddr(0x01), testAddr(0x02)
	withEnv(t, func(env *testEnv) {
		target := env.createTarget(t, owner)
		env.fund(t, requester, 49)
		_, err := env.engine.Send(requester, target.ID, 0, "hi")
		if !errors.Is(err, ledger.ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}
	})
}

func TestAcceptRefundsRequester(t *testing.T) {
	requester, owner := testAddr(0x01), testAddr(0x02)
	withEnv(t, func(env *testEnv) {
		target := env.createTarget(t, owner)
		env.fund(t, requester, 50)

		req, err := env.engine.Send(requester, target.ID, 0, "hello")
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		resolved, err := env.engine.Respond(owner, req.ID, true)
		if err != nil {
			t.Fatalf("respond: %v", err)
		}
		if resolved.Status != StatusAccepted {
			t.Fatalf("status = %s", resolved.Status)
		}
		if got := env.balance(t, requester); got != 50 {
			t.Fatalf("requester not refunded: %d", got)
		}
		if got := env.balance(t, owner); got != 0 {
			t.Fatalf("owner paid on accept: %d", got)
		}
	})
}

func TestRejectPaysTarget(t *testing.T) {
	requester, owner := testAddr(0x01), testAddr(0x02)
	withEnv(t, func(env *testEnv) {
		target := env.createTarget(t, owner)
		env.fund(t, requester, 50)

		req, err := env.engine.Send(requester, target.ID, 0, "hello")
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		resolved, err := env.engine.Respond(owner, req.ID, false)
		if err != nil {
			t.Fatalf("respond: %v", err)
		}
		if resolved.Status != StatusRejected {
			t.Fatalf("status = %s", resolved.Status)
		}
		if got := env.balance(t, requester); got != 0 {
			t.Fatalf("requester refunded on reject: %d", got)
		}
		if got := env.balance(t, owner); got != 50 {
			t.Fatalf("owner not paid: %d", got)
		}
	})
}

func TestRespondUnauthorized(t *testing.T) {
	requester, owner, stranger := testAddr(0x01), testAddr(0x02), testAddr(0x03)
	withEnv(t, func(env *testEnv) {
		target := env.createTarget(t, owner)
		env.fund(t, requester, 50)

		req, err := env.engine.Send(requester, target.ID, 0, "hello")
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		if _, err := env.engine.Respond(stranger, req.ID, true); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		stored, err := env.engine.Get(req.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if stored.Status != StatusPending {
			t.Fatalf("unauthorized call changed state: %s", stored.Status)
		}
	})
}

func TestRespondTwiceFails(t *testing.T) {
	requester, owner := testAddr(0x01), testAddr(0x02)
	withEnv(t, func(env *testEnv) {
		target := env.createTarget(t, owner)
		env.fund(t, requester, 50)

		req, err := env.engine.Send(requester, target.ID, 0, "hello")
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		if _, err := env.engine.Respond(owner, req.ID, true); err != nil {
			t.Fatalf("respond: %v", err)
		}
		if _, err := env.engine.Respond(owner, req.ID, false); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
		// The accept refund stands; the second respond paid nothing.
		if got := env.balance(t, requester); got != 50 {
			t.Fatalf("requester balance changed by second respond: %d", got)
		}
	})
}

func TestReclaimExpired(t *testing.T) {
	requester, owner := testAddr(0x01), testAddr(0x02)
	withEnv(t, func(env *testEnv) {
		target := env.createTarget(t, owner)
		env.fund(t, requester, 50)

		req, err := env.engine.Send(requester, target.ID, 0, "hello")
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		if _, err := env.engine.ReclaimExpired(req.ID); !errors.Is(err, ErrNotExpired) {
			t.Fatalf("reclaim before expiry: %v", err)
		}

		*env.now = req.ExpiresAt + 1
		resolved, err := env.engine.ReclaimExpired(req.ID)
		if err != nil {
			t.Fatalf("reclaim: %v", err)
		}
		if resolved.Status != StatusExpired {
			t.Fatalf("status = %s", resolved.Status)
		}
		if got := env.balance(t, requester); got != 50 {
			t.Fatalf("requester not refunded: %d", got)
		}

		// A second reclaim is an error, never a double payout.
		if _, err := env.engine.ReclaimExpired(req.ID); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("second reclaim: %v", err)
		}
		if got := env.balance(t, requester); got != 50 {
			t.Fatalf("second reclaim changed balance: %d", got)
		}
	})
}

func TestRespondAfterReclaimFails(t *testing.T) {
	requester, owner := testAddr(0x01), testAddr(0x02)
	withEnv(t, func(env *testEnv) {
		target := env.createTarget(t, owner)
		env.fund(t, requester, 50)

		req, err := env.engine.Send(requester, target.ID, 0, "hello")
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		*env.now = req.ExpiresAt + 1
		if _, err := env.engine.ReclaimExpired(req.ID); err != nil {
			t.Fatalf("reclaim: %v", err)
		}
		if _, err := env.engine.Respond(owner, req.ID, false); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("respond after reclaim: %v", err)
		}
	})
}
