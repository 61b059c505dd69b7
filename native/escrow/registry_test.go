package escrow

import (
	"errors"
	"math/big"
	"testing"

	"talentpass/ledger"
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

func testRequestID(fill byte) [32]byte {
	var id [32]byte
	for i := range id {
		id[i] = fill
	}
	return id
}

func withRegistry(t *testing.T, fn func(*Registry, *ledger.Book)) {
	t.Helper()
	mgr := state.NewManager(storage.NewMemDB())
	if err := mgr.Update(func(txn *state.Txn) error {
		book := ledger.NewBook(txn)
		fn(NewRegistry(txn, book), book)
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestOpenMovesDepositIntoVault(t *testing.T) {
	depositor := testAddr(0x01)
	requestID := testRequestID(0xA1)
	withRegistry(t, func(reg *Registry, book *ledger.Book) {
		if err := book.Mint("USDC", depositor, big.NewInt(50)); err != nil {
			t.Fatalf("mint: %v", err)
		}
		account, err := reg.Open(PurposeContact, requestID, depositor, "USDC", big.NewInt(50))
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if account.Balance.Int64() != 50 {
			t.Fatalf("escrow balance = %s", account.Balance)
		}
		depositorBalance, _ := book.BalanceOf("USDC", depositor)
		if depositorBalance.Sign() != 0 {
			t.Fatalf("depositor retained %s", depositorBalance)
		}
		vaultBalance, _ := book.BalanceOf("USDC", VaultAddress(account.ID))
		if vaultBalance.Int64() != 50 {
			t.Fatalf("vault holds %s", vaultBalance)
		}
	})
}

func TestOpenDuplicateFails(t *testing.T) {
	depositor := testAddr(0x01)
	requestID := testRequestID(0xA1)
	withRegistry(t, func(reg *Registry, book *ledger.Book) {
		if err := book.Mint("USDC", depositor, big.NewInt(100)); err != nil {
			t.Fatalf("mint: %v", err)
		}
		if _, err := reg.Open(PurposeContact, requestID, depositor, "USDC", big.NewInt(50)); err != nil {
			t.Fatalf("open: %v", err)
		}
		_, err := reg.Open(PurposeContact, requestID, depositor, "USDC", big.NewInt(50))
		if !errors.Is(err, ErrDuplicateEscrow) {
			t.Fatalf("expected ErrDuplicateEscrow, got %v", err)
		}
	})
}

func TestOpenDistinctPurposesShareRequestID(t *testing.T) {
	depositor := testAddr(0x01)
	requestID := testRequestID(0xA1)
	withRegistry(t, func(reg *Registry, book *ledger.Book) {
		if err := book.Mint("USDC", depositor, big.NewInt(100)); err != nil {
			t.Fatalf("mint: %v", err)
		}
		if _, err := reg.Open(PurposeContact, requestID, depositor, "USDC", big.NewInt(50)); err != nil {
			t.Fatalf("open contact: %v", err)
		}
		if _, err := reg.Open(PurposeJobBounty, requestID, depositor, "USDC", big.NewInt(50)); err != nil {
			t.Fatalf("open bounty: %v", err)
		}
	})
}

func TestOpenInsufficientFunds(t *testing.T) {
	depositor := testAddr(0x01)
	withRegistry(t, func(reg *Registry, book *ledger.Book) {
		_, err := reg.Open(PurposeContact, testRequestID(0xA1), depositor, "USDC", big.NewInt(50))
		if !errors.Is(err, ledger.ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}
	})
}

func TestReleaseConservesFunds(t *testing.T) {
	depositor, alice, bob := testAddr(0x01), testAddr(0x02), testAddr(0x03)
	withRegistry(t, func(reg *Registry, book *ledger.Book) {
		if err := book.Mint("USDC", depositor, big.NewInt(101)); err != nil {
			t.Fatalf("mint: %v", err)
		}
		account, err := reg.Open(PurposeJobBounty, testRequestID(0xB2), depositor, "USDC", big.NewInt(101))
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		err = reg.Release(account.ID, Distribution{
			{Recipient: alice, Amount: big.NewInt(50)},
			{Recipient: bob, Amount: big.NewInt(51)},
		})
		if err != nil {
			t.Fatalf("release: %v", err)
		}
		aliceBalance, _ := book.BalanceOf("USDC", alice)
		bobBalance, _ := book.BalanceOf("USDC", bob)
		vaultBalance, _ := book.BalanceOf("USDC", VaultAddress(account.ID))
		if aliceBalance.Int64() != 50 || bobBalance.Int64() != 51 || vaultBalance.Sign() != 0 {
			t.Fatalf("post-release balances: alice=%s bob=%s vault=%s", aliceBalance, bobBalance, vaultBalance)
		}
		stored, err := reg.Get(account.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !stored.Released || stored.Balance.Sign() != 0 {
			t.Fatalf("account not terminal: released=%v balance=%s", stored.Released, stored.Balance)
		}
	})
}

func TestReleaseDistributionMismatch(t *testing.T) {
	depositor, alice := testAddr(0x01), testAddr(0x02)
	withRegistry(t, func(reg *Registry, book *ledger.Book) {
		if err := book.Mint("USDC", depositor, big.NewInt(100)); err != nil {
			t.Fatalf("mint: %v", err)
		}
		account, err := reg.Open(PurposeContact, testRequestID(0xC3), depositor, "USDC", big.NewInt(100))
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		err = reg.Release(account.ID, Single(alice, big.NewInt(99)))
		if !errors.Is(err, ErrDistributionMismatch) {
			t.Fatalf("expected ErrDistributionMismatch, got %v", err)
		}
		vaultBalance, _ := book.BalanceOf("USDC", VaultAddress(account.ID))
		if vaultBalance.Int64() != 100 {
			t.Fatalf("failed release drained vault: %s", vaultBalance)
		}
	})
}

func TestReleaseTwiceFails(t *testing.T) {
	depositor, alice := testAddr(0x01), testAddr(0x02)
	withRegistry(t, func(reg *Registry, book *ledger.Book) {
		if err := book.Mint("USDC", depositor, big.NewInt(100)); err != nil {
			t.Fatalf("mint: %v", err)
		}
		account, err := reg.Open(PurposeContact, testRequestID(0xD4), depositor, "USDC", big.NewInt(100))
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if err := reg.Release(account.ID, Single(alice, big.NewInt(100))); err != nil {
			t.Fatalf("release: %v", err)
		}
		err = reg.Release(account.ID, Single(alice, big.NewInt(100)))
		if !errors.Is(err, ErrAlreadyReleased) {
			t.Fatalf("expected ErrAlreadyReleased, got %v", err)
		}
		aliceBalance, _ := book.BalanceOf("USDC", alice)
		if aliceBalance.Int64() != 100 {
			t.Fatalf("second release changed payout: %s", aliceBalance)
		}
	})
}

func TestDeriveIDDeterministic(t *testing.T) {
	requestID := testRequestID(0xE5)
	if DeriveID(PurposeContact, requestID) != DeriveID(PurposeContact, requestID) {
		t.Fatal("DeriveID not deterministic")
	}
	if DeriveID(PurposeContact, requestID) == DeriveID(PurposeJobBounty, requestID) {
		t.Fatal("purposes share an ID space")
	}
}
