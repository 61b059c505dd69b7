package settlement

import (
	"errors"
	"math/big"
	"testing"

	"talentpass/core/events"
	"talentpass/native/contact"
	"talentpass/native/hiring"
	"talentpass/native/profile"
	"talentpass/native/rewards"
	"talentpass/storage"
)

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

type clock struct{ now int64 }

func newService(t *testing.T) (*Service, *clock, *events.Recorder) {
	t.Helper()
	clk := &clock{now: 1_000_000}
	recorder := &events.Recorder{}
	svc := New(storage.NewMemDB(),
		WithNowFunc(func() int64 { return clk.now }),
		WithEmitter(recorder),
	)
	return svc, clk, recorder
}

func mint(t *testing.T, svc *Service, token string, addr [20]byte, amount int64) {
	t.Helper()
	if err := svc.Mint(token, addr, big.NewInt(amount)); err != nil {
		t.Fatalf("mint: %v", err)
	}
}

func balance(t *testing.T, svc *Service, token string, addr [20]byte) int64 {
	t.Helper()
	b, err := svc.BalanceOf(token, addr)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return b.Int64()
}

// Requester escrows the tier fee; the owner accepting refunds it in full.
func TestContactAcceptFlow(t *testing.T) {
	svc, _, recorder := newService(t)
	requester, owner := testAddr(0x01), testAddr(0x02)
	mint(t, svc, "USDC", requester, 50)

	target, err := svc.CreateProfile(owner, &profile.Profile{
		Handle:            "grace",
		ContactTiers:      []profile.ContactTier{{Price: big.NewInt(50), Description: "intro"}},
		ResponseTimeHours: 48,
	})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	req, err := svc.SendContactRequest(requester, target.ID, 0, "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := balance(t, svc, "USDC", requester); got != 0 {
		t.Fatalf("fee not escrowed: %d", got)
	}
	if _, err := svc.RespondToContact(owner, req.ID, true); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if got := balance(t, svc, "USDC", requester); got != 50 {
		t.Fatalf("requester not refunded: %d", got)
	}
	if got := balance(t, svc, "USDC", owner); got != 0 {
		t.Fatalf("owner paid on accept: %d", got)
	}
	if len(recorder.ByType(events.TypeContactRequestAccepted)) != 1 {
		t.Fatal("missing acceptance event")
	}
}

// Rejecting pays the owner; expiry refunds the requester.
func TestContactRejectAndExpiry(t *testing.T) {
	svc, clk, _ := newService(t)
	requester, owner := testAddr(0x01), testAddr(0x02)
	mint(t, svc, "USDC", requester, 100)

	target, err := svc.CreateProfile(owner, &profile.Profile{
		Handle:            "grace",
		ContactTiers:      []profile.ContactTier{{Price: big.NewInt(50), Description: "intro"}},
		ResponseTimeHours: 48,
	})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}

	rejected, err := svc.SendContactRequest(requester, target.ID, 0, "first")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.RespondToContact(owner, rejected.ID, false); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if got := balance(t, svc, "USDC", owner); got != 50 {
		t.Fatalf("owner not paid on reject: %d", got)
	}

	expired, err := svc.SendContactRequest(requester, target.ID, 0, "second")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	clk.now = expired.ExpiresAt + 1
	if _, err := svc.ReclaimExpiredContact(expired.ID); err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if got := balance(t, svc, "USDC", requester); got != 50 {
		t.Fatalf("requester not refunded on expiry: %d", got)
	}
	if _, err := svc.ReclaimExpiredContact(expired.ID); !errors.Is(err, contact.ErrInvalidState) {
		t.Fatalf("second reclaim: %v", err)
	}
}

// A referred hire splits the bounty 50/50, consumes the referral and closes
// the job.
func TestReferredHireFlow(t *testing.T) {
	svc, _, recorder := newService(t)
	sponsor, recruiter, referrer, candidate := testAddr(0x01), testAddr(0x02), testAddr(0x03), testAddr(0x04)
	mint(t, svc, "USDC", sponsor, 5_000)
	mint(t, svc, "USDC", recruiter, 1_000)

	pool, err := svc.CreateRewardPool(sponsor, "USDC", []rewards.Tier{
		{RewardAmount: big.NewInt(1000), Description: "junior"},
	})
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	if _, err := svc.DepositToPool(sponsor, pool.ID, big.NewInt(5_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	referral, err := svc.CreateReferral(referrer, pool.ID, candidate)
	if err != nil {
		t.Fatalf("create referral: %v", err)
	}

	job, err := svc.CreateJob(recruiter, hiring.JobSpec{
		Title:        "Backend engineer",
		DeadlineDays: 30,
		Token:        "USDC",
		PoolID:       pool.ID,
	}, 1, big.NewInt(1000))
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	application, err := svc.ApplyToJob(candidate, job.ID, "hire me", &referral.ID)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.HireApplicant(recruiter, application.ID, 0); err != nil {
		t.Fatalf("hire: %v", err)
	}

	if got := balance(t, svc, "USDC", candidate); got != 500 {
		t.Fatalf("candidate paid %d", got)
	}
	if got := balance(t, svc, "USDC", referrer); got != 500 {
		t.Fatalf("referrer paid %d", got)
	}
	consumed, err := svc.GetReferral(referral.ID)
	if err != nil {
		t.Fatalf("get referral: %v", err)
	}
	if !consumed.Used {
		t.Fatal("referral not consumed")
	}
	closed, err := svc.GetJob(job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if closed.Active {
		t.Fatal("job still active")
	}
	if len(recorder.ByType(events.TypeReferralConsumed)) != 1 {
		t.Fatal("missing referral event")
	}
	if len(recorder.ByType(events.TypeApplicationHired)) != 1 {
		t.Fatal("missing hire event")
	}
}

// Without a referral the full bounty goes to the hired applicant.
func TestUnreferredHireFlow(t *testing.T) {
	svc, _, _ := newService(t)
	sponsor, recruiter, candidate := testAddr(0x01), testAddr(0x02), testAddr(0x03)
	mint(t, svc, "USDC", sponsor, 1_000)
	mint(t, svc, "USDC", recruiter, 1_000)

	pool, err := svc.CreateRewardPool(sponsor, "USDC", []rewards.Tier{
		{RewardAmount: big.NewInt(1000), Description: "junior"},
	})
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	job, err := svc.CreateJob(recruiter, hiring.JobSpec{
		Title:        "Backend engineer",
		DeadlineDays: 30,
		Token:        "USDC",
		PoolID:       pool.ID,
	}, 1, big.NewInt(1000))
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	application, err := svc.ApplyToJob(candidate, job.ID, "hire me", nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.HireApplicant(recruiter, application.ID, 0); err != nil {
		t.Fatalf("hire: %v", err)
	}
	if got := balance(t, svc, "USDC", candidate); got != 1000 {
		t.Fatalf("candidate paid %d", got)
	}
	stored, err := svc.GetRewardPool(pool.ID)
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if stored.TotalPaid.Int64() != 1000 {
		t.Fatalf("TotalPaid = %s", stored.TotalPaid)
	}
}

// A failed hire commits nothing: the settlement error discards every write of
// the unit of work.
func TestFailedHireRollsBack(t *testing.T) {
	svc, _, _ := newService(t)
	sponsor, recruiter, candidate := testAddr(0x01), testAddr(0x02), testAddr(0x03)
	mint(t, svc, "USDC", sponsor, 1_000)
	mint(t, svc, "USDC", recruiter, 1_000)

	pool, err := svc.CreateRewardPool(sponsor, "USDC", []rewards.Tier{
		{RewardAmount: big.NewInt(1000), Description: "junior"},
	})
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	job, err := svc.CreateJob(recruiter, hiring.JobSpec{
		Title:        "Backend engineer",
		DeadlineDays: 30,
		Token:        "USDC",
		PoolID:       pool.ID,
	}, 1, big.NewInt(1000))
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	application, err := svc.ApplyToJob(candidate, job.ID, "hire me", nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	// Tier 3 does not exist in the pool, so settlement fails.
	if _, err := svc.HireApplicant(recruiter, application.ID, 3); !errors.Is(err, rewards.ErrTierOutOfRange) {
		t.Fatalf("expected ErrTierOutOfRange, got %v", err)
	}
	stored, err := svc.GetApplication(application.ID)
	if err != nil {
		t.Fatalf("get application: %v", err)
	}
	if stored.Status != hiring.StatusApplied {
		t.Fatalf("failed hire changed application: %s", stored.Status)
	}
	open, err := svc.GetJob(job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if !open.Active {
		t.Fatal("failed hire closed the job")
	}
	if got := balance(t, svc, "USDC", candidate); got != 0 {
		t.Fatalf("failed hire paid %d", got)
	}

	// The job remains hireable with a valid tier.
	if _, err := svc.HireApplicant(recruiter, application.ID, 0); err != nil {
		t.Fatalf("retry hire: %v", err)
	}
	if got := balance(t, svc, "USDC", candidate); got != 1000 {
		t.Fatalf("retry paid %d", got)
	}
}

// Total supply is conserved across the whole lifecycle: every unit minted is
// attributable to a ledger account at the end.
func TestConservationAcrossFlows(t *testing.T) {
	svc, clk, _ := newService(t)
	requester, owner, recruiter, candidate := testAddr(0x01), testAddr(0x02), testAddr(0x03), testAddr(0x04)
	mint(t, svc, "USDC", requester, 100)
	mint(t, svc, "USDC", recruiter, 700)

	target, err := svc.CreateProfile(owner, &profile.Profile{
		Handle:            "grace",
		ContactTiers:      []profile.ContactTier{{Price: big.NewInt(100), Description: "intro"}},
		ResponseTimeHours: 24,
	})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	req, err := svc.SendContactRequest(requester, target.ID, 0, "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	clk.now = req.ExpiresAt + 1
	if _, err := svc.ReclaimExpiredContact(req.ID); err != nil {
		t.Fatalf("reclaim: %v", err)
	}

	job, err := svc.CreateJob(recruiter, hiring.JobSpec{
		Title:        "Backend engineer",
		DeadlineDays: 30,
		Token:        "USDC",
	}, 1, big.NewInt(700))
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	application, err := svc.ApplyToJob(candidate, job.ID, "hire me", nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.HireApplicant(recruiter, application.ID, 0); err != nil {
		t.Fatalf("hire: %v", err)
	}

	total := balance(t, svc, "USDC", requester) +
		balance(t, svc, "USDC", owner) +
		balance(t, svc, "USDC", recruiter) +
		balance(t, svc, "USDC", candidate)
	if total != 800 {
		t.Fatalf("supply not conserved: %d", total)
	}
	if got := balance(t, svc, "USDC", requester); got != 100 {
		t.Fatalf("requester = %d", got)
	}
	if got := balance(t, svc, "USDC", candidate); got != 700 {
		t.Fatalf("candidate = %d", got)
	}
}
