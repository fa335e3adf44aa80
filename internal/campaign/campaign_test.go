package campaign

import (
	"errors"
	"strings"
	"testing"

	"github.com/blues/gfs/internal/currency"
	"github.com/blues/gfs/internal/notify"
	"github.com/ethereum/go-ethereum/common"
)

var (
	creator = common.HexToAddress("0x00000000000000000000000000000000000c0ffe")
	alice   = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	bob     = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol   = common.HexToAddress("0x00000000000000000000000000000000000ca501")
)

// recordingSink 记录全部通知
type recordingSink struct {
	notifications []notify.Notification
}

func (s *recordingSink) Emit(n notify.Notification) {
	s.notifications = append(s.notifications, n)
}

func (s *recordingSink) ofType(t notify.Type) []notify.Notification {
	var out []notify.Notification
	for _, n := range s.notifications {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// recordingIssuer 记录发放调用，可按地址注入失败
type recordingIssuer struct {
	issued []common.Address
	fail   map[common.Address]bool
}

func (i *recordingIssuer) Issue(campaignId int64, recipient common.Address, name, description string, amount uint64, url string, now int64) error {
	if i.fail[recipient] {
		return errors.New("mint failed")
	}
	i.issued = append(i.issued, recipient)
	return nil
}

func newTestCampaign(t *testing.T) (*Campaign, *AdminCap, *recordingSink, *recordingIssuer) {
	t.Helper()
	sink := &recordingSink{}
	issuer := &recordingIssuer{}
	c, cap, err := New(1, creator, "测试活动", "描述", currency.ETH, 100, 5000, 10, sink, issuer)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c, cap, sink, issuer
}

func eth(amount uint64) currency.Payment {
	return currency.NewPayment(currency.ETH, amount)
}

func TestNewValidation(t *testing.T) {
	sink := &recordingSink{}
	issuer := &recordingIssuer{}

	tests := []struct {
		name        string
		title       string
		description string
		cur         currency.Currency
		goal        uint64
		duration    int64
		now         int64
		wantErr     error
	}{
		{"empty title", "", "d", currency.ETH, 100, 5000, 10, ErrEmptyField},
		{"empty description", "t", "", currency.ETH, 100, 5000, 10, ErrEmptyField},
		{"title too long", strings.Repeat("a", MaxTitleLen+1), "d", currency.ETH, 100, 5000, 10, ErrFieldTooLong},
		{"description too long", "t", strings.Repeat("a", MaxDescriptionLen+1), currency.ETH, 100, 5000, 10, ErrFieldTooLong},
		{"zero goal", "t", "d", currency.ETH, 0, 5000, 10, ErrInvalidGoal},
		{"goal above max", "t", "d", currency.ETH, MaxGoal + 1, 5000, 10, ErrInvalidGoal},
		{"duration too short", "t", "d", currency.ETH, 100, MinDurationMillis - 1, 10, ErrInvalidDuration},
		{"duration too long", "t", "d", currency.ETH, 100, MaxDurationMillis + 1, 10, ErrInvalidDuration},
		{"unsupported currency", "t", "d", currency.Currency{Symbol: "DOGE", Decimals: 8}, 100, 5000, 10, ErrUnsupportedCurrency},
		{"deadline overflow", "t", "d", currency.ETH, 100, 5000, int64(^uint64(0) >> 1), ErrArithmeticOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := New(1, creator, tt.title, tt.description, tt.cur, tt.goal, tt.duration, tt.now, sink, issuer)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewEmitsCreated(t *testing.T) {
	c, cap, sink, _ := newTestCampaign(t)

	if c.Status() != StatusActive {
		t.Errorf("Status = %s, want active", c.Status())
	}
	if c.Deadline() != 5010 {
		t.Errorf("Deadline = %d, want 5010", c.Deadline())
	}
	if cap.CampaignID() != c.ID() || cap.Holder() != creator {
		t.Error("admin cap must be bound to the campaign and held by the creator")
	}

	created := sink.ofType(notify.TypeCampaignCreated)
	if len(created) != 1 {
		t.Fatalf("created notifications = %d, want 1", len(created))
	}
	if created[0].Timestamp != 10 {
		t.Errorf("Timestamp = %d, want 10", created[0].Timestamp)
	}
}

func TestContributeCrossesGoal(t *testing.T) {
	c, _, sink, issuer := newTestCampaign(t)

	isFirst, err := c.Contribute(alice, eth(60), "加油", 15)
	if err != nil {
		t.Fatalf("Contribute failed: %v", err)
	}
	if !isFirst {
		t.Error("first contribution must report isFirst")
	}
	if c.Status() != StatusActive {
		t.Errorf("Status = %s, want active before goal", c.Status())
	}

	isFirst, err = c.Contribute(bob, eth(40), "", 20)
	if err != nil {
		t.Fatalf("Contribute failed: %v", err)
	}
	if !isFirst {
		t.Error("bob's first contribution must report isFirst")
	}

	if c.Status() != StatusSuccessful {
		t.Fatalf("Status = %s, want successful", c.Status())
	}
	if c.Raised() != 100 {
		t.Errorf("Raised = %d, want 100", c.Raised())
	}

	reached := sink.ofType(notify.TypeGoalReached)
	if len(reached) != 1 {
		t.Fatalf("goal_reached notifications = %d, want 1", len(reached))
	}
	if got := reached[0].Data["time_to_goal"]; got != int64(10) {
		t.Errorf("time_to_goal = %v, want 10", got)
	}

	changed := sink.ofType(notify.TypeStatusChanged)
	if len(changed) != 1 {
		t.Fatalf("status_changed notifications = %d, want 1", len(changed))
	}
	if changed[0].Data["new_status"] != string(StatusSuccessful) {
		t.Errorf("new_status = %v, want successful", changed[0].Data["new_status"])
	}

	// 发放给全部贡献者，且只发放一次
	if len(issuer.issued) != 2 {
		t.Fatalf("issued = %d, want 2", len(issuer.issued))
	}
	if !c.PoapIssued() {
		t.Error("PoapIssued = false, want true")
	}
}

func TestContributeRejections(t *testing.T) {
	t.Run("zero amount", func(t *testing.T) {
		c, _, _, _ := newTestCampaign(t)
		if _, err := c.Contribute(alice, eth(0), "", 15); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("err = %v, want ErrInvalidAmount", err)
		}
	})

	t.Run("amount above max", func(t *testing.T) {
		c, _, _, _ := newTestCampaign(t)
		if _, err := c.Contribute(alice, eth(MaxGoal+1), "", 15); !errors.Is(err, ErrAmountTooLarge) {
			t.Errorf("err = %v, want ErrAmountTooLarge", err)
		}
	})

	t.Run("currency mismatch", func(t *testing.T) {
		c, _, _, _ := newTestCampaign(t)
		payment := currency.NewPayment(currency.USDC, 10)
		if _, err := c.Contribute(alice, payment, "", 15); !errors.Is(err, ErrCurrencyMismatch) {
			t.Errorf("err = %v, want ErrCurrencyMismatch", err)
		}
	})

	t.Run("remark too long", func(t *testing.T) {
		c, _, _, _ := newTestCampaign(t)
		remark := strings.Repeat("a", MaxRemarkLen+1)
		if _, err := c.Contribute(alice, eth(10), remark, 15); !errors.Is(err, ErrRemarkTooLong) {
			t.Errorf("err = %v, want ErrRemarkTooLong", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		c, _, _, _ := newTestCampaign(t)
		if _, err := c.Contribute(alice, eth(10), "", 5010); !errors.Is(err, ErrCampaignExpired) {
			t.Errorf("err = %v, want ErrCampaignExpired", err)
		}
	})

	t.Run("paused", func(t *testing.T) {
		c, _, _, _ := newTestCampaign(t)
		if err := c.Pause(creator, "维护", 15); err != nil {
			t.Fatalf("Pause failed: %v", err)
		}
		if _, err := c.Contribute(alice, eth(10), "", 20); !errors.Is(err, ErrCampaignPaused) {
			t.Errorf("err = %v, want ErrCampaignPaused", err)
		}
	})

	t.Run("goal already reached", func(t *testing.T) {
		c, _, _, _ := newTestCampaign(t)
		if _, err := c.Contribute(alice, eth(100), "", 15); err != nil {
			t.Fatalf("Contribute failed: %v", err)
		}
		if _, err := c.Contribute(bob, eth(1), "", 20); !errors.Is(err, ErrCampaignNotActive) {
			t.Errorf("err = %v, want ErrCampaignNotActive", err)
		}
	})

	t.Run("contribution would exceed goal", func(t *testing.T) {
		c, _, _, _ := newTestCampaign(t)
		if _, err := c.Contribute(alice, eth(60), "", 15); err != nil {
			t.Fatalf("Contribute failed: %v", err)
		}
		if _, err := c.Contribute(bob, eth(41), "", 20); !errors.Is(err, ErrArithmeticOverflow) {
			t.Errorf("err = %v, want ErrArithmeticOverflow", err)
		}
		// 正好补齐可以
		if _, err := c.Contribute(bob, eth(40), "", 25); err != nil {
			t.Errorf("exact fill failed: %v", err)
		}
	})
}

func TestRepeatContributionNotFirst(t *testing.T) {
	c, _, _, _ := newTestCampaign(t)

	if _, err := c.Contribute(alice, eth(10), "", 15); err != nil {
		t.Fatalf("Contribute failed: %v", err)
	}
	isFirst, err := c.Contribute(alice, eth(10), "", 20)
	if err != nil {
		t.Fatalf("Contribute failed: %v", err)
	}
	if isFirst {
		t.Error("repeat contribution must not report isFirst")
	}
	if c.ContributorCount() != 1 {
		t.Errorf("ContributorCount = %d, want 1", c.ContributorCount())
	}
	if c.ContributionCount(alice) != 2 {
		t.Errorf("ContributionCount = %d, want 2", c.ContributionCount(alice))
	}
}

func TestUpdateMetadata(t *testing.T) {
	t.Run("updates fields", func(t *testing.T) {
		c, cap, sink, _ := newTestCampaign(t)
		if err := c.UpdateTitle(cap, "新标题", 20); err != nil {
			t.Fatalf("UpdateTitle failed: %v", err)
		}
		if err := c.UpdateProfileURL(cap, "https://example.com/a.png", 21); err != nil {
			t.Fatalf("UpdateProfileURL failed: %v", err)
		}
		if c.Title() != "新标题" {
			t.Errorf("Title = %q", c.Title())
		}
		if len(sink.ofType(notify.TypeCampaignUpdated)) != 2 {
			t.Error("expected two campaign_updated notifications")
		}
	})

	t.Run("cap mismatch", func(t *testing.T) {
		c, _, _, _ := newTestCampaign(t)
		other := &AdminCap{campaignID: 999, holder: creator}
		if err := c.UpdateTitle(other, "x", 20); !errors.Is(err, ErrCapMismatch) {
			t.Errorf("err = %v, want ErrCapMismatch", err)
		}
		if err := c.UpdateTitle(nil, "x", 20); !errors.Is(err, ErrCapMismatch) {
			t.Errorf("err = %v, want ErrCapMismatch", err)
		}
	})

	t.Run("rejected after expiry", func(t *testing.T) {
		c, cap, _, _ := newTestCampaign(t)
		if err := c.UpdateTitle(cap, "x", 5010); !errors.Is(err, ErrCampaignExpired) {
			t.Errorf("err = %v, want ErrCampaignExpired", err)
		}
	})

	t.Run("rejected when not active", func(t *testing.T) {
		c, cap, _, _ := newTestCampaign(t)
		c.Pause(creator, "维护", 15)
		if err := c.UpdateTitle(cap, "x", 20); !errors.Is(err, ErrCampaignNotActive) {
			t.Errorf("err = %v, want ErrCampaignNotActive", err)
		}
	})

	t.Run("value bounds", func(t *testing.T) {
		c, cap, _, _ := newTestCampaign(t)
		if err := c.UpdateTitle(cap, "", 20); !errors.Is(err, ErrEmptyField) {
			t.Errorf("err = %v, want ErrEmptyField", err)
		}
		if err := c.UpdateProfileURL(cap, strings.Repeat("a", MaxURLLen+1), 20); !errors.Is(err, ErrFieldTooLong) {
			t.Errorf("err = %v, want ErrFieldTooLong", err)
		}
	})
}

func TestUpdateGoal(t *testing.T) {
	t.Run("raises goal", func(t *testing.T) {
		c, cap, sink, _ := newTestCampaign(t)
		if err := c.UpdateGoal(cap, creator, 200, 20); err != nil {
			t.Fatalf("UpdateGoal failed: %v", err)
		}
		if c.Goal() != 200 {
			t.Errorf("Goal = %d, want 200", c.Goal())
		}
		updated := sink.ofType(notify.TypeGoalUpdated)
		if len(updated) != 1 {
			t.Fatalf("goal_updated notifications = %d, want 1", len(updated))
		}
		if updated[0].Data["old_goal"] != uint64(100) || updated[0].Data["new_goal"] != uint64(200) {
			t.Errorf("unexpected payload: %v", updated[0].Data)
		}
	})

	t.Run("below raised rejected", func(t *testing.T) {
		c, cap, _, _ := newTestCampaign(t)
		c.Contribute(alice, eth(50), "", 15)
		if err := c.UpdateGoal(cap, creator, 49, 20); !errors.Is(err, ErrInvalidGoal) {
			t.Errorf("err = %v, want ErrInvalidGoal", err)
		}
	})

	t.Run("lowering to raised completes campaign", func(t *testing.T) {
		c, cap, sink, issuer := newTestCampaign(t)
		c.Contribute(alice, eth(50), "", 15)
		if err := c.UpdateGoal(cap, creator, 50, 20); err != nil {
			t.Fatalf("UpdateGoal failed: %v", err)
		}
		if c.Status() != StatusSuccessful {
			t.Fatalf("Status = %s, want successful", c.Status())
		}
		if len(sink.ofType(notify.TypeGoalReached)) != 1 {
			t.Error("expected goal_reached notification")
		}
		if len(issuer.issued) != 1 {
			t.Errorf("issued = %d, want 1", len(issuer.issued))
		}
	})

	t.Run("zero and oversized goal rejected", func(t *testing.T) {
		c, cap, _, _ := newTestCampaign(t)
		if err := c.UpdateGoal(cap, creator, 0, 20); !errors.Is(err, ErrInvalidGoal) {
			t.Errorf("err = %v, want ErrInvalidGoal", err)
		}
		if err := c.UpdateGoal(cap, creator, MaxGoal+1, 20); !errors.Is(err, ErrInvalidGoal) {
			t.Errorf("err = %v, want ErrInvalidGoal", err)
		}
	})
}

func TestPauseUnpause(t *testing.T) {
	c, _, sink, _ := newTestCampaign(t)

	if err := c.Pause(alice, "维护", 15); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("err = %v, want ErrNotAuthorized", err)
	}
	if err := c.Pause(creator, "", 15); !errors.Is(err, ErrEmptyReason) {
		t.Errorf("err = %v, want ErrEmptyReason", err)
	}

	if err := c.Pause(creator, "维护", 15); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if c.Status() != StatusPaused {
		t.Fatalf("Status = %s, want paused", c.Status())
	}
	if err := c.Pause(creator, "again", 16); !errors.Is(err, ErrCampaignNotActive) {
		t.Errorf("err = %v, want ErrCampaignNotActive", err)
	}

	if err := c.Unpause(alice, 20); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("err = %v, want ErrNotAuthorized", err)
	}
	if err := c.Unpause(creator, 20); err != nil {
		t.Fatalf("Unpause failed: %v", err)
	}
	if c.Status() != StatusActive {
		t.Fatalf("Status = %s, want active", c.Status())
	}
	if err := c.Unpause(creator, 21); !errors.Is(err, ErrCampaignNotPaused) {
		t.Errorf("err = %v, want ErrCampaignNotPaused", err)
	}

	// 到期后不能恢复
	c.Pause(creator, "维护", 22)
	if err := c.Unpause(creator, 5010); !errors.Is(err, ErrCampaignExpired) {
		t.Errorf("err = %v, want ErrCampaignExpired", err)
	}

	// 每次转换都有 status_changed
	if got := len(sink.ofType(notify.TypeStatusChanged)); got != 3 {
		t.Errorf("status_changed notifications = %d, want 3", got)
	}
}

func TestFinalizeFailed(t *testing.T) {
	c, _, sink, issuer := newTestCampaign(t)
	c.Contribute(alice, eth(30), "", 15)
	c.Contribute(bob, eth(20), "", 20)

	if _, _, err := c.FinalizeCampaign(creator, 5000); !errors.Is(err, ErrCampaignNotExpired) {
		t.Errorf("err = %v, want ErrCampaignNotExpired", err)
	}
	if _, _, err := c.FinalizeCampaign(alice, 5011); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("err = %v, want ErrNotAuthorized", err)
	}

	status, refunds, err := c.FinalizeCampaign(creator, 5011)
	if err != nil {
		t.Fatalf("FinalizeCampaign failed: %v", err)
	}
	if status != StatusFailed {
		t.Fatalf("status = %s, want failed", status)
	}
	if len(refunds) != 2 {
		t.Fatalf("len(refunds) = %d, want 2", len(refunds))
	}
	if c.Balance() != 0 {
		t.Errorf("Balance = %d, want 0 after drain", c.Balance())
	}
	if len(issuer.issued) != 0 {
		t.Error("failed campaign must not issue poaps")
	}
	if len(sink.ofType(notify.TypeCampaignFinalized)) != 1 {
		t.Error("expected campaign_finalized notification")
	}

	// 终态不可逆
	if _, _, err := c.FinalizeCampaign(creator, 5012); !errors.Is(err, ErrAlreadyFinalized) {
		t.Errorf("err = %v, want ErrAlreadyFinalized", err)
	}
	if _, err := c.Contribute(carol, eth(10), "", 5012); !errors.Is(err, ErrCampaignNotActive) {
		t.Errorf("err = %v, want ErrCampaignNotActive", err)
	}
}

func TestFinalizeSuccessful(t *testing.T) {
	c, _, sink, issuer := newTestCampaign(t)
	c.Contribute(alice, eth(100), "", 15)

	if c.Status() != StatusSuccessful {
		t.Fatalf("Status = %s, want successful after crossing", c.Status())
	}

	status, refunds, err := c.FinalizeCampaign(creator, 5011)
	if err != nil {
		t.Fatalf("FinalizeCampaign failed: %v", err)
	}
	if status != StatusSuccessful {
		t.Fatalf("status = %s, want successful", status)
	}
	if len(refunds) != 0 {
		t.Errorf("len(refunds) = %d, want 0", len(refunds))
	}

	// 状态未变，不再发 status_changed；goal_reached 会重复发出
	if got := len(sink.ofType(notify.TypeStatusChanged)); got != 1 {
		t.Errorf("status_changed notifications = %d, want 1", got)
	}
	if got := len(sink.ofType(notify.TypeGoalReached)); got != 2 {
		t.Errorf("goal_reached notifications = %d, want 2", got)
	}

	// 发放只执行一次
	if len(issuer.issued) != 1 {
		t.Errorf("issued = %d, want 1", len(issuer.issued))
	}
}

func TestFinalizePausedCampaign(t *testing.T) {
	c, _, sink, _ := newTestCampaign(t)
	c.Contribute(alice, eth(30), "", 15)
	c.Pause(creator, "维护", 20)

	status, refunds, err := c.FinalizeCampaign(creator, 5011)
	if err != nil {
		t.Fatalf("FinalizeCampaign failed: %v", err)
	}
	if status != StatusFailed {
		t.Fatalf("status = %s, want failed", status)
	}
	if len(refunds) != 1 {
		t.Errorf("len(refunds) = %d, want 1", len(refunds))
	}

	changed := sink.ofType(notify.TypeStatusChanged)
	last := changed[len(changed)-1]
	if last.Data["old_status"] != string(StatusPaused) || last.Data["new_status"] != string(StatusFailed) {
		t.Errorf("unexpected transition payload: %v", last.Data)
	}
}

func TestWithdrawFunds(t *testing.T) {
	t.Run("requires success and expiry", func(t *testing.T) {
		c, _, _, _ := newTestCampaign(t)
		c.Contribute(alice, eth(50), "", 15)
		if _, err := c.WithdrawFunds(creator, 50, 20); !errors.Is(err, ErrCampaignNotExpired) {
			t.Errorf("err = %v, want ErrCampaignNotExpired", err)
		}
		c.FinalizeCampaign(creator, 5011)
		if _, err := c.WithdrawFunds(creator, 50, 5012); !errors.Is(err, ErrNotSuccessful) {
			t.Errorf("err = %v, want ErrNotSuccessful", err)
		}
	})

	t.Run("partial then full", func(t *testing.T) {
		c, _, sink, _ := newTestCampaign(t)
		c.Contribute(alice, eth(100), "", 15)

		payment, err := c.WithdrawFunds(creator, 60, 5011)
		if err != nil {
			t.Fatalf("WithdrawFunds failed: %v", err)
		}
		if payment.Amount() != 60 || payment.Currency() != currency.ETH {
			t.Errorf("payment = %d %s", payment.Amount(), payment.Currency().Symbol)
		}
		if c.Status() != StatusSuccessful {
			t.Errorf("Status = %s, want successful after partial withdrawal", c.Status())
		}
		if c.Raised() != 100 {
			t.Errorf("Raised = %d, want 100 (withdrawal does not change raised)", c.Raised())
		}
		if c.Balance() != 40 {
			t.Errorf("Balance = %d, want 40", c.Balance())
		}

		if _, err := c.WithdrawFunds(creator, 41, 5012); !errors.Is(err, ErrArithmeticOverflow) {
			t.Errorf("err = %v, want ErrArithmeticOverflow", err)
		}

		if _, err := c.WithdrawFunds(creator, 40, 5012); err != nil {
			t.Fatalf("final withdrawal failed: %v", err)
		}
		if c.Status() != StatusWithdrawn {
			t.Fatalf("Status = %s, want withdrawn", c.Status())
		}
		if _, err := c.WithdrawFunds(creator, 1, 5013); !errors.Is(err, ErrFundsAlreadyWithdrawn) {
			t.Errorf("err = %v, want ErrFundsAlreadyWithdrawn", err)
		}

		if got := len(sink.ofType(notify.TypeFundsWithdrawn)); got != 2 {
			t.Errorf("funds_withdrawn notifications = %d, want 2", got)
		}
	})

	t.Run("rejections", func(t *testing.T) {
		c, _, _, _ := newTestCampaign(t)
		c.Contribute(alice, eth(100), "", 15)

		if _, err := c.WithdrawFunds(alice, 100, 5011); !errors.Is(err, ErrNotAuthorized) {
			t.Errorf("err = %v, want ErrNotAuthorized", err)
		}
		if _, err := c.WithdrawFunds(creator, 0, 5011); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("err = %v, want ErrInvalidAmount", err)
		}
		if _, err := c.WithdrawFunds(creator, 101, 5011); !errors.Is(err, ErrAmountTooLarge) {
			t.Errorf("err = %v, want ErrAmountTooLarge", err)
		}
	})

	t.Run("cancelled campaign", func(t *testing.T) {
		c, _, _, _ := newTestCampaign(t)
		c.CancelCampaign(creator, "放弃", 20)
		if _, err := c.WithdrawFunds(creator, 1, 5011); !errors.Is(err, ErrCampaignCancelled) {
			t.Errorf("err = %v, want ErrCampaignCancelled", err)
		}
	})
}

func TestCancelCampaign(t *testing.T) {
	c, _, sink, _ := newTestCampaign(t)
	c.Contribute(alice, eth(30), "", 15)
	c.Contribute(bob, eth(20), "", 20)

	if _, err := c.CancelCampaign(alice, "x", 25); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("err = %v, want ErrNotAuthorized", err)
	}
	if _, err := c.CancelCampaign(creator, "", 25); !errors.Is(err, ErrEmptyReason) {
		t.Errorf("err = %v, want ErrEmptyReason", err)
	}

	refunds, err := c.CancelCampaign(creator, "项目终止", 25)
	if err != nil {
		t.Fatalf("CancelCampaign failed: %v", err)
	}
	if len(refunds) != 2 {
		t.Fatalf("len(refunds) = %d, want 2", len(refunds))
	}
	if c.Status() != StatusCancelled {
		t.Fatalf("Status = %s, want cancelled", c.Status())
	}
	if c.Balance() != 0 {
		t.Errorf("Balance = %d, want 0", c.Balance())
	}

	cancelled := sink.ofType(notify.TypeCampaignCancelled)
	if len(cancelled) != 1 {
		t.Fatalf("campaign_cancelled notifications = %d, want 1", len(cancelled))
	}
	if cancelled[0].Data["total"] != uint64(50) {
		t.Errorf("total = %v, want 50", cancelled[0].Data["total"])
	}

	if _, err := c.CancelCampaign(creator, "again", 26); !errors.Is(err, ErrCampaignCancelled) {
		t.Errorf("err = %v, want ErrCampaignCancelled", err)
	}
}

func TestCancelSuccessfulBeforeWithdrawal(t *testing.T) {
	c, _, _, _ := newTestCampaign(t)
	c.Contribute(alice, eth(100), "", 15)

	// 成功但未提取仍可取消
	refunds, err := c.CancelCampaign(creator, "变故", 20)
	if err != nil {
		t.Fatalf("CancelCampaign failed: %v", err)
	}
	if len(refunds) != 1 || refunds[0].Amount != 100 {
		t.Fatalf("unexpected refunds: %v", refunds)
	}
	if c.Status() != StatusCancelled {
		t.Errorf("Status = %s, want cancelled", c.Status())
	}
}

func TestRefundContributor(t *testing.T) {
	c, _, _, _ := newTestCampaign(t)
	c.Contribute(alice, eth(30), "", 15)

	if _, err := c.RefundContributor(alice, "退出", 20); !errors.Is(err, ErrRefundNotAllowed) {
		t.Errorf("err = %v, want ErrRefundNotAllowed while active", err)
	}

	c.CancelCampaign(creator, "终止", 25)
	// 取消时账本已清空
	if _, err := c.RefundContributor(alice, "退出", 30); !errors.Is(err, ErrNoContributions) {
		t.Errorf("err = %v, want ErrNoContributions", err)
	}
}

func TestRefundContributorAfterFailure(t *testing.T) {
	c, _, sink, _ := newTestCampaign(t)
	c.Contribute(alice, eth(30), "", 15)
	c.Contribute(bob, eth(20), "", 20)

	// 手工清空前结算失败会退全部款，这里直接验证失败态下单独退款的路径:
	// 结算时不退款的场景只能通过状态机内部构造，改用取消后重新贡献不可行，
	// 因此用失败态的空账本验证错误，再用白盒方式补一笔在账贡献。
	c.FinalizeCampaign(creator, 5011)
	if c.Status() != StatusFailed {
		t.Fatalf("Status = %s, want failed", c.Status())
	}
	c.fund.AddContribution(carol, 10, "", 5000)

	amount, err := c.RefundContributor(carol, "取回", 5012)
	if err != nil {
		t.Fatalf("RefundContributor failed: %v", err)
	}
	if amount != 10 {
		t.Errorf("amount = %d, want 10", amount)
	}
	if _, err := c.RefundContributor(carol, "再来", 5013); !errors.Is(err, ErrNoContributions) {
		t.Errorf("err = %v, want ErrNoContributions", err)
	}

	refunded := sink.ofType(notify.TypeContributionRefunded)
	if len(refunded) != 1 {
		t.Errorf("contribution_refunded notifications = %d, want 1", len(refunded))
	}
}

func TestEmergencyRefund(t *testing.T) {
	c, _, sink, _ := newTestCampaign(t)
	c.Contribute(alice, eth(30), "", 15)

	if _, err := c.EmergencyRefund(alice, alice, "x", 20); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("err = %v, want ErrNotAuthorized", err)
	}
	if _, err := c.EmergencyRefund(creator, creator, "x", 20); !errors.Is(err, ErrSelfRefund) {
		t.Errorf("err = %v, want ErrSelfRefund", err)
	}
	if _, err := c.EmergencyRefund(creator, bob, "x", 20); !errors.Is(err, ErrNoContributions) {
		t.Errorf("err = %v, want ErrNoContributions", err)
	}

	amount, err := c.EmergencyRefund(creator, alice, "欺诈嫌疑", 20)
	if err != nil {
		t.Fatalf("EmergencyRefund failed: %v", err)
	}
	if amount != 30 {
		t.Errorf("amount = %d, want 30", amount)
	}
	if c.IsContributor(alice) {
		t.Error("refunded contributor must be removed")
	}

	refunded := sink.ofType(notify.TypeContributionRefunded)
	if len(refunded) != 1 || refunded[0].Data["emergency"] != true {
		t.Errorf("expected one emergency refund notification, got %v", refunded)
	}
}

func TestEmergencyRefundAfterWithdrawal(t *testing.T) {
	c, _, _, _ := newTestCampaign(t)
	c.Contribute(alice, eth(100), "", 15)
	c.WithdrawFunds(creator, 100, 5011)

	if _, err := c.EmergencyRefund(creator, alice, "x", 5012); !errors.Is(err, ErrFundsAlreadyWithdrawn) {
		t.Errorf("err = %v, want ErrFundsAlreadyWithdrawn", err)
	}
}

func TestRefundBatch(t *testing.T) {
	c, _, _, _ := newTestCampaign(t)
	c.Contribute(alice, eth(30), "", 15)
	c.Contribute(bob, eth(5), "", 20)

	if _, _, _, err := c.RefundBatch(creator, 100, 0, 10, "x", 25); !errors.Is(err, ErrRefundNotAllowed) {
		t.Errorf("err = %v, want ErrRefundNotAllowed while active", err)
	}

	c.FinalizeCampaign(creator, 5011)
	// 结算失败已清空账本，补两笔在账贡献走批量路径
	c.fund.AddContribution(alice, 30, "", 5000)
	c.fund.AddContribution(bob, 5, "", 5001)

	if _, _, _, err := c.RefundBatch(alice, 100, 0, 10, "x", 5012); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("err = %v, want ErrNotAuthorized", err)
	}
	if _, _, _, err := c.RefundBatch(creator, 100, 0, 10, "", 5012); !errors.Is(err, ErrEmptyReason) {
		t.Errorf("err = %v, want ErrEmptyReason", err)
	}

	refunds, next, complete, err := c.RefundBatch(creator, 10, 0, 10, "小额清退", 5012)
	if err != nil {
		t.Fatalf("RefundBatch failed: %v", err)
	}
	if len(refunds) != 1 || refunds[0].Contributor != bob {
		t.Fatalf("expected only bob refunded, got %v", refunds)
	}
	if !complete || next != 1 {
		t.Errorf("next = %d, complete = %v, want 1, true", next, complete)
	}
	if c.Balance() != 30 {
		t.Errorf("Balance = %d, want 30", c.Balance())
	}
}

func TestReentrancyGuard(t *testing.T) {
	c, cap, _, _ := newTestCampaign(t)
	c.Contribute(alice, eth(10), "", 15)
	c.busy = true

	if _, err := c.Contribute(bob, eth(10), "", 20); !errors.Is(err, ErrReentrancy) {
		t.Errorf("Contribute err = %v, want ErrReentrancy", err)
	}
	if err := c.UpdateTitle(cap, "x", 20); !errors.Is(err, ErrReentrancy) {
		t.Errorf("UpdateTitle err = %v, want ErrReentrancy", err)
	}
	if err := c.UpdateGoal(cap, creator, 200, 20); !errors.Is(err, ErrReentrancy) {
		t.Errorf("UpdateGoal err = %v, want ErrReentrancy", err)
	}
	if err := c.Pause(creator, "x", 20); !errors.Is(err, ErrReentrancy) {
		t.Errorf("Pause err = %v, want ErrReentrancy", err)
	}
	if err := c.Unpause(creator, 20); !errors.Is(err, ErrReentrancy) {
		t.Errorf("Unpause err = %v, want ErrReentrancy", err)
	}
	if _, err := c.RefundContributor(alice, "x", 20); !errors.Is(err, ErrReentrancy) {
		t.Errorf("RefundContributor err = %v, want ErrReentrancy", err)
	}
	if _, err := c.CancelCampaign(creator, "x", 20); !errors.Is(err, ErrReentrancy) {
		t.Errorf("CancelCampaign err = %v, want ErrReentrancy", err)
	}
	if _, _, err := c.FinalizeCampaign(creator, 5011); !errors.Is(err, ErrReentrancy) {
		t.Errorf("FinalizeCampaign err = %v, want ErrReentrancy", err)
	}
	if _, err := c.WithdrawFunds(creator, 1, 5011); !errors.Is(err, ErrReentrancy) {
		t.Errorf("WithdrawFunds err = %v, want ErrReentrancy", err)
	}
	if _, err := c.EmergencyRefund(creator, alice, "x", 20); !errors.Is(err, ErrReentrancy) {
		t.Errorf("EmergencyRefund err = %v, want ErrReentrancy", err)
	}
	if _, _, _, err := c.RefundBatch(creator, 10, 0, 10, "x", 20); !errors.Is(err, ErrReentrancy) {
		t.Errorf("RefundBatch err = %v, want ErrReentrancy", err)
	}

	// 标志清除后恢复正常
	c.busy = false
	if _, err := c.Contribute(bob, eth(10), "", 20); err != nil {
		t.Errorf("Contribute after clearing busy failed: %v", err)
	}
}

func TestPoapIssueFailureDoesNotBlock(t *testing.T) {
	sink := &recordingSink{}
	issuer := &recordingIssuer{fail: map[common.Address]bool{alice: true}}
	c, _, err := New(1, creator, "t", "d", currency.ETH, 100, 5000, 10, sink, issuer)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	c.Contribute(alice, eth(60), "", 15)
	if _, err := c.Contribute(bob, eth(40), "", 20); err != nil {
		t.Fatalf("Contribute failed: %v", err)
	}

	if c.Status() != StatusSuccessful {
		t.Fatalf("Status = %s, want successful", c.Status())
	}
	// alice发放失败不影响bob，也不影响一次性标记
	if len(issuer.issued) != 1 || issuer.issued[0] != bob {
		t.Errorf("issued = %v, want [bob]", issuer.issued)
	}
	if !c.PoapIssued() {
		t.Error("PoapIssued = false, want true even with partial failure")
	}
}

func TestAdminCapGrant(t *testing.T) {
	c, cap, _, _ := newTestCampaign(t)

	if err := cap.Grant(alice, bob); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("err = %v, want ErrNotAuthorized", err)
	}

	if err := cap.Grant(creator, alice); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}
	if cap.Holder() != alice {
		t.Errorf("Holder = %s, want alice", cap.Holder().Hex())
	}

	// 新持有者可以使用凭证，原持有者不再可以转授
	if err := c.UpdateTitle(cap, "新标题", 20); err != nil {
		t.Errorf("UpdateTitle with granted cap failed: %v", err)
	}
	if err := cap.Grant(creator, bob); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("err = %v, want ErrNotAuthorized for old holder", err)
	}
	if err := cap.Grant(alice, bob); err != nil {
		t.Errorf("Grant by new holder failed: %v", err)
	}
}

func TestRestoreRebuildsState(t *testing.T) {
	p := RestoreParams{
		ID:             7,
		Creator:        creator,
		CapHolder:      alice,
		Title:          "恢复",
		Description:    "d",
		Currency:       currency.ETH,
		Goal:           100,
		CreationTime:   10,
		Deadline:       5010,
		Status:         StatusSuccessful,
		TotalWithdrawn: 40,
		PoapIssued:     true,
		Contributions: []RestoredContribution{
			{Contributor: alice, Amount: 60, Timestamp: 15},
			{Contributor: bob, Amount: 40, Timestamp: 20},
		},
	}

	sink := &recordingSink{}
	c, cap, err := Restore(p, sink, &recordingIssuer{})
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if c.Status() != StatusSuccessful {
		t.Errorf("Status = %s, want successful", c.Status())
	}
	if c.Balance() != 60 {
		t.Errorf("Balance = %d, want 60", c.Balance())
	}
	if c.Raised() != 100 {
		t.Errorf("Raised = %d, want 100", c.Raised())
	}
	if cap.Holder() != alice {
		t.Errorf("cap holder = %s, want alice", cap.Holder().Hex())
	}
	if len(sink.notifications) != 0 {
		t.Errorf("restore must not emit notifications, got %d", len(sink.notifications))
	}

	// 恢复后可以继续提取剩余资金
	if _, err := c.WithdrawFunds(creator, 60, 5011); err != nil {
		t.Fatalf("WithdrawFunds after restore failed: %v", err)
	}
	if c.Status() != StatusWithdrawn {
		t.Errorf("Status = %s, want withdrawn", c.Status())
	}
}
