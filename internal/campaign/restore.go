package campaign

import (
	"github.com/blues/gfs/internal/currency"
	"github.com/blues/gfs/internal/ledger"
	"github.com/blues/gfs/internal/notify"
	"github.com/blues/gfs/internal/poap"
	"github.com/ethereum/go-ethereum/common"
)

// RestoredContribution 恢复用的单笔贡献
type RestoredContribution struct {
	Contributor common.Address
	Amount      uint64
	Timestamp   int64
	Remark      string
}

// RestoreParams 从持久化快照恢复活动所需的全部字段。
// Contributions 按原始追加顺序给出仍然在账的贡献（已退款的不包含在内），
// 恢复时先回放贡献，再按已提取金额冲减，得到与落库一致的账本。
type RestoreParams struct {
	ID             int64
	Creator        common.Address
	CapHolder      common.Address
	Title          string
	Description    string
	ProfileURL     string
	BackgroundURL  string
	Currency       currency.Currency
	Goal           uint64
	CreationTime   int64
	Deadline       int64
	Status         Status
	TotalWithdrawn uint64
	PoapIssued     bool
	Contributions  []RestoredContribution
}

// Restore 从快照重建活动与管理凭证，不触发任何通知
func Restore(p RestoreParams, sink notify.Sink, issuer poap.Issuer) (*Campaign, *AdminCap, error) {
	fund := ledger.New()
	for _, rc := range p.Contributions {
		if err := fund.AddContribution(rc.Contributor, rc.Amount, rc.Remark, rc.Timestamp); err != nil {
			return nil, nil, err
		}
	}
	if p.TotalWithdrawn > 0 {
		if err := fund.WithdrawForCreator(p.TotalWithdrawn); err != nil {
			return nil, nil, err
		}
	}

	c := &Campaign{
		id:             p.ID,
		creator:        p.Creator,
		title:          p.Title,
		description:    p.Description,
		profileURL:     p.ProfileURL,
		backgroundURL:  p.BackgroundURL,
		currency:       p.Currency,
		goal:           p.Goal,
		fund:           fund,
		creationTime:   p.CreationTime,
		deadline:       p.Deadline,
		status:         p.Status,
		totalWithdrawn: p.TotalWithdrawn,
		poapIssued:     p.PoapIssued,
		sink:           sink,
		issuer:         issuer,
	}
	cap := &AdminCap{campaignID: p.ID, holder: p.CapHolder}

	return c, cap, nil
}
