package campaign

import (
	"github.com/blues/gfs/internal/currency"
	"github.com/blues/gfs/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
)

// ID 活动ID
func (c *Campaign) ID() int64 { return c.id }

// Creator 创建者地址
func (c *Campaign) Creator() common.Address { return c.creator }

// Title 标题
func (c *Campaign) Title() string { return c.title }

// Description 描述
func (c *Campaign) Description() string { return c.description }

// ProfileURL 封面图片地址
func (c *Campaign) ProfileURL() string { return c.profileURL }

// BackgroundURL 背景图片地址
func (c *Campaign) BackgroundURL() string { return c.backgroundURL }

// Currency 接受的币种
func (c *Campaign) Currency() currency.Currency { return c.currency }

// Goal 目标金额
func (c *Campaign) Goal() uint64 { return c.goal }

// CreationTime 创建时间（毫秒）
func (c *Campaign) CreationTime() int64 { return c.creationTime }

// Deadline 截止时间（毫秒）
func (c *Campaign) Deadline() int64 { return c.deadline }

// Status 当前状态
func (c *Campaign) Status() Status { return c.status }

// TotalWithdrawn 创建者累计提取金额
func (c *Campaign) TotalWithdrawn() uint64 { return c.totalWithdrawn }

// PoapIssued 参与证明是否已发放
func (c *Campaign) PoapIssued() bool { return c.poapIssued }

// Balance 账本当前余额
func (c *Campaign) Balance() uint64 { return c.fund.Balance() }

// Raised 历史筹集总额
func (c *Campaign) Raised() uint64 { return c.totalRaised() }

// ContributorCount 贡献者数量
func (c *Campaign) ContributorCount() int { return c.fund.ContributorCount() }

// ContributorAt 按位置取贡献者地址
func (c *Campaign) ContributorAt(index int) (common.Address, error) {
	return c.fund.ContributorAt(index)
}

// ContributorTotal 某贡献者的贡献总额
func (c *Campaign) ContributorTotal(contributor common.Address) uint64 {
	return c.fund.ContributorTotal(contributor)
}

// IsContributor 是否为贡献者
func (c *Campaign) IsContributor(contributor common.Address) bool {
	return c.fund.IsContributor(contributor)
}

// ContributionCount 某贡献者的贡献笔数
func (c *Campaign) ContributionCount(contributor common.Address) int {
	return c.fund.ContributionCount(contributor)
}

// ContributionEntries 某贡献者的全部记录
func (c *Campaign) ContributionEntries(contributor common.Address) []ledger.Entry {
	return c.fund.Entries(contributor)
}

// IsExpired 活动是否已到期
func (c *Campaign) IsExpired(now int64) bool {
	return now >= c.deadline
}

// CanBeUpdated 是否允许更新（进行中且未到期）
func (c *Campaign) CanBeUpdated(now int64) bool {
	return c.status == StatusActive && now < c.deadline
}
