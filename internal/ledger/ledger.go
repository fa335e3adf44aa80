package ledger

import (
	"errors"
	"math"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalidAmount       = errors.New("金额必须大于0")
	ErrNoContribution      = errors.New("未找到贡献记录")
	ErrInsufficientBalance = errors.New("余额不足")
	ErrIndexOutOfRange     = errors.New("索引超出范围")
	ErrBalanceOverflow     = errors.New("余额溢出")
)

// Entry 单笔贡献记录
type Entry struct {
	Amount    uint64 `json:"amount"`
	Timestamp int64  `json:"timestamp"`
	Remark    string `json:"remark"`
}

// Refund 一笔已从账本移除、待对外交付的退款
type Refund struct {
	Contributor common.Address `json:"contributor"`
	Amount      uint64         `json:"amount"`
}

// Ledger 贡献账本：每个贡献者的记录序列加总余额。
// 不变式：balance 恒等于所有记录金额之和，
// contributor 索引只包含至少有一条记录的地址，且保持插入顺序。
type Ledger struct {
	balance uint64
	records map[common.Address][]Entry
	index   []common.Address
	count   int
}

// New 创建空账本
func New() *Ledger {
	return &Ledger{
		records: make(map[common.Address][]Entry),
	}
}

// AddContribution 追加一笔贡献
func (l *Ledger) AddContribution(contributor common.Address, amount uint64, remark string, timestamp int64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if amount > math.MaxUint64-l.balance {
		return ErrBalanceOverflow
	}

	if _, ok := l.records[contributor]; !ok {
		l.index = append(l.index, contributor)
		l.count++
	}
	l.records[contributor] = append(l.records[contributor], Entry{
		Amount:    amount,
		Timestamp: timestamp,
		Remark:    remark,
	})
	l.balance += amount

	return nil
}

// WithdrawContribution 取出某个贡献者的全部贡献并移除其记录。
// 返回取出的总额，对外交付由调用方负责。
func (l *Ledger) WithdrawContribution(contributor common.Address) (uint64, error) {
	entries, ok := l.records[contributor]
	if !ok {
		return 0, ErrNoContribution
	}

	var total uint64
	for _, e := range entries {
		total += e.Amount
	}
	if total == 0 {
		return 0, ErrInvalidAmount
	}
	// 不变式保证不会发生，防御性检查
	if l.balance < total {
		return 0, ErrInsufficientBalance
	}

	l.removeContributor(contributor)
	l.balance -= total

	return total, nil
}

// RefundAllContributors 按插入顺序的逆序清空所有贡献者，
// 逆序遍历使得每一步的列表删除都是 O(1)。
func (l *Ledger) RefundAllContributors() ([]Refund, uint64) {
	var refunds []Refund
	var total uint64

	for i := len(l.index) - 1; i >= 0; i-- {
		contributor := l.index[i]
		amount, err := l.WithdrawContribution(contributor)
		if err != nil {
			continue
		}
		refunds = append(refunds, Refund{Contributor: contributor, Amount: amount})
		total += amount
	}

	return refunds, total
}

// RefundContributorsUnderAmount 可续跑的批量退款：从 startIndex 开始扫描，
// 总额不超过 maxAmount 的贡献者被整体退款（退款会缩短列表，因此不前进扫描位置），
// 否则跳过。最多检查 batchSize 个贡献者。返回本批退款、下一次的起始位置，
// 以及是否已扫描到列表末尾。
func (l *Ledger) RefundContributorsUnderAmount(maxAmount uint64, startIndex, batchSize int) ([]Refund, int, bool) {
	var refunds []Refund

	i := startIndex
	inspected := 0
	for i < len(l.index) && inspected < batchSize {
		contributor := l.index[i]
		total := l.ContributorTotal(contributor)
		if total <= maxAmount {
			amount, err := l.WithdrawContribution(contributor)
			if err == nil {
				refunds = append(refunds, Refund{Contributor: contributor, Amount: amount})
			}
			// 删除使后续元素前移，位置不变
		} else {
			i++
		}
		inspected++
	}

	return refunds, i, i >= len(l.index)
}

// WithdrawForCreator 为创建者划出指定金额，余额相应减少
func (l *Ledger) WithdrawForCreator(amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if l.balance < amount {
		return ErrInsufficientBalance
	}
	l.balance -= amount
	return nil
}

// Balance 当前余额
func (l *Ledger) Balance() uint64 {
	return l.balance
}

// ContributorCount 贡献者数量
func (l *Ledger) ContributorCount() int {
	return l.count
}

// ContributorAt 按位置取贡献者地址
func (l *Ledger) ContributorAt(index int) (common.Address, error) {
	if index < 0 || index >= l.count {
		return common.Address{}, ErrIndexOutOfRange
	}
	return l.index[index], nil
}

// ContributorTotal 某贡献者的贡献总额，不存在时为0
func (l *Ledger) ContributorTotal(contributor common.Address) uint64 {
	var total uint64
	for _, e := range l.records[contributor] {
		total += e.Amount
	}
	return total
}

// IsContributor 是否为贡献者
func (l *Ledger) IsContributor(contributor common.Address) bool {
	_, ok := l.records[contributor]
	return ok
}

// ContributionCount 某贡献者的贡献笔数
func (l *Ledger) ContributionCount(contributor common.Address) int {
	return len(l.records[contributor])
}

// Entries 某贡献者的全部记录，按追加顺序
func (l *Ledger) Entries(contributor common.Address) []Entry {
	return l.records[contributor]
}

// removeContributor 删除贡献者的记录并维护索引与计数
func (l *Ledger) removeContributor(contributor common.Address) {
	delete(l.records, contributor)
	for i, addr := range l.index {
		if addr == contributor {
			l.index = append(l.index[:i], l.index[i+1:]...)
			break
		}
	}
	l.count--
}
