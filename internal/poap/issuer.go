package poap

import (
	"github.com/ethereum/go-ethereum/common"
)

// Issuer 参与证明（POAP）发放服务。活动成功后，为每个有贡献的地址
// 发放一枚不可转让的纪念凭证。发放是尽力而为的：单个地址的失败
// 不影响已提交的账本与状态变更。
type Issuer interface {
	Issue(campaignID int64, recipient common.Address, name, description string, amount uint64, url string, now int64) error
}

// NopIssuer 空实现，链未配置时使用
type NopIssuer struct{}

// Issue 不做任何事
func (NopIssuer) Issue(int64, common.Address, string, string, uint64, string, int64) error {
	return nil
}
