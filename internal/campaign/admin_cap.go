package campaign

import (
	"github.com/ethereum/go-ethereum/common"
)

// AdminCap 活动管理凭证。与唯一一个活动绑定，绑定关系创建后不可变；
// 只能由当前持有者显式转授给新持有者，不可伪造。
type AdminCap struct {
	campaignID int64
	holder     common.Address
}

// CampaignID 凭证绑定的活动ID
func (a *AdminCap) CampaignID() int64 {
	return a.campaignID
}

// Holder 当前持有者
func (a *AdminCap) Holder() common.Address {
	return a.holder
}

// Grant 将凭证转授给新持有者，仅当前持有者可以执行
func (a *AdminCap) Grant(caller, newHolder common.Address) error {
	if caller != a.holder {
		return ErrNotAuthorized
	}
	a.holder = newHolder
	return nil
}
