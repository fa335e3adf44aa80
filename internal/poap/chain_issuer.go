package poap

import (
	"github.com/blues/gfs/internal/ethereum"
	"github.com/blues/gfs/internal/logger"
	"github.com/blues/gfs/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// ChainIssuer 链上POAP发放器。每次发放先落库一条 pending 记录，
// 再通过协程池异步提交铸造交易并回写结果，核心操作不等待链上确认。
type ChainIssuer struct {
	client *ethereum.Client
	db     *gorm.DB
	pool   *ants.Pool
}

// NewChainIssuer 创建链上发放器
func NewChainIssuer(client *ethereum.Client, db *gorm.DB, poolSize int) (*ChainIssuer, error) {
	if poolSize <= 0 {
		poolSize = 10
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	return &ChainIssuer{
		client: client,
		db:     db,
		pool:   pool,
	}, nil
}

// Issue 为单个贡献者发放参与证明
func (i *ChainIssuer) Issue(campaignId int64, recipient common.Address, name, description string, amount uint64, url string, now int64) error {
	record := model.PoapRecordModel{
		CampaignId: campaignId,
		Recipient:  recipient.Hex(),
		Amount:     amount,
		Timestamp:  now,
		Status:     "pending",
	}
	if err := i.db.Create(&record).Error; err != nil {
		logger.Error("Failed to create poap record for campaign %d: %v", campaignId, err)
	}

	return i.pool.Submit(func() {
		txHash, err := i.client.MintPoap(campaignId, recipient, name, description, amount, url)
		if err != nil {
			logger.Error("Failed to mint poap for campaign %d to %s: %v", campaignId, recipient.Hex(), err)
			i.updateRecord(record.Id, "failed", "")
			return
		}

		logger.Info("Minted poap for campaign %d to %s, tx: %s", campaignId, recipient.Hex(), txHash.Hex())
		i.updateRecord(record.Id, "success", txHash.Hex())
	})
}

// Release 释放协程池
func (i *ChainIssuer) Release() {
	i.pool.Release()
}

// updateRecord 回写发放结果
func (i *ChainIssuer) updateRecord(recordId int64, status, txHash string) {
	updates := map[string]interface{}{
		"status": status,
	}
	if txHash != "" {
		updates["tx_hash"] = txHash
	}

	if err := i.db.Model(&model.PoapRecordModel{}).Where("id = ?", recordId).Updates(updates).Error; err != nil {
		logger.Error("Failed to update poap record %d: %v", recordId, err)
	}
}
