package ethereum

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/blues/gfs/internal/config"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client 链上操作客户端：POAP发放与退款/提款打款
type Client struct {
	client        *ethclient.Client
	privateKey    *ecdsa.PrivateKey
	poapAddr      common.Address
	chainId       *big.Int
	poapABI       abi.ABI
	confirmations int
}

// POAP合约ABI定义（简化版）
const poapABI = `[
	{
		"inputs": [
			{"name": "campaignId", "type": "uint256"},
			{"name": "recipient", "type": "address"},
			{"name": "name", "type": "string"},
			{"name": "description", "type": "string"},
			{"name": "amount", "type": "uint256"},
			{"name": "url", "type": "string"}
		],
		"name": "mint",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

const (
	mintGasLimit     = uint64(300000)
	transferGasLimit = uint64(21000)
)

func Init(cfg config.ChainConfig) (*Client, error) {
	// 连接以太坊客户端
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum client: %w", err)
	}

	// 解析私钥
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	// 解析ABI
	parsedABI, err := abi.JSON(strings.NewReader(poapABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse poap ABI: %w", err)
	}

	return &Client{
		client:        client,
		privateKey:    privateKey,
		poapAddr:      common.HexToAddress(cfg.PoapContract),
		chainId:       big.NewInt(cfg.ChainId),
		poapABI:       parsedABI,
		confirmations: cfg.Confirmations,
	}, nil
}

// MintPoap 调用POAP合约为某个贡献者发放参与证明
func (c *Client) MintPoap(campaignId int64, recipient common.Address, name, description string, amount uint64, url string) (common.Hash, error) {
	data, err := c.poapABI.Pack("mint",
		big.NewInt(campaignId),
		recipient,
		name,
		description,
		new(big.Int).SetUint64(amount),
		url,
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack mint call: %w", err)
	}

	return c.sendTransaction(c.poapAddr, big.NewInt(0), mintGasLimit, data)
}

// Pay 向指定地址打款（退款与提款交付）
func (c *Client) Pay(to common.Address, amount uint64) (string, error) {
	hash, err := c.sendTransaction(to, new(big.Int).SetUint64(amount), transferGasLimit, nil)
	if err != nil {
		return "", err
	}
	return hash.Hex(), nil
}

// sendTransaction 签名并发送一笔交易
func (c *Client) sendTransaction(to common.Address, value *big.Int, gasLimit uint64, data []byte) (common.Hash, error) {
	ctx := context.Background()
	from := c.AccountAddress()

	nonce, err := c.client.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to fetch nonce: %w", err)
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to fetch gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainId), c.privateKey)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.client.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	return signedTx.Hash(), nil
}

// GetLatestBlock 获取最新区块号
func (c *Client) GetLatestBlock() (uint64, error) {
	header, err := c.client.HeaderByNumber(context.Background(), nil)
	if err != nil {
		return 0, err
	}
	return header.Number.Uint64(), nil
}

// IsTransactionConfirmed 检查交易是否已确认
func (c *Client) IsTransactionConfirmed(txHash common.Hash) (bool, error) {
	receipt, err := c.client.TransactionReceipt(context.Background(), txHash)
	if err != nil {
		return false, err
	}
	if receipt == nil {
		return false, nil
	}

	latestBlock, err := c.GetLatestBlock()
	if err != nil {
		return false, err
	}

	return latestBlock >= receipt.BlockNumber.Uint64()+uint64(c.confirmations), nil
}

// AccountAddress 获取打款账户地址
func (c *Client) AccountAddress() common.Address {
	return crypto.PubkeyToAddress(c.privateKey.PublicKey)
}
