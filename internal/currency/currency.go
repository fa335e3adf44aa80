package currency

// Currency 币种标识，按值比较而非按名称比较
type Currency struct {
	Symbol   string
	Decimals uint8
}

// 支持的币种列表（创世时固定，扩展需要修改代码）
var (
	ETH  = Currency{Symbol: "ETH", Decimals: 18}
	USDC = Currency{Symbol: "USDC", Decimals: 6}
)

var allowList = []Currency{ETH, USDC}

// Supported 判断币种是否在支持列表中
func Supported(c Currency) bool {
	for _, a := range allowList {
		if a == c {
			return true
		}
	}
	return false
}

// BySymbol 根据币种符号查找币种
func BySymbol(symbol string) (Currency, bool) {
	for _, a := range allowList {
		if a.Symbol == symbol {
			return a, true
		}
	}
	return Currency{}, false
}

// Payment 一笔待转移的资金
type Payment struct {
	currency Currency
	amount   uint64
}

// NewPayment 创建资金对象
func NewPayment(c Currency, amount uint64) Payment {
	return Payment{currency: c, amount: amount}
}

// Currency 获取币种
func (p Payment) Currency() Currency {
	return p.currency
}

// Amount 获取金额（币种最小单位）
func (p Payment) Amount() uint64 {
	return p.amount
}
