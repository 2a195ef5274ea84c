package chain

import (
	"math/big"
	"strings"
)

// DefaultSymbol 标题清洗后为空时使用的占位符号
const DefaultSymbol = "SONG"

// DeriveSymbol 从歌曲标题派生NFT符号：转大写、去掉非字母数字字符、
// 截断到10个字符，结果为空时回退到占位符号
func DeriveSymbol(title string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(title) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	symbol := b.String()
	if len(symbol) > 10 {
		symbol = symbol[:10]
	}
	if symbol == "" {
		return DefaultSymbol
	}
	return symbol
}

// ToBasisPoints 把整数百分比换算成合约期望的基点（50% = 5000）
func ToBasisPoints(percent int) *big.Int {
	return big.NewInt(int64(percent) * 100)
}
