package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"SplitTrackFM/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrChainUnreachable 链RPC网络/传输层失败，调用方可重试
var ErrChainUnreachable = errors.New("chain rpc unreachable")

// EventNotFoundError 交易已上链但回执日志中找不到 SongCreated 事件。
// 写入本身已经成功，不应盲目重试，带上交易哈希供人工检查。
type EventNotFoundError struct {
	TxHash string
}

func (e *EventNotFoundError) Error() string {
	return fmt.Sprintf("SongCreated event not found in logs of tx %s, inspect it on the block explorer", e.TxHash)
}

// CreateResult 一次成功的 createSong 调用产出的链上地址
type CreateResult struct {
	NFTAddress      string `json:"nftAddress"`
	SplitterAddress string `json:"splitterAddress"`
	TxHash          string `json:"txHash"`
	BlockNumber     uint64 `json:"blockNumber"`
}

// Factory 绑定到已部署 SplitTrackFactory 合约的调用端。
// 进程启动时构造一次，注入到服务层使用。
type Factory struct {
	abi     abi.ABI
	address common.Address
	eth     *ethclient.Client
	key     *ecdsa.PrivateKey
	sender  common.Address
	chainID *big.Int
	timeout time.Duration
}

// NewFactory 连接链RPC并准备合约调用端
func NewFactory(ctx context.Context, rpcURL, factoryAddress, privateKeyHex string, chainID int64) (*Factory, error) {
	if !common.IsHexAddress(factoryAddress) {
		return nil, fmt.Errorf("invalid factory contract address: %q", factoryAddress)
	}

	parsed, err := abi.JSON(strings.NewReader(splitTrackFactoryABI))
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid signing key: %w", err)
	}

	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrChainUnreachable, rpcURL, err)
	}

	f := &Factory{
		abi:     parsed,
		address: common.HexToAddress(factoryAddress),
		eth:     eth,
		key:     key,
		sender:  crypto.PubkeyToAddress(key.PublicKey),
		chainID: big.NewInt(chainID),
		timeout: 120 * time.Second,
	}

	logger.Info("工厂合约调用端已就绪",
		logger.String("factory", f.address.Hex()),
		logger.String("sender", f.sender.Hex()),
		logger.Int64("chainId", chainID))

	return f, nil
}

// Close 关闭链RPC连接
func (f *Factory) Close() {
	f.eth.Close()
}

// CreateSong 调用工厂合约创建 SongNFT / RevenueSplitter 合约对，
// 等待交易上链后从事件中解析出两个地址。百分比在这里统一换算成基点。
// 失败时不自动重试，重复提交可能造成重复铸造。
func (f *Factory) CreateSong(ctx context.Context, title, symbol, metadataURI string, recipients []string, percentages []int) (*CreateResult, error) {
	if len(recipients) == 0 {
		return nil, errors.New("at least one recipient wallet address is required")
	}
	if len(recipients) != len(percentages) {
		return nil, fmt.Errorf("recipients/percentages length mismatch: %d vs %d", len(recipients), len(percentages))
	}

	addrs := make([]common.Address, len(recipients))
	for i, r := range recipients {
		if !common.IsHexAddress(r) {
			return nil, fmt.Errorf("invalid wallet address %q", r)
		}
		addrs[i] = common.HexToAddress(r)
	}

	bps := make([]*big.Int, len(percentages))
	for i, p := range percentages {
		bps[i] = ToBasisPoints(p)
	}

	calldata, err := f.abi.Pack("createSong", title, symbol, metadataURI, addrs, bps)
	if err != nil {
		return nil, fmt.Errorf("pack createSong: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	nonce, err := f.eth.PendingNonceAt(ctx, f.sender)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", ErrChainUnreachable, err)
	}

	gasPrice, err := f.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: gas price: %v", ErrChainUnreachable, err)
	}

	gasLimit, err := f.eth.EstimateGas(ctx, ethereum.CallMsg{
		From: f.sender,
		To:   &f.address,
		Data: calldata,
	})
	if err != nil {
		return nil, fmt.Errorf("estimate createSong gas: %w", err)
	}

	tx, err := types.SignNewTx(f.key, types.LatestSignerForChainID(f.chainID), &types.LegacyTx{
		Nonce:    nonce,
		To:       &f.address,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     calldata,
	})
	if err != nil {
		return nil, fmt.Errorf("sign createSong tx: %w", err)
	}

	if err := f.eth.SendTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("%w: send: %v", ErrChainUnreachable, err)
	}

	logger.Info("createSong 交易已发送，等待确认",
		logger.String("txHash", tx.Hash().Hex()),
		logger.String("symbol", symbol),
		logger.Int("recipients", len(addrs)))

	receipt, err := bind.WaitMined(ctx, f.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("%w: wait mined %s: %v", ErrChainUnreachable, tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("createSong tx %s reverted", tx.Hash().Hex())
	}

	nftAddr, splitterAddr, ok := parseSongCreated(f.abi, f.address, receipt.Logs)
	if !ok {
		return nil, &EventNotFoundError{TxHash: tx.Hash().Hex()}
	}

	logger.Info("SongCreated 事件解析成功",
		logger.String("nftAddress", nftAddr.Hex()),
		logger.String("splitterAddress", splitterAddr.Hex()),
		logger.String("txHash", tx.Hash().Hex()))

	return &CreateResult{
		NFTAddress:      nftAddr.Hex(),
		SplitterAddress: splitterAddr.Hex(),
		TxHash:          tx.Hash().Hex(),
		BlockNumber:     receipt.BlockNumber.Uint64(),
	}, nil
}

// parseSongCreated 在回执日志中查找 SongCreated 事件，
// 同一笔交易中可能混有其他合约的日志，逐条容错匹配
func parseSongCreated(parsed abi.ABI, factory common.Address, logs []*types.Log) (common.Address, common.Address, bool) {
	event := parsed.Events["SongCreated"]

	for _, lg := range logs {
		if lg.Address != factory {
			continue
		}
		if len(lg.Topics) == 0 || lg.Topics[0] != event.ID {
			continue
		}

		values, err := event.Inputs.Unpack(lg.Data)
		if err != nil || len(values) < 2 {
			continue
		}

		nftAddr, ok1 := values[0].(common.Address)
		splitterAddr, ok2 := values[1].(common.Address)
		if !ok1 || !ok2 {
			continue
		}

		return nftAddr, splitterAddr, true
	}

	return common.Address{}, common.Address{}, false
}
