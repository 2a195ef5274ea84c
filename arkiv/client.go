package arkiv

import (
	"context"
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"SplitTrackFM/logger"
	"SplitTrackFM/model"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/rpc"
)

// entityStorageAddress 存储网络的实体处理器地址，实体创建交易都发往这里
var entityStorageAddress = common.HexToAddress("0x0000000000000000000000000000000060138453")

// 存储链出块间隔约2秒，TTL按秒换算为块数
const storageBlockSeconds = 2

// Client 通过JSON-RPC访问存储网络的客户端。
// 在进程启动时显式构造并注入使用方，不提供包级单例。
type Client struct {
	rpc     *rpc.Client
	eth     *ethclient.Client
	key     *ecdsa.PrivateKey
	sender  common.Address
	chainID *big.Int
	timeout time.Duration
}

// 链上实体交易的RLP载荷结构
type storageCreate struct {
	TTL                uint64
	Payload            []byte
	StringAnnotations  []stringAnnotation
	NumericAnnotations []numericAnnotation
}

type storageTransaction struct {
	Create []storageCreate
	Update []storageCreate
	Delete []common.Hash
	Extend []storageCreate
}

// NewClient 建立到存储网络的连接并校验签名私钥
func NewClient(ctx context.Context, rpcURL, privateKeyHex string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrStoreUnreachable, rpcURL, err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	eth := ethclient.NewClient(rpcClient)
	chainID, err := eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: chain id: %v", ErrStoreUnreachable, err)
	}

	c := &Client{
		rpc:     rpcClient,
		eth:     eth,
		key:     key,
		sender:  crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
		timeout: 90 * time.Second,
	}

	logger.Info("存储网络客户端已连接",
		logger.String("endpoint", rpcURL),
		logger.String("sender", c.sender.Hex()),
		logger.String("chainId", chainID.String()))

	return c, nil
}

// Close 关闭底层RPC连接
func (c *Client) Close() {
	c.rpc.Close()
}

// Save 将元数据写入存储网络。写入是付费的链上操作，失败时直接返回，
// 是否重新提交由调用方决定。
func (c *Client) Save(ctx context.Context, m *model.SongMetadata, ttlSeconds int64) (*SaveResult, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	entityKey, txHash, err := c.createEntity(ctx, payload, indexedAttributes(m), nil, ttlSeconds)
	if err != nil {
		return nil, err
	}

	logger.Info("元数据已写入存储网络",
		logger.String("entityKey", entityKey),
		logger.String("txHash", txHash),
		logger.Int64("expiresAt", m.ExpiresAt))

	return &SaveResult{
		EntityKey:   entityKey,
		TxHash:      txHash,
		MetadataURI: URIScheme + entityKey,
	}, nil
}

// CreateEntity 通用实体创建，attributes 只有类型标签和优先级
func (c *Client) CreateEntity(ctx context.Context, data interface{}, entityType string, priority int, expiresInMinutes int64) (string, string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	strAnn := []stringAnnotation{{Key: "type", Value: entityType}}
	numAnn := []numericAnnotation{{Key: "priority", Value: uint64(priority)}}

	return c.createEntity(ctx, payload, strAnn, numAnn, expiresInMinutes*60)
}

func (c *Client) createEntity(ctx context.Context, payload []byte, strAnn []stringAnnotation, numAnn []numericAnnotation, ttlSeconds int64) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	btl := uint64(ttlSeconds / storageBlockSeconds)
	if btl == 0 {
		btl = 1
	}

	stx := storageTransaction{
		Create: []storageCreate{{
			TTL:                btl,
			Payload:            payload,
			StringAnnotations:  strAnn,
			NumericAnnotations: numAnn,
		}},
	}

	data, err := rlp.EncodeToBytes(&stx)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	nonce, err := c.eth.PendingNonceAt(ctx, c.sender)
	if err != nil {
		return "", "", fmt.Errorf("%w: nonce: %v", ErrStoreUnreachable, err)
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return "", "", fmt.Errorf("%w: gas price: %v", ErrStoreUnreachable, err)
	}

	gasLimit, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From: c.sender,
		To:   &entityStorageAddress,
		Data: data,
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: estimate gas: %v", ErrStoreUnreachable, err)
	}

	tx, err := types.SignNewTx(c.key, types.LatestSignerForChainID(c.chainID), &types.LegacyTx{
		Nonce:    nonce,
		To:       &entityStorageAddress,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: sign: %v", ErrInvalidCredentials, err)
	}

	if err := c.eth.SendTransaction(ctx, tx); err != nil {
		return "", "", fmt.Errorf("%w: send: %v", ErrStoreUnreachable, err)
	}

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return "", "", fmt.Errorf("%w: wait mined %s: %v", ErrStoreUnreachable, tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", "", fmt.Errorf("storage transaction %s reverted", tx.Hash().Hex())
	}

	// 实体键在存储处理器发出的日志的第二个topic中；
	// 同一笔交易可能混有无关日志，逐条匹配来源地址
	for _, lg := range receipt.Logs {
		if lg.Address == entityStorageAddress && len(lg.Topics) >= 2 {
			return lg.Topics[1].Hex(), tx.Hash().Hex(), nil
		}
	}

	return "", "", fmt.Errorf("%w: tx %s", ErrEntityKeyNotFound, tx.Hash().Hex())
}

// GetByKey 按实体键读回元数据，键不存在时返回 (nil, nil)
func (c *Client) GetByKey(ctx context.Context, entityKey string) (*model.SongMetadata, error) {
	var encoded string
	err := c.rpc.CallContext(ctx, &encoded, "golembase_getStorageValue", entityKey)
	if err != nil {
		if isNotFoundErr(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}
	if encoded == "" {
		return nil, nil
	}

	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	return decodeMetadata(entityKey, payload)
}

// QueryByAttribute 对索引属性做等值查询
func (c *Client) QueryByAttribute(ctx context.Context, name, value string) ([]*model.SongMetadata, error) {
	type queryEntity struct {
		Key   string `json:"key"`
		Value []byte `json:"value"`
	}

	var results []queryEntity
	query := fmt.Sprintf("%s = %q", name, value)
	if err := c.rpc.CallContext(ctx, &results, "golembase_queryEntities", query); err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", ErrStoreUnreachable, query, err)
	}

	songs := make([]*model.SongMetadata, 0, len(results))
	for _, entity := range results {
		m, err := decodeMetadata(entity.Key, entity.Value)
		if err != nil {
			// 同一索引下可能混有非歌曲实体，跳过无法解码的载荷
			logger.Warn("跳过无法解码的实体", logger.String("entityKey", entity.Key), logger.ErrorField(err))
			continue
		}
		songs = append(songs, m)
	}

	return songs, nil
}

// IsValid 读取记录并检查 now < expiresAt
func (c *Client) IsValid(ctx context.Context, entityKey string) (bool, error) {
	m, err := c.GetByKey(ctx, entityKey)
	if err != nil {
		return false, err
	}
	if m == nil {
		return false, nil
	}
	return time.Now().UnixMilli() < m.ExpiresAt, nil
}

func decodeMetadata(entityKey string, payload []byte) (*model.SongMetadata, error) {
	var m model.SongMetadata
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	m.EntityKey = entityKey
	return &m, nil
}

func isNotFoundErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") ||
		strings.Contains(msg, "no such entity") ||
		strings.Contains(msg, "unknown entity")
}
