package notify

import (
	"context"
	"fmt"

	"SplitTrackFM/config"
	"SplitTrackFM/logger"
	"SplitTrackFM/model"

	"github.com/resend/resend-go/v2"
)

// SplitInfo 发给协作者的分成确认内容
type SplitInfo struct {
	SongTitle       string
	Percentage      int
	SplitterAddress string
	NFTAddress      string
	TxHash          string
	ChainID         int64
}

// Notifier 协作者通知接口。发送失败只记录日志，绝不让创建流程失败。
type Notifier interface {
	NotifySplit(ctx context.Context, c model.Collaborator, info SplitInfo) error
}

// NewFromConfig 根据配置选择实现：没有API密钥时降级为控制台演示模式
func NewFromConfig(cfg *config.Config) Notifier {
	if cfg.ResendAPIKey == "" {
		logger.Warn("RESEND_API_KEY 未配置，邮件通知进入演示模式（仅打印日志）")
		return &consoleNotifier{}
	}
	return &ResendNotifier{
		client: resend.NewClient(cfg.ResendAPIKey),
		from:   cfg.ResendFrom,
	}
}

// ResendNotifier 通过 Resend 发送协作者邮件
type ResendNotifier struct {
	client *resend.Client
	from   string
}

// NotifySplit 给单个协作者发送分成确认邮件。
// 没有邮箱地址的协作者（只有钱包）直接跳过。
func (n *ResendNotifier) NotifySplit(ctx context.Context, c model.Collaborator, info SplitInfo) error {
	if c.CustodialAccountEmail == "" {
		return nil
	}

	explorerURL := fmt.Sprintf("https://sepolia.scrollscan.com/tx/%s", info.TxHash)

	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{c.CustodialAccountEmail},
		Subject: fmt.Sprintf("你在《%s》中的分成已上链", info.SongTitle),
		Html: fmt.Sprintf(`<h2>你好 %s！</h2>
<p>歌曲 <strong>%s</strong> 的收益分成合约已经部署完成。</p>
<ul>
  <li>你的分成比例：<strong>%d%%</strong></li>
  <li>分成合约地址：<code>%s</code></li>
  <li>交易哈希：<code>%s</code></li>
</ul>
<p><a href="%s">在区块浏览器中查看</a></p>`,
			c.Name, info.SongTitle, c.Percentage, info.SplitterAddress, info.TxHash, explorerURL),
	}

	sent, err := n.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send split notification to %s: %w", c.CustodialAccountEmail, err)
	}

	logger.Info("分成确认邮件已发送",
		logger.String("to", c.CustodialAccountEmail),
		logger.String("emailId", sent.Id),
		logger.String("songTitle", info.SongTitle))

	return nil
}

// consoleNotifier 演示模式：把本应发送的内容打到日志里
type consoleNotifier struct{}

func (n *consoleNotifier) NotifySplit(_ context.Context, c model.Collaborator, info SplitInfo) error {
	if c.CustodialAccountEmail == "" {
		return nil
	}

	logger.Info("[演示模式] 分成确认邮件",
		logger.String("to", c.CustodialAccountEmail),
		logger.String("collaborator", c.Name),
		logger.String("songTitle", info.SongTitle),
		logger.Int("percentage", c.Percentage),
		logger.String("splitter", info.SplitterAddress),
		logger.String("txHash", info.TxHash))

	return nil
}
