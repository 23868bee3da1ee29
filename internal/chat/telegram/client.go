// Package telegram 提供 chat.Client 的 Telegram 实现。
//
// 平台映射说明：回调事件以其所在会话作为社区标识；若帖子频道独立于
// 社区群，需要为该频道配置同样的 Region 记录。
package telegram

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/heyirisdotdev/hades-kitten/internal/chat"
	"github.com/heyirisdotdev/hades-kitten/internal/util"
)

// pendingForm 记录等待用户文本输入的表单会话。
// 内容长度由流程层校验，这里只保留路由所需的上下文。
type pendingForm struct {
	token     string
	guildID   string
	channelID string
}

// pendingSelect 记录等待用户选择的菜单会话
type pendingSelect struct {
	token   string
	guildID string
}

// Client 通过 Telegram Bot API 实现 chat.Client
type Client struct {
	bot *tgbotapi.BotAPI

	mu             sync.Mutex
	pendingForms   map[int64]*pendingForm    // 按用户ID索引
	pendingSelects map[string]*pendingSelect // 按 会话ID:消息ID 索引
}

var _ chat.Client = (*Client)(nil)

func New(token string) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("连接 Telegram 失败: %w", err)
	}

	return &Client{
		bot:            bot,
		pendingForms:   make(map[int64]*pendingForm),
		pendingSelects: make(map[string]*pendingSelect),
	}, nil
}

// Run 启动更新循环，把入站事件翻译为交互事件并交给处理器。
// 每个事件在独立的 goroutine 中处理，事件之间没有互斥。
func (c *Client) Run(ctx context.Context, handler chat.Handler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	util.Logger.Info("Telegram 更新循环已启动", zap.String("bot", c.bot.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if it := c.translate(update); it != nil {
				go handler.Handle(ctx, it)
			}
		}
	}
}

// translate 把原始更新翻译为交互事件，无关的更新返回 nil
func (c *Client) translate(update tgbotapi.Update) *chat.Interaction {
	if cb := update.CallbackQuery; cb != nil {
		if cb.Message == nil {
			return nil
		}
		chatID := strconv.FormatInt(cb.Message.Chat.ID, 10)
		it := &chat.Interaction{
			UserID:     strconv.FormatInt(cb.From.ID, 10),
			GuildID:    chatID,
			ChannelID:  chatID,
			MessageID:  strconv.Itoa(cb.Message.MessageID),
			CallbackID: cb.ID,
		}

		key := chatID + "/" + strconv.Itoa(cb.Message.MessageID)
		c.mu.Lock()
		pending, isSelect := c.pendingSelects[key]
		if isSelect {
			delete(c.pendingSelects, key)
		}
		c.mu.Unlock()

		if isSelect {
			it.Kind = chat.KindSelect
			it.Token = pending.token
			it.GuildID = pending.guildID
			it.Value = cb.Data
			// 清掉菜单按钮，防止重复选择
			edit := tgbotapi.NewEditMessageReplyMarkup(cb.Message.Chat.ID, cb.Message.MessageID,
				tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
			if _, err := c.bot.Request(edit); err != nil {
				util.Logger.Warn("清除菜单按钮失败", zap.Error(err))
			}
		} else {
			it.Kind = chat.KindButton
			it.Token = cb.Data
		}
		return it
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	if msg.IsCommand() {
		if msg.Command() != "post" {
			return nil
		}
		return &chat.Interaction{
			Kind:      chat.KindCommand,
			UserID:    strconv.FormatInt(msg.From.ID, 10),
			GuildID:   chatID,
			ChannelID: chatID,
			MessageID: strconv.Itoa(msg.MessageID),
			Value:     strings.TrimSpace(msg.CommandArguments()),
		}
	}

	// 非命令文本：若该用户有等待中的表单会话，视为表单提交
	c.mu.Lock()
	form, ok := c.pendingForms[msg.From.ID]
	if ok {
		delete(c.pendingForms, msg.From.ID)
	}
	c.mu.Unlock()
	if !ok || msg.Text == "" {
		return nil
	}

	return &chat.Interaction{
		Kind:      chat.KindForm,
		UserID:    strconv.FormatInt(msg.From.ID, 10),
		GuildID:   form.guildID,
		ChannelID: form.channelID,
		MessageID: strconv.Itoa(msg.MessageID),
		Token:     form.token,
		Value:     msg.Text,
	}
}

func (c *Client) SendMessage(ctx context.Context, channelID string, embed chat.Embed, buttons []chat.Button) (*chat.Message, error) {
	chatID, err := parseChatID(channelID)
	if err != nil {
		return nil, err
	}

	msg := tgbotapi.NewMessage(chatID, renderEmbed(embed))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if len(buttons) > 0 {
		msg.ReplyMarkup = buttonMarkup(buttons)
	}

	sent, err := c.bot.Send(msg)
	if err != nil {
		return nil, err
	}
	return sentMessage(&sent), nil
}

func (c *Client) ReplyToMessage(ctx context.Context, channelID, messageID string, embed chat.Embed, buttons []chat.Button) (*chat.Message, error) {
	chatID, err := parseChatID(channelID)
	if err != nil {
		return nil, err
	}
	msgID, err := strconv.Atoi(messageID)
	if err != nil {
		return nil, fmt.Errorf("无效的消息ID %q: %w", messageID, err)
	}

	msg := tgbotapi.NewMessage(chatID, renderEmbed(embed))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyToMessageID = msgID
	if len(buttons) > 0 {
		msg.ReplyMarkup = buttonMarkup(buttons)
	}

	sent, err := c.bot.Send(msg)
	if err != nil {
		return nil, err
	}
	return sentMessage(&sent), nil
}

func (c *Client) EditMessageButtons(ctx context.Context, channelID, messageID string, buttons []chat.Button) error {
	chatID, err := parseChatID(channelID)
	if err != nil {
		return err
	}
	msgID, err := strconv.Atoi(messageID)
	if err != nil {
		return fmt.Errorf("无效的消息ID %q: %w", messageID, err)
	}

	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, msgID, buttonMarkup(buttons))
	_, err = c.bot.Request(edit)
	return err
}

// FetchMessage 返回消息引用。Bot API 无法按ID拉取历史消息，
// 引用字段由ID推导，Embed 始终为空。
func (c *Client) FetchMessage(ctx context.Context, channelID, messageID string) (*chat.Message, error) {
	chatID, err := parseChatID(channelID)
	if err != nil {
		return nil, err
	}
	msgID, err := strconv.Atoi(messageID)
	if err != nil {
		return nil, fmt.Errorf("无效的消息ID %q: %w", messageID, err)
	}

	return &chat.Message{
		ID:        messageID,
		ChannelID: channelID,
		URL:       messageURL(chatID, msgID),
	}, nil
}

func (c *Client) SendDirectMessage(ctx context.Context, userID, content string, embeds []chat.Embed) error {
	chatID, err := parseChatID(userID)
	if err != nil {
		return err
	}

	parts := []string{html.EscapeString(content)}
	for _, e := range embeds {
		parts = append(parts, renderEmbed(e))
	}

	msg := tgbotapi.NewMessage(chatID, strings.Join(parts, "\n\n"))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err = c.bot.Send(msg)
	return err
}

func (c *Client) ShowForm(ctx context.Context, it *chat.Interaction, form chat.Form) error {
	chatID, err := parseChatID(it.ChannelID)
	if err != nil {
		return err
	}
	userID, err := parseChatID(it.UserID)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("<b>%s</b>\n%s (max %d characters)",
		html.EscapeString(form.Title), html.EscapeString(form.Label), form.MaxLength)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.ForceReply{ForceReply: true, Selective: true}
	if replyTo, err := strconv.Atoi(it.MessageID); err == nil {
		msg.ReplyToMessageID = replyTo
	}

	if _, err := c.bot.Send(msg); err != nil {
		return err
	}

	c.mu.Lock()
	c.pendingForms[userID] = &pendingForm{
		token:     form.Token,
		guildID:   it.GuildID,
		channelID: it.ChannelID,
	}
	c.mu.Unlock()

	return c.Acknowledge(ctx, it)
}

func (c *Client) ShowSelect(ctx context.Context, it *chat.Interaction, prompt, token string, options []chat.SelectOption) error {
	chatID, err := parseChatID(it.ChannelID)
	if err != nil {
		return err
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(options))
	for _, opt := range options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(opt.Label, opt.Value),
		))
	}

	msg := tgbotapi.NewMessage(chatID, prompt)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)

	sent, err := c.bot.Send(msg)
	if err != nil {
		return err
	}

	key := it.ChannelID + "/" + strconv.Itoa(sent.MessageID)
	c.mu.Lock()
	c.pendingSelects[key] = &pendingSelect{token: token, guildID: it.GuildID}
	c.mu.Unlock()

	return c.Acknowledge(ctx, it)
}

func (c *Client) RespondEphemeral(ctx context.Context, it *chat.Interaction, content string) error {
	// 回调事件用弹窗应答，仅发起者可见；其余事件在会话内回复
	if it.CallbackID != "" {
		cb := tgbotapi.NewCallbackWithAlert(it.CallbackID, content)
		_, err := c.bot.Request(cb)
		return err
	}

	chatID, err := parseChatID(it.ChannelID)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, content)
	if replyTo, err := strconv.Atoi(it.MessageID); err == nil {
		msg.ReplyToMessageID = replyTo
	}
	_, err = c.bot.Send(msg)
	return err
}

func (c *Client) RespondEphemeralEmbed(ctx context.Context, it *chat.Interaction, embed chat.Embed) error {
	// 卡片内容私信给发起者
	userID, err := parseChatID(it.UserID)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(userID, renderEmbed(embed))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := c.bot.Send(msg); err != nil {
		return err
	}
	return c.Acknowledge(ctx, it)
}

func (c *Client) Acknowledge(ctx context.Context, it *chat.Interaction) error {
	if it.CallbackID == "" {
		return nil
	}
	cb := tgbotapi.NewCallback(it.CallbackID, "")
	_, err := c.bot.Request(cb)
	return err
}

func (c *Client) IsTextChannel(ctx context.Context, channelID string) (bool, error) {
	chatID, err := parseChatID(channelID)
	if err != nil {
		return false, err
	}

	info, err := c.bot.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return false, err
	}

	switch info.Type {
	case "group", "supergroup", "channel":
		return true, nil
	default:
		return false, nil
	}
}

func parseChatID(id string) (int64, error) {
	chatID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("无效的会话ID %q: %w", id, err)
	}
	return chatID, nil
}

func sentMessage(msg *tgbotapi.Message) *chat.Message {
	return &chat.Message{
		ID:        strconv.Itoa(msg.MessageID),
		ChannelID: strconv.FormatInt(msg.Chat.ID, 10),
		URL:       messageURL(msg.Chat.ID, msg.MessageID),
	}
}

// messageURL 推导公开消息链接；超级群/频道使用 t.me/c 形式
func messageURL(chatID int64, messageID int) string {
	const supergroupPrefix = "-100"
	s := strconv.FormatInt(chatID, 10)
	if strings.HasPrefix(s, supergroupPrefix) {
		return fmt.Sprintf("https://t.me/c/%s/%d", s[len(supergroupPrefix):], messageID)
	}
	return ""
}

func buttonMarkup(buttons []chat.Button) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		label := b.Label
		if b.Emoji != "" {
			label = b.Emoji + " " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, b.Token))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

// renderEmbed 把卡片渲染为 HTML 文本
func renderEmbed(e chat.Embed) string {
	var b strings.Builder
	if e.AuthorName != "" {
		if e.AuthorIconURL != "" {
			fmt.Fprintf(&b, "<b><a href=%q>%s</a></b>\n", e.AuthorIconURL, html.EscapeString(e.AuthorName))
		} else {
			fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(e.AuthorName))
		}
	}
	if e.ReplyToName != "" {
		if e.ReplyToURL != "" {
			fmt.Fprintf(&b, "<i><a href=%q>Replying to @%s's post</a></i>\n", e.ReplyToURL, html.EscapeString(e.ReplyToName))
		} else {
			fmt.Fprintf(&b, "<i>Replying to @%s's post</i>\n", html.EscapeString(e.ReplyToName))
		}
	}
	b.WriteString(html.EscapeString(e.Description))
	if !e.Timestamp.IsZero() {
		fmt.Fprintf(&b, "\n<i>%s</i>", e.Timestamp.UTC().Format("2006-01-02 15:04"))
	}
	return b.String()
}
