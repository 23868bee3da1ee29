// Package chat 定义核心流程所消费的聊天平台契约。
// 所有操作都是异步网络调用，可能失败；具体平台实现见子包。
package chat

import (
	"context"
	"time"
)

// Embed 表示一条富文本内容卡片。
// ReplyToName/ReplyToURL 非空时渲染"回复某帖"的引用行。
type Embed struct {
	AuthorName    string
	AuthorIconURL string
	Description   string
	Timestamp     time.Time
	ReplyToName   string
	ReplyToURL    string
}

// Button 表示消息下方的一个交互按钮，Token 为交互标识令牌
type Button struct {
	Label   string
	Emoji   string
	Token   string
	Primary bool
}

// SelectOption 表示选择菜单中的一个选项
type SelectOption struct {
	Label string
	Value string
}

// Form 表示一个单字段文本表单，Token 为提交时携带的交互标识令牌
type Form struct {
	Token     string
	Title     string
	Label     string
	MaxLength int
}

// Message 表示已发送消息的引用
type Message struct {
	ID        string
	ChannelID string
	URL       string
	Embed     *Embed
}

// InteractionKind 表示入站交互事件的种类
type InteractionKind int

const (
	KindCommand InteractionKind = iota
	KindButton
	KindSelect
	KindForm
)

// Interaction 表示一次入站交互事件。
// Token 为控件携带的交互标识令牌；Value 在命令事件中是参数、
// 在选择事件中是所选值、在表单事件中是提交的文本。
type Interaction struct {
	Kind      InteractionKind
	UserID    string
	GuildID   string
	ChannelID string
	MessageID string
	Token     string
	Value     string
	// CallbackID 是平台相关的应答凭据，由客户端实现填写
	CallbackID string
}

// Client 是核心流程消费的聊天平台客户端接口
type Client interface {
	// SendMessage 向频道发送带按钮的卡片消息
	SendMessage(ctx context.Context, channelID string, embed Embed, buttons []Button) (*Message, error)
	// ReplyToMessage 以结构化回复的形式发送卡片消息
	ReplyToMessage(ctx context.Context, channelID, messageID string, embed Embed, buttons []Button) (*Message, error)
	// EditMessageButtons 原地替换消息的按钮行
	EditMessageButtons(ctx context.Context, channelID, messageID string, buttons []Button) error
	// FetchMessage 按ID获取已发送消息的引用
	FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error)
	// SendDirectMessage 向用户私信发送摘要
	SendDirectMessage(ctx context.Context, userID, content string, embeds []Embed) error
	// ShowForm 向交互发起者展示文本表单，提交时产生 KindForm 事件
	ShowForm(ctx context.Context, it *Interaction, form Form) error
	// ShowSelect 向交互发起者展示选择菜单，选中时产生 KindSelect 事件
	ShowSelect(ctx context.Context, it *Interaction, prompt, token string, options []SelectOption) error
	// RespondEphemeral 向交互发起者私密回复文本
	RespondEphemeral(ctx context.Context, it *Interaction, content string) error
	// RespondEphemeralEmbed 向交互发起者私密回复卡片
	RespondEphemeralEmbed(ctx context.Context, it *Interaction, embed Embed) error
	// Acknowledge 静默确认交互已处理，不产生回复文本
	Acknowledge(ctx context.Context, it *Interaction) error
	// IsTextChannel 判断频道是否可发送文本消息
	IsTextChannel(ctx context.Context, channelID string) (bool, error)
}

// Handler 接收入站交互事件；路由逻辑由实现方负责
type Handler interface {
	Handle(ctx context.Context, it *Interaction)
}
