package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/heyirisdotdev/hades-kitten/internal/action"
	"github.com/heyirisdotdev/hades-kitten/internal/chat"
	"github.com/heyirisdotdev/hades-kitten/internal/repository/interfaces"
	svcerrors "github.com/heyirisdotdev/hades-kitten/internal/service/errors"
	"github.com/heyirisdotdev/hades-kitten/internal/util"
)

// Router 解码交互令牌并把事件分发到对应流程。
// 令牌只在这里解码一次，下游服务拿到的是已解析的对象ID和参数。
type Router struct {
	tweets   interfaces.TweetRepository
	client   chat.Client
	composer *ComposeService
	replier  *ReplyService
	liker    *LikeService
	mirror   *MirrorService
	viewer   *ProfileService
}

func NewRouter(
	tweets interfaces.TweetRepository,
	client chat.Client,
	composer *ComposeService,
	replier *ReplyService,
	liker *LikeService,
	mirror *MirrorService,
	viewer *ProfileService,
) *Router {
	return &Router{
		tweets:   tweets,
		client:   client,
		composer: composer,
		replier:  replier,
		liker:    liker,
		mirror:   mirror,
		viewer:   viewer,
	}
}

// Handle 实现 chat.Handler
func (r *Router) Handle(ctx context.Context, it *chat.Interaction) {
	var err error
	switch it.Kind {
	case chat.KindCommand:
		err = r.composer.HandlePostCommand(ctx, it)
	case chat.KindButton:
		err = r.handleButton(ctx, it)
	case chat.KindSelect:
		err = r.handleSelect(ctx, it)
	case chat.KindForm:
		err = r.handleForm(ctx, it)
	default:
		return
	}
	if err != nil {
		r.respondError(ctx, it, err)
	}
}

// handleButton 所有按钮动作都先按当前状态重新解析目标帖子
func (r *Router) handleButton(ctx context.Context, it *chat.Interaction) error {
	id, err := action.Decode(it.Token)
	if err != nil {
		return svcerrors.Wrap(svcerrors.ErrMalformedToken, "Unrecognized interaction.", err)
	}

	tweet, err := r.tweets.FindByID(id.ObjectID)
	if err != nil {
		return err
	}
	if tweet == nil {
		return svcerrors.New(svcerrors.ErrTweetNotFound, "Tweet not found!")
	}

	switch id.Kind {
	case action.KindReply:
		return r.replier.PresentProfilePicker(ctx, it, tweet)
	case action.KindLike:
		return r.liker.PresentLikePicker(ctx, it, tweet)
	case action.KindViewProfile:
		if len(id.Args) < 1 {
			return svcerrors.New(svcerrors.ErrMalformedToken, "Unrecognized interaction.")
		}
		return r.viewer.View(ctx, it, id.Args[0])
	default:
		return svcerrors.New(svcerrors.ErrMalformedToken, "Unrecognized interaction.")
	}
}

// handleSelect 分发身份选择事件；流程成功后统一刷新一次消息镜像
func (r *Router) handleSelect(ctx context.Context, it *chat.Interaction) error {
	id, err := action.Decode(it.Token)
	if err != nil {
		return svcerrors.Wrap(svcerrors.ErrMalformedToken, "Unrecognized interaction.", err)
	}

	switch id.Kind {
	case action.KindPickProfile:
		err = r.replier.HandleProfilePicked(ctx, it, id.ObjectID)
	case action.KindPickLikeProfile:
		err = r.liker.HandleLikePicked(ctx, it, id.ObjectID)
	default:
		return svcerrors.New(svcerrors.ErrMalformedToken, "Unrecognized interaction.")
	}
	if err != nil {
		return err
	}

	return r.mirror.Refresh(ctx, it, id.ObjectID)
}

func (r *Router) handleForm(ctx context.Context, it *chat.Interaction) error {
	id, err := action.Decode(it.Token)
	if err != nil {
		return svcerrors.Wrap(svcerrors.ErrMalformedToken, "Unrecognized interaction.", err)
	}

	switch id.Kind {
	case action.KindModal:
		return r.composer.HandleFormSubmit(ctx, it, id.ObjectID)
	case action.KindReply:
		if len(id.Args) < 1 {
			return svcerrors.New(svcerrors.ErrMalformedToken, "Unrecognized interaction.")
		}
		return r.replier.HandleFormSubmit(ctx, it, id.ObjectID, id.Args[0])
	default:
		return svcerrors.New(svcerrors.ErrMalformedToken, "Unrecognized interaction.")
	}
}

// respondError 流程错误以私密回复呈现给发起者，其余错误只回复通用提示
func (r *Router) respondError(ctx context.Context, it *chat.Interaction, err error) {
	if fe, ok := svcerrors.AsFlowError(err); ok {
		util.Logger.Info("交互流程终止",
			zap.Int("code", int(fe.Code)),
			zap.String("user_id", it.UserID),
			zap.Error(err))
		if rerr := r.client.RespondEphemeral(ctx, it, fe.Message); rerr != nil {
			util.Logger.Warn("发送流程错误回复失败", zap.Error(rerr))
		}
		return
	}

	util.Logger.Error("交互处理失败",
		zap.String("user_id", it.UserID),
		zap.String("guild_id", it.GuildID),
		zap.Error(err))
	if rerr := r.client.RespondEphemeral(ctx, it, "Something went wrong, please try again later."); rerr != nil {
		util.Logger.Warn("发送错误回复失败", zap.Error(rerr))
	}
}
