package service

import (
	"context"

	"github.com/heyirisdotdev/hades-kitten/internal/chat"
	"github.com/heyirisdotdev/hades-kitten/internal/repository/interfaces"
	svcerrors "github.com/heyirisdotdev/hades-kitten/internal/service/errors"
	"github.com/heyirisdotdev/hades-kitten/internal/storage"
)

// ProfileService 处理身份卡片的私密展示
type ProfileService struct {
	profiles interfaces.ProfileRepository
	client   chat.Client
	avatars  *storage.AvatarStorage
}

func NewProfileService(
	profiles interfaces.ProfileRepository,
	client chat.Client,
	avatars *storage.AvatarStorage,
) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		client:   client,
		avatars:  avatars,
	}
}

// View 按句柄解析身份并以私密卡片回复发起者
func (s *ProfileService) View(ctx context.Context, it *chat.Interaction, handle string) error {
	profile, err := s.profiles.FindByHandle(it.GuildID, handle)
	if err != nil {
		return err
	}
	if profile == nil {
		return svcerrors.New(svcerrors.ErrProfileNotFound, "Profile not found!")
	}

	return s.client.RespondEphemeralEmbed(ctx, it, chat.Embed{
		AuthorName:    "@" + profile.Handle,
		AuthorIconURL: s.avatars.URL(profile.ProfilePicture),
		Description:   profile.DisplayName,
		Timestamp:     profile.CreatedAt,
	})
}
