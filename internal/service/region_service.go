package service

import (
	"github.com/heyirisdotdev/hades-kitten/internal/model"
	"github.com/heyirisdotdev/hades-kitten/internal/repository/interfaces"
)

// RegionService 管理社区的帖子频道配置
type RegionService struct {
	regions interfaces.RegionRepository
}

func NewRegionService(regions interfaces.RegionRepository) *RegionService {
	return &RegionService{regions: regions}
}

// GetRegion 返回社区配置，未配置时返回 nil
func (s *RegionService) GetRegion(guildID string) (*model.Region, error) {
	return s.regions.FindByGuild(guildID)
}

// SetTweetChannel 写入社区的帖子频道
func (s *RegionService) SetTweetChannel(guildID, channelID string) error {
	return s.regions.Upsert(&model.Region{
		GuildID:        guildID,
		TweetChannelID: channelID,
	})
}
