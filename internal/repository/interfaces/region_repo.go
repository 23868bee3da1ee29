package interfaces

import "github.com/heyirisdotdev/hades-kitten/internal/model"

// RegionRepository 定义了社区配置相关的数据库操作接口
type RegionRepository interface {
	FindByGuild(guildID string) (*model.Region, error)
	Upsert(region *model.Region) error
}
