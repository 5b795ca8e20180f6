package model

// InterestCategory 兴趣分类
// 任务通过多对多关联引用分类作为标签

type InterestCategory struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"type:varchar(100);not null;uniqueIndex;comment:分类名称"`
}

func (InterestCategory) TableName() string { return "interest_category" }
