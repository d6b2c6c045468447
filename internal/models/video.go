package models

import "time"

type Video struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	Title         string `json:"title" gorm:"not null;size:200"`
	Grade         Grade  `json:"grade" gorm:"not null;index"`
	Unit          string `json:"unit" gorm:"not null;size:150"`
	Lesson        string `json:"lesson" gorm:"not null;size:150"`
	DailymotionID string `json:"dailymotionId" gorm:"not null;size:64"`
	Views         int    `json:"views" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Video) TableName() string {
	return "videos"
}

// FreeVideo is a public YouTube video shown on the landing page.
type FreeVideo struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200"`
	YoutubeID   string  `json:"youtubeId" gorm:"not null;size:64"`
	Description *string `json:"description" gorm:"type:text"`

	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (FreeVideo) TableName() string {
	return "free_videos"
}
