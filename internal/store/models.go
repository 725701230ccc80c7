package store

import "time"

// cachedPull mirrors one snapshot entry. The PR's own timestamps get
// explicit columns so gorm's record bookkeeping stays out of the way.
type cachedPull struct {
	ID          int64  `gorm:"primaryKey"`
	Number      int    `gorm:"not null"`
	Title       string `gorm:"not null"`
	State       string `gorm:"not null;check:state IN ('open','closed','merged')"`
	Draft       bool   `gorm:"not null;default:false"`
	RepoOwner   string `gorm:"not null;index:idx_repo"`
	RepoName    string `gorm:"not null;index:idx_repo"`
	Author      string `gorm:"not null"`
	AvatarURL   string `gorm:"default:''"`
	Comments    int    `gorm:"not null;default:0"`
	URL         string `gorm:"not null"`
	PROpenedAt  time.Time `gorm:"not null"`
	PRUpdatedAt time.Time `gorm:"not null;index:idx_pr_updated"`
	Position    int       `gorm:"not null;index:idx_position"`
}

// snapshotMeta is a single-row table carrying the snapshot-level fields.
type snapshotMeta struct {
	ID          int `gorm:"primaryKey"`
	RefreshedAt time.Time
	Truncated   bool `gorm:"not null;default:false"`
}
