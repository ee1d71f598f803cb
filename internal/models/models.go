package models

import (
	"time"
)

const (
	RoleUser    = "user"
	RoleSupport = "support"
	RoleAdmin   = "admin"
)

const (
	ProductCourse     = "course"
	ProductTool       = "tool"
	ProductEvaluation = "evaluation"
)

const (
	ContentFile    = "file"
	ContentVideo   = "video"
	ContentArticle = "article"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug        string  `gorm:"unique;not null"          json:"slug"`
	Type        string  `gorm:"not null;index"           json:"type"`
	Name        string  `gorm:"not null"                 json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// Module groups a product's contents and carries the drip-release config.
// ReleaseAfterDays counts calendar days from the user's access-grant date;
// nil with ImmediateAccess=false means the module never unlocks.
type Module struct {
	ID               uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID        uint   `gorm:"index;not null"           json:"product_id"`
	Title            string `gorm:"not null"                 json:"title"`
	Position         int    `gorm:"default:0"                json:"position"`
	ImmediateAccess  bool   `gorm:"default:false"            json:"immediate_access"`
	ReleaseAfterDays *int   `json:"release_after_days"`
}

type Content struct {
	ID    uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title string `gorm:"not null"                 json:"title"`
	Type  string `gorm:"not null"                 json:"type"`
	Path  string `gorm:"not null"                 json:"path"`
}

// ProductContent attaches a content item to a product, optionally placing it
// inside one of the product's modules. A content item may be attached to
// several products with a different module placement in each.
type ProductContent struct {
	ID        uint  `gorm:"primaryKey;autoIncrement"                 json:"id"`
	ProductID uint  `gorm:"uniqueIndex:idx_product_content;not null" json:"product_id"`
	ContentID uint  `gorm:"uniqueIndex:idx_product_content;not null" json:"content_id"`
	ModuleID  *uint `gorm:"index"                                    json:"module_id"`
	Position  int   `gorm:"default:0"                                json:"position"`
}

// UserProduct is an entitlement: the user holds access to the product until
// ExpiresAt, or indefinitely when ExpiresAt is nil.
type UserProduct struct {
	ID        uint       `gorm:"primaryKey;autoIncrement"              json:"id"`
	UserID    uint       `gorm:"uniqueIndex:idx_user_product;not null" json:"user_id"`
	ProductID uint       `gorm:"uniqueIndex:idx_user_product;not null" json:"product_id"`
	ExpiresAt *time.Time `gorm:"index"                                 json:"expires_at"`
}

// UserProductAccessLog anchors drip-release offsets: AccessGrantedAt is the
// moment the entitlement was (last) granted. One row per (user, product);
// re-granting overwrites the timestamp.
type UserProductAccessLog struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"             json:"id"`
	UserID          uint      `gorm:"uniqueIndex:idx_user_access;not null" json:"user_id"`
	ProductID       uint      `gorm:"uniqueIndex:idx_user_access;not null" json:"product_id"`
	AccessGrantedAt time.Time `gorm:"not null"                             json:"access_granted_at"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `gorm:"not null"        json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}
