package models

// ClothingItem is one catalogued garment. It is persisted as part of the
// owner's inventory array, so the json tags are the stored format.
type ClothingItem struct {
	ID          string   `json:"id"`
	ImageURL    string   `json:"imageUrl"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Season      Season   `json:"season"`
	Color       string   `json:"color"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	// CreatedAt is milliseconds since the unix epoch.
	CreatedAt int64 `json:"createdAt"`
}

// ClothingItemProjection is the view of an item handed to the stylist model.
// Images never leave the service through it.
type ClothingItemProjection struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Color    string `json:"color"`
	Season   string `json:"season"`
	Location string `json:"location"`
}

func (item ClothingItem) Projection() ClothingItemProjection {
	return ClothingItemProjection{
		ID:       item.ID,
		Name:     item.Name,
		Category: item.Category.Label(),
		Color:    item.Color,
		Season:   item.Season.Label(),
		Location: item.Location,
	}
}

// Defaults applied when an item is submitted with blank fields.
const (
	DefaultItemName     = "未命名衣物"
	DefaultItemColor    = "未知"
	DefaultItemLocation = "未知"
)

// SuggestedLocations are offered as storage location presets. Location is
// free text, these are hints only.
var SuggestedLocations = []string{
	"衣柜 - 挂衣区",
	"衣柜 - 上层",
	"抽屉 - 上层",
	"抽屉 - 下层",
	"鞋架",
	"收纳箱",
	"洗衣房",
	"其他",
}

var WeatherPresets = []string{"晴朗炎热", "凉爽微风", "下雨天", "寒冷冬季"}

var OccasionPresets = []string{"工作/办公", "休闲约会", "健身/运动", "派对聚会"}
