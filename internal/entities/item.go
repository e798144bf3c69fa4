package entities

// Item tag keys written by the head catalog
const (
	TagHeadKey     = "headsteal:head"
	TagBanBoxOwner = "headsteal:banbox_owner"
	TagTokenID     = "headsteal:token_id"
)

// Item is an inventory or world item as seen by the core
type Item struct {
	Material    string            `json:"material"`
	DisplayName string            `json:"display_name,omitempty"`
	Lore        []string          `json:"lore,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// Tag returns a tag value
func (i *Item) Tag(key string) (string, bool) {
	if i == nil || i.Tags == nil {
		return "", false
	}
	v, ok := i.Tags[key]
	return v, ok && v != ""
}
