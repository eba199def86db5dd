package kernel

type UserID string

func NewUserID(id string) UserID { return UserID(id) }
func (u UserID) String() string  { return string(u) }
func (u UserID) IsEmpty() bool   { return string(u) == "" }

// EntityType names the application record an activity entry links to.
type EntityType string

const (
	EntityEmail    EntityType = "email"
	EntityClient   EntityType = "client"
	EntityProject  EntityType = "project"
	EntityInvoice  EntityType = "invoice"
	EntityContract EntityType = "contract"
)

func (e EntityType) String() string { return string(e) }

// ParseEntityType returns the known entity type named by s.
func ParseEntityType(s string) (EntityType, bool) {
	switch t := EntityType(s); t {
	case EntityEmail, EntityClient, EntityProject, EntityInvoice, EntityContract:
		return t, true
	}
	return "", false
}
