package repository

// Key addresses one persisted value. Global values leave UserID empty.
type Key struct {
	Namespace string
	UserID    string
	Field     string
}

// Persisted fields. Keys built from these are the only ones the tracker writes.
const (
	FieldUsers           = "users"
	FieldCurrentUserID   = "current-user-id"
	FieldLog             = "log"
	FieldNotifyEnabled   = "notify-enabled"
	FieldNotifyInterval  = "notify-interval"
	FieldNotifyVisual    = "notify-visual"
	FieldNotifyVibration = "notify-vibration"
	FieldNotifyLastFired = "notify-last"
)

// String renders the key as "<namespace>/<field>_<userID>", omitting empty parts.
func (k Key) String() string {
	s := k.Field
	if k.UserID != "" {
		s += "_" + k.UserID
	}
	if k.Namespace != "" {
		s = k.Namespace + "/" + s
	}
	return s
}

// Keys builds keys within one namespace
type Keys struct {
	Namespace string
}

func (k Keys) Users() Key {
	return Key{Namespace: k.Namespace, Field: FieldUsers}
}

func (k Keys) CurrentUserID() Key {
	return Key{Namespace: k.Namespace, Field: FieldCurrentUserID}
}

func (k Keys) Log(userID string) Key {
	return Key{Namespace: k.Namespace, UserID: userID, Field: FieldLog}
}

func (k Keys) User(userID, field string) Key {
	return Key{Namespace: k.Namespace, UserID: userID, Field: field}
}

// UserScoped returns every per-user key, used when a user is deleted.
func (k Keys) UserScoped(userID string) []Key {
	fields := []string{
		FieldLog,
		FieldNotifyEnabled,
		FieldNotifyInterval,
		FieldNotifyVisual,
		FieldNotifyVibration,
		FieldNotifyLastFired,
	}
	keys := make([]Key, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, k.User(userID, f))
	}
	return keys
}
