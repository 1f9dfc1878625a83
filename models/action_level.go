package models

// ActionLevel is the per-category moderation severity a server opts into.
// The ordering is meaningful: higher levels are stricter.
type ActionLevel int

const (
	LevelNotify ActionLevel = iota
	LevelTimeout
	LevelKick
	LevelSoftBan
	LevelBan
)

func (l ActionLevel) String() string {
	switch l {
	case LevelNotify:
		return "Notify"
	case LevelTimeout:
		return "Timeout"
	case LevelKick:
		return "Kick"
	case LevelSoftBan:
		return "Soft Ban"
	case LevelBan:
		return "Ban"
	}
	return "Unknown"
}

// Valid reports whether l is one of the five defined levels.
func (l ActionLevel) Valid() bool {
	return l >= LevelNotify && l <= LevelBan
}

// ActorType is the category a bad actor was reported for.
type ActorType string

const (
	TypeSpam          ActorType = "spam"
	TypeImpersonation ActorType = "impersonation"
	TypeBigotry       ActorType = "bigotry"
)

// Valid reports whether t is a known report category.
func (t ActorType) Valid() bool {
	switch t {
	case TypeSpam, TypeImpersonation, TypeBigotry:
		return true
	}
	return false
}
