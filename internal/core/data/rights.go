package data

import "fmt"

// Rights is the access level granted to an account.
type Rights byte

const (
	RightsNormal Rights = iota
	RightsGameMaster
	RightsAdmin
	RightsBlocked
)

// ParseRights converts the raw stored rights byte into a Rights value. Any
// value outside the known set is an error; callers are expected to treat an
// unparsable value as RightsBlocked rather than guessing.
func ParseRights(b byte) (Rights, error) {
	r := Rights(b)
	switch r {
	case RightsNormal, RightsGameMaster, RightsAdmin, RightsBlocked:
		return r, nil
	}
	return RightsBlocked, fmt.Errorf("unknown rights value %d", b)
}

func (r Rights) String() string {
	switch r {
	case RightsNormal:
		return "normal"
	case RightsGameMaster:
		return "gamemaster"
	case RightsAdmin:
		return "admin"
	case RightsBlocked:
		return "blocked"
	}
	return fmt.Sprintf("unknown(%d)", byte(r))
}
